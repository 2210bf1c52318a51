package poller

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	status models.JobStatus
	err    error
	jobErr *models.JobError
}

type scriptedReader struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (r *scriptedReader) ReadStatus(ctx context.Context, recordID string) (*models.JobStatusResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	if i >= len(r.steps) {
		i = len(r.steps) - 1
	}
	r.calls++
	s := r.steps[i]
	if s.err != nil {
		return nil, s.err
	}
	return &models.JobStatusResponse{RecordID: recordID, Status: s.status, Error: s.jobErr}, nil
}

func (r *scriptedReader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newTestPoller(reader StatusReader, interval, timeout time.Duration) *Poller {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(reader, interval, timeout, logger)
}

func TestPollUntilTerminal_Ready(t *testing.T) {
	reader := &scriptedReader{steps: []step{
		{status: models.JobStatusIdle},
		{status: models.JobStatusGenerating},
		{status: models.JobStatusReady},
	}}

	status, err := newTestPoller(reader, 10*time.Millisecond, time.Second).PollUntilTerminal(context.Background(), "rec-1")

	require.NoError(t, err)
	assert.Equal(t, models.JobStatusReady, status.Status)
	assert.Equal(t, 3, reader.count())
}

func TestPollUntilTerminal_EngineError(t *testing.T) {
	reader := &scriptedReader{steps: []step{
		{status: models.JobStatusGenerating},
		{status: models.JobStatusError, jobErr: &models.JobError{Code: "GENERATION_FAILED", Message: "template missing"}},
	}}

	status, err := newTestPoller(reader, 10*time.Millisecond, time.Second).PollUntilTerminal(context.Background(), "rec-1")

	assert.ErrorIs(t, err, models.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "template missing")
	require.NotNil(t, status)
	assert.Equal(t, models.JobStatusError, status.Status)
}

func TestPollUntilTerminal_SwallowsTransientErrors(t *testing.T) {
	reader := &scriptedReader{steps: []step{
		{err: errors.New("connection refused")},
		{err: models.ErrWebhookTimeout},
		{status: models.JobStatusReady},
	}}

	status, err := newTestPoller(reader, 10*time.Millisecond, time.Second).PollUntilTerminal(context.Background(), "rec-1")

	require.NoError(t, err)
	assert.Equal(t, models.JobStatusReady, status.Status)
}

func TestPollUntilTerminal_InputErrorAborts(t *testing.T) {
	reader := &scriptedReader{steps: []step{{err: models.ErrRecordNotFound}}}

	_, err := newTestPoller(reader, 10*time.Millisecond, time.Second).PollUntilTerminal(context.Background(), "rec-1")

	assert.ErrorIs(t, err, models.ErrRecordNotFound)
	assert.Equal(t, 1, reader.count())
}

func TestPollUntilTerminal_Timeout(t *testing.T) {
	reader := &scriptedReader{steps: []step{{status: models.JobStatusGenerating}}}
	timeout := 80 * time.Millisecond

	start := time.Now()
	_, err := newTestPoller(reader, 20*time.Millisecond, timeout).PollUntilTerminal(context.Background(), "rec-1")
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, models.ErrPollTimeout)
	assert.True(t, models.IsRetryable(err))
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+500*time.Millisecond)
}

func TestPollUntilTerminal_Cancellation(t *testing.T) {
	reader := &scriptedReader{steps: []step{{status: models.JobStatusGenerating}}}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := newTestPoller(reader, 10*time.Millisecond, 5*time.Second).PollUntilTerminal(ctx, "rec-1")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPollUntilTerminal_ReadyWithinOneTick(t *testing.T) {
	var mu sync.Mutex
	ready := false
	reader := readerFunc(func(ctx context.Context, id string) (*models.JobStatusResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		if ready {
			return &models.JobStatusResponse{Status: models.JobStatusReady}, nil
		}
		return &models.JobStatusResponse{Status: models.JobStatusGenerating}, nil
	})

	interval := 50 * time.Millisecond
	var readyAt time.Time
	go func() {
		time.Sleep(120 * time.Millisecond)
		mu.Lock()
		ready = true
		readyAt = time.Now()
		mu.Unlock()
	}()

	_, err := newTestPoller(reader, interval, 5*time.Second).PollUntilTerminal(context.Background(), "rec-1")

	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Less(t, time.Since(readyAt), interval+100*time.Millisecond)
}

type readerFunc func(ctx context.Context, id string) (*models.JobStatusResponse, error)

func (f readerFunc) ReadStatus(ctx context.Context, id string) (*models.JobStatusResponse, error) {
	return f(ctx, id)
}

func TestNew_Defaults(t *testing.T) {
	p := New(&scriptedReader{}, 0, -1, logrus.New())

	assert.Equal(t, DefaultInterval, p.interval)
	assert.Equal(t, DefaultTimeout, p.timeout)
}
