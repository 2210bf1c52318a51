package workflows

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hypernova-labs/facture-service/internal/config"
	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(url string, timeout time.Duration) *WebhookDispatcher {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewWebhookDispatcher(&config.WorkflowConfig{
		GenerateURL: url + "/generate",
		SendURL:     url + "/send",
		Secret:      "s3cret",
		Timeout:     timeout,
	}, logger)
}

func testPayload() *models.DispatchPayload {
	return &models.DispatchPayload{
		Event:          models.EventFactureGenerate,
		CorrelationID:  "corr-1",
		IdempotencyKey: "rec-1",
		RecordID:       "rec-1",
		Mode:           models.GenerationModeIssued,
	}
}

func TestWebhookDispatcher_DispatchGeneration(t *testing.T) {
	t.Run("sends payload with secret and parses ack", func(t *testing.T) {
		var received map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/generate", r.URL.Path)
			assert.Equal(t, "s3cret", r.Header.Get(WebhookSecretHeader))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"facture_numero":"FA-2024-0007","execution_id":"exec-9"}`))
		}))
		defer server.Close()

		ack, err := newTestDispatcher(server.URL, time.Second).DispatchGeneration(context.Background(), testPayload())

		require.NoError(t, err)
		require.NotNil(t, ack.DocumentNumber)
		assert.Equal(t, "FA-2024-0007", *ack.DocumentNumber)
		assert.Equal(t, "exec-9", ack.ExecutionID)
		assert.Equal(t, "rec-1", received["qualification_id"])
		assert.Equal(t, "rec-1", received["idempotency_key"])
		assert.Equal(t, "issued", received["mode"])
	})

	t.Run("accepts camel case document number", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"documentNumber":"FA-2024-0008"}`))
		}))
		defer server.Close()

		ack, err := newTestDispatcher(server.URL, time.Second).DispatchGeneration(context.Background(), testPayload())

		require.NoError(t, err)
		require.NotNil(t, ack.DocumentNumber)
		assert.Equal(t, "FA-2024-0008", *ack.DocumentNumber)
	})

	t.Run("empty or unreadable body is still an ack", func(t *testing.T) {
		for _, body := range []string{"", "accepted"} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))

			ack, err := newTestDispatcher(server.URL, time.Second).DispatchGeneration(context.Background(), testPayload())
			server.Close()

			require.NoError(t, err)
			assert.Nil(t, ack.DocumentNumber)
		}
	})

	t.Run("non success status is a rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
		}))
		defer server.Close()

		ack, err := newTestDispatcher(server.URL, time.Second).DispatchGeneration(context.Background(), testPayload())

		assert.Nil(t, ack)
		assert.ErrorIs(t, err, models.ErrWorkflowRejected)
		assert.True(t, models.IsRetryable(err))
		fe, ok := models.AsFactureError(err)
		require.True(t, ok)
		require.Len(t, fe.Details, 1)
		assert.LessOrEqual(t, len(fe.Details[0].Issue), maxResponseDetail+3)
	})

	t.Run("slow engine times out", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		start := time.Now()
		ack, err := newTestDispatcher(server.URL, 50*time.Millisecond).DispatchGeneration(context.Background(), testPayload())

		assert.Nil(t, ack)
		assert.ErrorIs(t, err, models.ErrWebhookTimeout)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("unreachable engine is a timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := newTestDispatcher(url, time.Second).DispatchGeneration(context.Background(), testPayload())

		assert.ErrorIs(t, err, models.ErrWebhookTimeout)
	})
}

func TestWebhookDispatcher_DispatchSend(t *testing.T) {
	t.Run("posts to the send endpoint", func(t *testing.T) {
		var received models.SendPayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/send", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		err := newTestDispatcher(server.URL, time.Second).DispatchSend(context.Background(), &models.SendPayload{
			Event:          models.EventFactureSend,
			RecordID:       "rec-1",
			DocumentNumber: "FA-2024-0007",
			ArtifactURL:    "https://storage.example/f.pdf",
		})

		require.NoError(t, err)
		assert.Equal(t, "FA-2024-0007", received.DocumentNumber)
		assert.Equal(t, "https://storage.example/f.pdf", received.ArtifactURL)
	})

	t.Run("failure is surfaced", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		err := newTestDispatcher(server.URL, time.Second).DispatchSend(context.Background(), &models.SendPayload{})

		assert.ErrorIs(t, err, models.ErrWorkflowRejected)
	})
}

func TestNewDispatcher(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	t.Run("webhook transport", func(t *testing.T) {
		cfg := &config.Config{Workflow: config.WorkflowConfig{
			Transport:   config.TransportWebhook,
			GenerateURL: "http://engine/generate",
			Timeout:     time.Second,
		}}

		d, err := NewDispatcher(cfg, logger)

		require.NoError(t, err)
		assert.IsType(t, &WebhookDispatcher{}, d)
	})

	t.Run("inngest transport requires an event key", func(t *testing.T) {
		cfg := &config.Config{Workflow: config.WorkflowConfig{Transport: config.TransportInngest}}

		_, err := NewDispatcher(cfg, logger)

		assert.ErrorIs(t, err, models.ErrConfig)
	})

	t.Run("unknown transport", func(t *testing.T) {
		cfg := &config.Config{Workflow: config.WorkflowConfig{Transport: "carrier-pigeon"}}

		_, err := NewDispatcher(cfg, logger)

		assert.ErrorIs(t, err, models.ErrConfig)
	})
}

func TestToEventData(t *testing.T) {
	data, err := toEventData(testPayload())

	require.NoError(t, err)
	assert.Equal(t, "rec-1", data["qualification_id"])
	assert.Equal(t, "corr-1", data["correlation_id"])
}
