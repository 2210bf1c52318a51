// Package poller observa el estado de una generación hasta que termina.
package poller

import (
	"context"
	"time"

	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Valores por defecto del polling
const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 60 * time.Second
)

// StatusReader lee el estado actual de un registro
type StatusReader interface {
	ReadStatus(ctx context.Context, recordID string) (*models.JobStatusResponse, error)
}

// Poller lee el estado de forma periódica. Solo lee, nunca escribe.
type Poller struct {
	reader   StatusReader
	interval time.Duration
	timeout  time.Duration
	logger   *logrus.Logger
}

// New crea un nuevo poller; valores no positivos usan los valores por defecto
func New(reader StatusReader, interval, timeout time.Duration, logger *logrus.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Poller{
		reader:   reader,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// PollUntilTerminal lee el estado hasta llegar a ready o error.
//
// Los errores de lectura reintentables se ignoran hasta agotar el timeout;
// los errores de entrada (auth, registro inexistente) cortan el loop.
// Un timeout devuelve ErrPollTimeout; no cancela nada del lado del motor.
func (p *Poller) PollUntilTerminal(ctx context.Context, recordID string) (*models.JobStatusResponse, error) {
	deadline := time.Now().Add(p.timeout)
	readCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	log := p.logger.WithField("qualification_id", recordID)

	for attempt := 1; ; attempt++ {
		status, err := p.reader.ReadStatus(readCtx, recordID)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			if fe, ok := models.AsFactureError(err); ok && !fe.Retryable {
				return nil, err
			}
			log.WithFields(logrus.Fields{
				"attempt": attempt,
				"error":   err.Error(),
			}).Debug("Status read failed, retrying")
		default:
			switch status.Status {
			case models.JobStatusReady:
				return status, nil
			case models.JobStatusError:
				message := models.ErrGenerationFailed.Message
				if status.Error != nil && status.Error.Message != "" {
					message = status.Error.Message
				}
				return status, models.ErrGenerationFailed.Wrap(message, nil)
			case models.JobStatusIdle, models.JobStatusDispatchFailed, models.JobStatusGenerating:
			}
			log.WithFields(logrus.Fields{
				"attempt": attempt,
				"status":  status.Status,
			}).Debug("Generation not finished yet")
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, p.timeoutError()
		}
		wait := p.interval
		if remaining < wait {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		if !time.Now().Before(deadline) {
			return nil, p.timeoutError()
		}
	}
}

func (p *Poller) timeoutError() error {
	return models.ErrPollTimeout.Wrap("stopped waiting after "+p.timeout.String(), nil)
}
