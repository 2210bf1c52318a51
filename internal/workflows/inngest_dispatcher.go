package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hypernova-labs/facture-service/internal/config"
	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/inngest/inngestgo"
	"github.com/sirupsen/logrus"
)

// Eventos publicados en Inngest
const (
	InngestEventGenerate = "facture/generate.requested"
	InngestEventSend     = "facture/send.requested"
)

// InngestDispatcher publica las solicitudes como eventos de Inngest
type InngestDispatcher struct {
	client  inngestgo.Client
	timeout time.Duration
	logger  *logrus.Logger
}

// NewInngestDispatcher crea una nueva instancia del dispatcher
func NewInngestDispatcher(cfg *config.Config, logger *logrus.Logger) (*InngestDispatcher, error) {
	if cfg.Inngest.EventKey == "" {
		return nil, models.NewFactureError(models.ErrorCodeConfig, "INNGEST_EVENT_KEY not configured", false, nil)
	}

	opts := inngestgo.ClientOpts{
		AppID:    cfg.Inngest.AppID,
		EventKey: &cfg.Inngest.EventKey,
	}
	if cfg.Inngest.SigningKey != "" {
		opts.SigningKey = &cfg.Inngest.SigningKey
	}
	if cfg.Inngest.EventURL != "" {
		opts.EventURL = &cfg.Inngest.EventURL
	}
	// El SDK no propaga el contexto a la petición HTTP; el timeout va en el cliente
	opts.HTTPClient = &http.Client{Timeout: cfg.Workflow.Timeout}

	client, err := inngestgo.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("error creating Inngest client: %w", err)
	}

	return &InngestDispatcher{
		client:  client,
		timeout: cfg.Workflow.Timeout,
		logger:  logger,
	}, nil
}

// DispatchGeneration publica el evento de generación.
// Inngest no devuelve número de factura; el acuse solo lleva el ID del evento.
func (d *InngestDispatcher) DispatchGeneration(ctx context.Context, payload *models.DispatchPayload) (*models.DispatchAck, error) {
	eventID, err := d.send(ctx, InngestEventGenerate, payload.CorrelationID, payload)
	if err != nil {
		return nil, err
	}
	return &models.DispatchAck{ExecutionID: eventID}, nil
}

// DispatchSend publica el evento de envío
func (d *InngestDispatcher) DispatchSend(ctx context.Context, payload *models.SendPayload) error {
	_, err := d.send(ctx, InngestEventSend, "", payload)
	return err
}

func (d *InngestDispatcher) send(ctx context.Context, name, id string, payload interface{}) (string, error) {
	data, err := toEventData(payload)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// Send reintenta los 5xx por su cuenta; el plazo total lo marca ctx
	done := make(chan sendResult, 1)
	go func() {
		eventID, err := d.client.Send(ctx, inngestgo.Event{
			ID:        inngestgo.StrPtr(id),
			Name:      name,
			Data:      data,
			Timestamp: time.Now().UnixMilli(),
		})
		done <- sendResult{eventID: eventID, err: err}
	}()

	var eventID string
	select {
	case res := <-done:
		eventID, err = res.eventID, res.err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		fields := logrus.Fields{"event": name, "error": err.Error()}
		if isTransportError(ctx, err) {
			d.logger.WithFields(fields).Error("Inngest unreachable")
			return "", models.ErrWebhookTimeout.Wrap("workflow engine did not answer in time", err)
		}
		d.logger.WithFields(fields).Error("Inngest rejected the event")
		return "", models.ErrWorkflowRejected.Wrap("workflow engine rejected the event", err)
	}

	d.logger.WithFields(logrus.Fields{
		"event":    name,
		"event_id": eventID,
	}).Info("Workflow event published")

	return eventID, nil
}

type sendResult struct {
	eventID string
	err     error
}

// toEventData convierte el payload al mapa que espera Inngest
func toEventData(payload interface{}) (map[string]any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling event payload: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("error converting event payload: %w", err)
	}
	return data, nil
}

func isTransportError(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
