package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hypernova-labs/facture-service/internal/config"
	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Cabecera con el secreto compartido del webhook
const WebhookSecretHeader = "X-Webhook-Secret"

// Tamaño máximo del cuerpo de respuesta que se conserva en los detalles del error
const maxResponseDetail = 512

// WebhookDispatcher envía las solicitudes al motor externo por HTTP
type WebhookDispatcher struct {
	client      *http.Client
	generateURL string
	sendURL     string
	secret      string
	timeout     time.Duration
	logger      *logrus.Logger
}

// NewWebhookDispatcher crea una nueva instancia del dispatcher
func NewWebhookDispatcher(cfg *config.WorkflowConfig, logger *logrus.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		client:      &http.Client{Timeout: cfg.Timeout},
		generateURL: cfg.GenerateURL,
		sendURL:     cfg.SendURL,
		secret:      cfg.Secret,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// webhookAck acepta las dos variantes de nombre que devuelve el motor
type webhookAck struct {
	DocumentNumber    *string `json:"facture_numero"`
	DocumentNumberAlt *string `json:"documentNumber"`
	ExecutionID       string  `json:"execution_id"`
}

// DispatchGeneration envía la solicitud de generación y lee el acuse del motor
func (d *WebhookDispatcher) DispatchGeneration(ctx context.Context, payload *models.DispatchPayload) (*models.DispatchAck, error) {
	body, err := d.post(ctx, d.generateURL, payload)
	if err != nil {
		return nil, err
	}

	ack := &models.DispatchAck{}
	if len(bytes.TrimSpace(body)) == 0 {
		return ack, nil
	}

	var raw webhookAck
	if err := json.Unmarshal(body, &raw); err != nil {
		// El motor aceptó la solicitud; un cuerpo ilegible no invalida el envío
		d.logger.WithFields(logrus.Fields{
			"qualification_id": payload.RecordID,
			"error":            err.Error(),
		}).Warn("Could not parse workflow acknowledgement")
		return ack, nil
	}

	ack.DocumentNumber = raw.DocumentNumber
	if ack.DocumentNumber == nil {
		ack.DocumentNumber = raw.DocumentNumberAlt
	}
	ack.ExecutionID = raw.ExecutionID

	return ack, nil
}

// DispatchSend pide al motor que entregue una factura ya generada
func (d *WebhookDispatcher) DispatchSend(ctx context.Context, payload *models.SendPayload) error {
	_, err := d.post(ctx, d.sendURL, payload)
	return err
}

// post hace una única llamada con timeout y clasifica el resultado
func (d *WebhookDispatcher) post(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.secret != "" {
		req.Header.Set(WebhookSecretHeader, d.secret)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.WithFields(logrus.Fields{
			"url":      url,
			"duration": time.Since(start).String(),
			"error":    err.Error(),
		}).Error("Workflow webhook unreachable")
		return nil, models.ErrWebhookTimeout.Wrap("workflow engine did not answer in time", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		d.logger.WithError(err).Error("Error reading workflow webhook response")
		return nil, models.ErrWebhookTimeout.Wrap("workflow engine response was interrupted", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := truncate(string(body), maxResponseDetail)
		d.logger.WithFields(logrus.Fields{
			"url":         url,
			"status_code": resp.StatusCode,
			"response":    detail,
		}).Error("Workflow webhook rejected the request")
		return nil, models.ErrWorkflowRejected.
			Wrap(fmt.Sprintf("workflow engine responded with status %d", resp.StatusCode), nil).
			WithDetails(models.ErrorDetail{Field: "response", Issue: detail})
	}

	d.logger.WithFields(logrus.Fields{
		"url":         url,
		"status_code": resp.StatusCode,
		"duration":    time.Since(start).String(),
	}).Info("Workflow webhook accepted the request")

	return body, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
