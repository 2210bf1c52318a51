package workflows

import (
	"context"
	"fmt"

	"github.com/hypernova-labs/facture-service/internal/config"
	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Dispatcher entrega solicitudes al motor externo de generación.
// Una implementación hace una sola llamada por invocación y nunca reintenta.
type Dispatcher interface {
	DispatchGeneration(ctx context.Context, payload *models.DispatchPayload) (*models.DispatchAck, error)
	DispatchSend(ctx context.Context, payload *models.SendPayload) error
}

// NewDispatcher construye el dispatcher del transporte configurado
func NewDispatcher(cfg *config.Config, logger *logrus.Logger) (Dispatcher, error) {
	switch cfg.Workflow.Transport {
	case config.TransportWebhook:
		return NewWebhookDispatcher(&cfg.Workflow, logger), nil
	case config.TransportInngest:
		return NewInngestDispatcher(cfg, logger)
	default:
		return nil, models.NewFactureError(models.ErrorCodeConfig,
			fmt.Sprintf("unknown workflow transport %q", cfg.Workflow.Transport), false, nil)
	}
}
