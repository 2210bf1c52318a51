package pricing

import (
	"fmt"
	"time"

	"github.com/hypernova-labs/facture-service/internal/models"
)

// Quote es un precio con su calendario opcional
type Quote struct {
	Format   Format
	Total    int64
	Schedule []Installment
}

// BuildQuote calcula el total y, si installments > 0, el calendario de pagos.
// Solo se aceptan las cantidades de cuotas ofrecidas.
func BuildQuote(sel Selection, installments int, start time.Time, catalog Catalog) (*Quote, error) {
	total, err := ComputeTotal(sel, catalog)
	if err != nil {
		return nil, err
	}

	quote := &Quote{Format: sel.Format, Total: total}
	if installments == 0 {
		return quote, nil
	}

	if !IsAllowedInstallmentCount(installments) {
		return nil, models.ErrInvalidInstallmentCount.
			Wrap(fmt.Sprintf("installment count must be one of %v, got %d", AllowedInstallmentCounts, installments), nil)
	}

	quote.Schedule, err = GenerateSchedule(total, installments, start)
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// ToResponse convierte la cotización al formato de la API
func (q *Quote) ToResponse() models.QuoteResponse {
	resp := models.QuoteResponse{
		Format: string(q.Format),
		Total:  q.Total,
	}
	for _, inst := range q.Schedule {
		resp.Schedule = append(resp.Schedule, models.ScheduleEntry{
			Date:   inst.Date.Format(models.DateLayout),
			Amount: inst.Amount,
		})
	}
	return resp
}
