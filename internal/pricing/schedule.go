package pricing

import (
	"fmt"
	"time"

	"github.com/hypernova-labs/facture-service/internal/models"
)

// AllowedInstallmentCounts son las opciones de pago fraccionado ofrecidas
var AllowedInstallmentCounts = []int{2, 3, 4, 6}

// Installment representa una cuota
type Installment struct {
	Date   time.Time
	Amount int64
}

// GenerateSchedule reparte total en n cuotas mensuales a partir de start.
// Las primeras n-1 cuotas reciben floor(total/n) y la última absorbe el resto.
func GenerateSchedule(total int64, n int, start time.Time) ([]Installment, error) {
	if n <= 0 {
		return nil, models.ErrInvalidInstallmentCount.Wrap(fmt.Sprintf("installment count must be positive, got %d", n), nil)
	}
	if total < 0 {
		return nil, models.ErrInvalidSelection.Wrap("total must not be negative", nil)
	}

	base := total / int64(n)
	schedule := make([]Installment, n)
	for i := 0; i < n; i++ {
		amount := base
		if i == n-1 {
			amount = total - base*int64(n-1)
		}
		schedule[i] = Installment{
			Date:   addMonths(start, i),
			Amount: amount,
		}
	}
	return schedule, nil
}

// addMonths avanza meses de calendario; el día se limita al último del mes destino
// (31 de enero + 1 mes = 28/29 de febrero).
func addMonths(start time.Time, months int) time.Time {
	y, m, d := start.Date()
	first := time.Date(y, m+time.Month(months), 1, start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// IsAllowedInstallmentCount indica si n es una de las opciones ofrecidas
func IsAllowedInstallmentCount(n int) bool {
	for _, allowed := range AllowedInstallmentCounts {
		if n == allowed {
			return true
		}
	}
	return false
}
