// Package pricing calcula el precio de un encarte y su calendario de pagos.
package pricing

import (
	"fmt"

	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/shopspring/decimal"
)

// FlatOverrideDiscount es la remise fija que se aplica con la tarifa especial
const FlatOverrideDiscount = 70

var hundred = decimal.NewFromInt(100)

// Selection representa la elección de un cliente
type Selection struct {
	Format             Format
	MonthCount         int
	DiscountPercentage float64
	FlatOverride       bool
}

// EffectiveDiscount retorna la remise que se aplica realmente
func (s Selection) EffectiveDiscount() decimal.Decimal {
	if s.FlatOverride {
		return decimal.NewFromInt(FlatOverrideDiscount)
	}
	return decimal.NewFromFloat(s.DiscountPercentage)
}

// ComputeTotal calcula el precio total en unidades enteras de moneda.
// El resultado se trunca una sola vez, al final de la multiplicación.
func ComputeTotal(sel Selection, catalog Catalog) (int64, error) {
	cfg, ok := catalog[sel.Format]
	if !ok {
		return 0, models.ErrInvalidSelection.Wrap(fmt.Sprintf("unknown format %q", sel.Format), nil).
			WithDetails(models.ErrorDetail{Field: "format", Issue: "not in catalog"})
	}

	// La remise del formulario solo se valida si no la reemplaza la tarifa especial.
	// NaN e infinitos quedan fuera del rango.
	if !sel.FlatOverride && !(sel.DiscountPercentage >= 0 && sel.DiscountPercentage <= 100) {
		return 0, models.ErrInvalidSelection.Wrap("discount must be between 0 and 100", nil).
			WithDetails(models.ErrorDetail{Field: "discountPercentage", Issue: "out of range"})
	}

	base := decimal.NewFromInt(cfg.UnitPrice)
	if !cfg.Bundle {
		if sel.MonthCount <= 0 {
			return 0, models.ErrInvalidSelection.Wrap("month count must be positive", nil).
				WithDetails(models.ErrorDetail{Field: "monthCount", Issue: "must be greater than zero"})
		}
		base = base.Mul(decimal.NewFromInt(int64(sel.MonthCount)))
	}

	total := base.Mul(hundred.Sub(sel.EffectiveDiscount())).Div(hundred).Truncate(0)
	if total.IsNegative() {
		return 0, models.ErrInvalidSelection.Wrap("computed price is negative", nil)
	}
	return total.IntPart(), nil
}
