package pricing

import (
	"math"
	"testing"

	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotal(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		name string
		sel  Selection
		want int64
	}{
		{"12X4 three months no discount", Selection{Format: Format12X4, MonthCount: 3}, 1500},
		{"6X4 twelve months", Selection{Format: Format6X4, MonthCount: 12}, 4200},
		{"bundle ignores month count", Selection{Format: Format12Parutions, MonthCount: 7}, 1800},
		{"bundle with flat override", Selection{Format: Format12Parutions, FlatOverride: true}, 540},
		{"custom discount", Selection{Format: Format6X8, MonthCount: 2, DiscountPercentage: 10}, 900},
		{"truncates fractional result", Selection{Format: Format6X4, MonthCount: 1, DiscountPercentage: 33}, 234},
		{"full discount", Selection{Format: Format6X8, MonthCount: 4, DiscountPercentage: 100}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotal(tt.sel, catalog)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeTotal_FlatOverrideWinsOverCustomDiscount(t *testing.T) {
	catalog := DefaultCatalog()

	for _, discount := range []float64{0, 15, 70, 99.5, 100, 250, -3} {
		got, err := ComputeTotal(Selection{
			Format:             Format6X8,
			MonthCount:         3,
			DiscountPercentage: discount,
			FlatOverride:       true,
		}, catalog)
		require.NoError(t, err)
		assert.Equal(t, int64(450), got, "discount %v", discount)
	}
}

func TestComputeTotal_InvalidSelection(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		name string
		sel  Selection
	}{
		{"unknown format", Selection{Format: "A4", MonthCount: 1}},
		{"zero months", Selection{Format: Format6X4, MonthCount: 0}},
		{"negative months", Selection{Format: Format12X4, MonthCount: -2}},
		{"discount above 100", Selection{Format: Format6X4, MonthCount: 1, DiscountPercentage: 101}},
		{"negative discount", Selection{Format: Format6X4, MonthCount: 1, DiscountPercentage: -1}},
		{"NaN discount", Selection{Format: Format6X4, MonthCount: 1, DiscountPercentage: math.NaN()}},
		{"infinite discount", Selection{Format: Format6X4, MonthCount: 1, DiscountPercentage: math.Inf(1)}},
		{"negative infinite discount", Selection{Format: Format12X4, MonthCount: 2, DiscountPercentage: math.Inf(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeTotal(tt.sel, catalog)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrInvalidSelection)
			assert.False(t, models.IsRetryable(err))
		})
	}
}

func TestComputeTotal_Deterministic(t *testing.T) {
	catalog := DefaultCatalog()

	for _, format := range catalog.Keys() {
		for months := 1; months <= 12; months++ {
			for discount := 0.0; discount <= 100; discount += 7.5 {
				sel := Selection{Format: format, MonthCount: months, DiscountPercentage: discount}
				first, err := ComputeTotal(sel, catalog)
				require.NoError(t, err)
				second, err := ComputeTotal(sel, catalog)
				require.NoError(t, err)

				assert.Equal(t, first, second)
				assert.GreaterOrEqual(t, first, int64(0))
			}
		}
	}
}

func TestParseCatalog(t *testing.T) {
	data := []byte(`
formats:
  A5:
    unit_price: 200
  ANNUEL:
    label: Annuel
    unit_price: 1500
    bundle: true
`)

	catalog, err := ParseCatalog(data)
	require.NoError(t, err)
	assert.Equal(t, []Format{"A5", "ANNUEL"}, catalog.Keys())
	assert.Equal(t, "A5", catalog["A5"].Label)
	assert.True(t, catalog["ANNUEL"].Bundle)

	total, err := ComputeTotal(Selection{Format: "ANNUEL", FlatOverride: true}, catalog)
	require.NoError(t, err)
	assert.Equal(t, int64(450), total)
}

func TestParseCatalog_Errors(t *testing.T) {
	_, err := ParseCatalog([]byte(`formats: {}`))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte(`formats: {X: {unit_price: -1}}`))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte(`formats: [`))
	assert.Error(t, err)
}
