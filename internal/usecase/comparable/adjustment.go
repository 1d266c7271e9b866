// Package comparable holds the calculations applied to reference transactions:
// unit price adjustment, distance to the subject property and price statistics.
package comparable

import (
	"github.com/shopspring/decimal"

	"github.com/oryem/appraisal-backend/internal/domain"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ApplyAdjustment applies a signed percentage to a unit price, rounded to the nearest currency unit.
//
// FORMULA: adjusted = round(pricePerArea × (1 + adjustment / 100))
//
// The percentage is not clamped: below -100 the result changes sign. Halves round away from zero.
func ApplyAdjustment(pricePerArea, adjustmentPct decimal.Decimal) decimal.Decimal {
	return pricePerArea.Mul(one.Add(adjustmentPct.Div(hundred))).Round(0)
}

// Adjust returns a copy of c whose AdjustedPricePerArea reflects its current Adjustment
func Adjust(c domain.SelectedComparable) domain.SelectedComparable {
	c.AdjustedPricePerArea = ApplyAdjustment(c.PricePerArea, c.Adjustment)
	return c
}

// PricePerArea returns price / surface, or 0 when the surface is not positive
func PricePerArea(price, surface decimal.Decimal) decimal.Decimal {
	if surface.Sign() <= 0 {
		return decimal.Zero
	}
	return price.Div(surface)
}
