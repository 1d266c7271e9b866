// Package breakdown derives the absolute values of a breakdown row from its surface and unit prices.
package breakdown

import (
	"github.com/shopspring/decimal"

	"github.com/oryem/appraisal-backend/internal/domain"
)

var monthsPerYear = decimal.NewFromInt(12)

// RecomputeRow applies an edit of one field and returns the updated row.
// Logic:
//  1. Input edit (surface, price/m², rent/m²): store the value (empty stays empty) and
//     re-derive every derived field whose override flag is false
//  2. Derived edit with a value: store it and set its override flag
//  3. Derived edit with an empty value: clear the value and the flag; the formula takes over on the next input edit
//  4. An annual rent edit also re-derives the monthly rent when the latter is not overridden
//
// Unknown fields leave the row unchanged. The input row is not mutated.
func RecomputeRow(row domain.BreakdownRow, field domain.BreakdownField, value decimal.NullDecimal) domain.BreakdownRow {
	switch field {
	case domain.FieldSurface:
		row.Surface = value
		return Rederive(row)
	case domain.FieldPricePerArea:
		row.PricePerArea = value
		return Rederive(row)
	case domain.FieldRentPerArea:
		row.RentPerArea = value
		return Rederive(row)
	case domain.FieldVenalValue:
		row.VenalValue = value
		row.VenalOverride = value.Valid
	case domain.FieldRentalAnnual:
		row.RentalValueAnnual = value
		row.RentalAnnualOverride = value.Valid
		if !row.RentalMonthlyOverride && row.RentalValueAnnual.Valid {
			row.RentalValueMonthly = decimal.NewNullDecimal(MonthlyFromAnnual(row.RentalValueAnnual.Decimal))
		}
	case domain.FieldRentalMonthly:
		row.RentalValueMonthly = value
		row.RentalMonthlyOverride = value.Valid
	}
	return row
}

// Rederive recomputes every non-overridden derived field from the row's current inputs.
// The monthly rent follows the annual rent, whether the annual figure is derived or overridden.
func Rederive(row domain.BreakdownRow) domain.BreakdownRow {
	surface := orZero(row.Surface)

	if !row.VenalOverride {
		row.VenalValue = decimal.NewNullDecimal(surface.Mul(orZero(row.PricePerArea)))
	}
	if !row.RentalAnnualOverride {
		row.RentalValueAnnual = decimal.NewNullDecimal(surface.Mul(orZero(row.RentPerArea)))
	}
	if !row.RentalMonthlyOverride && row.RentalValueAnnual.Valid {
		row.RentalValueMonthly = decimal.NewNullDecimal(MonthlyFromAnnual(row.RentalValueAnnual.Decimal))
	}
	return row
}

// MonthlyFromAnnual converts a yearly amount to a monthly one
func MonthlyFromAnnual(annual decimal.Decimal) decimal.Decimal {
	return annual.Div(monthsPerYear)
}

// orZero treats an empty value as 0 for multiplication
func orZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}
