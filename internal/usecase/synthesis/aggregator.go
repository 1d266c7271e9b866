// Package synthesis rolls breakdown rows up into the totals line of the synthesis table.
package synthesis

import (
	"github.com/shopspring/decimal"

	"github.com/oryem/appraisal-backend/internal/domain"
)

// ComputeTotals calculates the synthesis totals of a list of rows.
// Empty values count as 0. Per-unit averages are weighted by surface,
// since unit prices of rows of different sizes are not directly comparable:
//
//	avgPricePerArea = Σ(pricePerArea × surface) / Σ surface
//
// Both averages are 0 when the total surface is 0.
func ComputeTotals(rows []domain.BreakdownRow) domain.SynthesisTotals {
	totals := domain.SynthesisTotals{
		TotalSurface:       decimal.Zero,
		TotalVenalValue:    decimal.Zero,
		TotalRentalAnnual:  decimal.Zero,
		TotalRentalMonthly: decimal.Zero,
		AvgPricePerArea:    decimal.Zero,
		AvgRentPerArea:     decimal.Zero,
	}

	weightedPrice := decimal.Zero
	weightedRent := decimal.Zero

	for _, row := range rows {
		surface := orZero(row.Surface)

		totals.TotalSurface = totals.TotalSurface.Add(surface)
		totals.TotalVenalValue = totals.TotalVenalValue.Add(orZero(row.VenalValue))
		totals.TotalRentalAnnual = totals.TotalRentalAnnual.Add(orZero(row.RentalValueAnnual))
		totals.TotalRentalMonthly = totals.TotalRentalMonthly.Add(orZero(row.RentalValueMonthly))

		weightedPrice = weightedPrice.Add(orZero(row.PricePerArea).Mul(surface))
		weightedRent = weightedRent.Add(orZero(row.RentPerArea).Mul(surface))
	}

	if !totals.TotalSurface.IsZero() {
		totals.AvgPricePerArea = weightedPrice.Div(totals.TotalSurface)
		totals.AvgRentPerArea = weightedRent.Div(totals.TotalSurface)
	}

	return totals
}

// ComputeTotalsOf is ComputeTotals over row pointers as returned by repositories
func ComputeTotalsOf(rows []*domain.BreakdownRow) domain.SynthesisTotals {
	values := make([]domain.BreakdownRow, 0, len(rows))
	for _, row := range rows {
		if row != nil {
			values = append(values, *row)
		}
	}
	return ComputeTotals(values)
}

func orZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}
