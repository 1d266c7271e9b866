package comparable

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/shopspring/decimal"

	"github.com/oryem/appraisal-backend/internal/domain"
)

// DistanceKm returns the great-circle distance between two positions, in kilometers
func DistanceKm(a, b domain.Coordinates) float64 {
	return geo.DistanceHaversine(toPoint(a), toPoint(b)) / 1000
}

// DistanceFrom returns the distance from subject to c rounded to 2 decimals.
// ok is false when either position is unknown.
func DistanceFrom(subject *domain.Coordinates, c *domain.SelectedComparable) (km decimal.Decimal, ok bool) {
	if subject == nil || c == nil || c.Location == nil {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(DistanceKm(*subject, *c.Location)).Round(2), true
}

// ComputePriceStats summarizes the observed unit prices of comps.
// Averages are arithmetic means per transaction type, rounded to 2 decimals, and left empty when the type is absent.
// The latest sale is the dated sale with the most recent transaction date.
func ComputePriceStats(comps []*domain.SelectedComparable) domain.PriceStats {
	var (
		stats             domain.PriceStats
		saleSum, rentSum  decimal.Decimal
		latestSaleDate    time.Time
		latestSalePerArea decimal.Decimal
		hasLatestSale     bool
	)

	for _, c := range comps {
		if c == nil {
			continue
		}
		stats.TotalCount++

		switch c.TransactionType {
		case domain.TransactionTypeSale:
			stats.SaleCount++
			saleSum = saleSum.Add(c.PricePerArea)

			if c.TransactionDate != nil && (!hasLatestSale || c.TransactionDate.After(latestSaleDate)) {
				latestSaleDate = *c.TransactionDate
				latestSalePerArea = c.PricePerArea
				hasLatestSale = true
			}
		case domain.TransactionTypeRent:
			stats.RentCount++
			rentSum = rentSum.Add(c.PricePerArea)
		}
	}

	if stats.SaleCount > 0 {
		stats.AvgSalePerArea = decimal.NewNullDecimal(saleSum.Div(decimal.NewFromInt(int64(stats.SaleCount))).Round(2))
	}
	if stats.RentCount > 0 {
		stats.AvgRentPerArea = decimal.NewNullDecimal(rentSum.Div(decimal.NewFromInt(int64(stats.RentCount))).Round(2))
	}
	if hasLatestSale {
		stats.LatestSalePerArea = decimal.NewNullDecimal(latestSalePerArea)
		stats.LatestSaleDate = &latestSaleDate
	}

	return stats
}

// orb points are [lon, lat]
func toPoint(c domain.Coordinates) orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}
