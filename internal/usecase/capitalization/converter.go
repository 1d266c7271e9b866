// Package capitalization converts between sale price and rental income through a capitalization rate.
//
// The two directions are independent: each has its own cap rate and its own
// "custom overrides high" precedence chain.
package capitalization

import (
	"github.com/shopspring/decimal"

	"github.com/oryem/appraisal-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// EffectiveSalePrice returns salePriceCustom ?? salePriceHigh ?? 0
func EffectiveSalePrice(e domain.MarketEstimation) decimal.Decimal {
	return firstValid(e.SalePriceCustom, e.SalePriceHigh)
}

// EffectiveRent returns rentCustom ?? rentHigh ?? 0
func EffectiveRent(e domain.MarketEstimation) decimal.Decimal {
	return firstValid(e.RentCustom, e.RentHigh)
}

// EstimateRentFromSale estimates the market rent (currency/m²/year) from the observed sale price.
//
// FORMULA: rent = effectiveSalePrice × saleCapRate / 100
func EstimateRentFromSale(e domain.MarketEstimation) decimal.Decimal {
	return EffectiveSalePrice(e).Mul(e.SaleCapRate.Div(hundred))
}

// EstimatePriceFromRent estimates the sale price from the observed rent.
//
// FORMULA: pricePerArea = effectiveRent / (rentCapRate / 100), totalPrice = pricePerArea × totalSurface
//
// A cap rate of 0 or below yields 0 ("unestimable") instead of dividing.
func EstimatePriceFromRent(e domain.MarketEstimation, totalSurface decimal.Decimal) domain.PriceFromRent {
	if e.RentCapRate.Sign() <= 0 {
		return domain.PriceFromRent{PricePerArea: decimal.Zero, TotalPrice: decimal.Zero}
	}

	pricePerArea := EffectiveRent(e).Div(e.RentCapRate.Div(hundred))
	return domain.PriceFromRent{
		PricePerArea: pricePerArea,
		TotalPrice:   pricePerArea.Mul(totalSurface),
	}
}

func firstValid(values ...decimal.NullDecimal) decimal.Decimal {
	for _, v := range values {
		if v.Valid {
			return v.Decimal
		}
	}
	return decimal.Zero
}
