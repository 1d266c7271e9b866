package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCapitalizationRate is the cap rate (percent) of a fresh estimation
var DefaultCapitalizationRate = decimal.NewFromInt(8)

// MarketEstimation holds the market parameters of one property.
// A non-null custom value takes precedence over the high value; there are no override flags here.
type MarketEstimation struct {
	ID        uuid.UUID
	ProjectID uuid.UUID

	SalePriceLow    decimal.NullDecimal // currency/m²
	SalePriceHigh   decimal.NullDecimal
	SalePriceCustom decimal.NullDecimal
	SaleCapRate     decimal.Decimal // percent

	RentLow     decimal.NullDecimal // currency/m²/year
	RentHigh    decimal.NullDecimal
	RentCustom  decimal.NullDecimal
	RentCapRate decimal.Decimal // percent
}

// NewMarketEstimation creates an empty estimation with both cap rates at their default
func NewMarketEstimation(projectID uuid.UUID) MarketEstimation {
	return MarketEstimation{
		ID:          uuid.New(),
		ProjectID:   projectID,
		SaleCapRate: DefaultCapitalizationRate,
		RentCapRate: DefaultCapitalizationRate,
	}
}

// PriceFromRent is the sale price derived from an observed rent
type PriceFromRent struct {
	PricePerArea decimal.Decimal
	TotalPrice   decimal.Decimal
}
