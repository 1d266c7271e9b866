package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxValidatedComparables is the number of validated comparables a project can hold
const MaxValidatedComparables = 3

// TransactionType tells whether a comparable is a sale or a lease
type TransactionType string

const (
	TransactionTypeSale TransactionType = "SALE"
	TransactionTypeRent TransactionType = "RENT"
)

// Coordinates is a WGS84 position
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// SelectedComparable is a reference transaction retained for a project.
// PricePerArea is the observed value and never changes; AdjustedPricePerArea is always derived from it.
type SelectedComparable struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	Address         string
	City            string
	Surface         decimal.Decimal
	Price           decimal.Decimal
	TransactionType TransactionType
	TransactionDate *time.Time
	Location        *Coordinates
	Validated       bool

	PricePerArea         decimal.Decimal
	Adjustment           decimal.Decimal // signed percent
	AdjustedPricePerArea decimal.Decimal
}

// Validate ensures the comparable can be persisted
func (c *SelectedComparable) Validate() error {
	if c.ProjectID == uuid.Nil {
		return fmt.Errorf("%w: comparable must reference a project", ErrInvalidInput)
	}
	if c.TransactionType != TransactionTypeSale && c.TransactionType != TransactionTypeRent {
		return fmt.Errorf("%w: comparable transaction type must be SALE or RENT", ErrInvalidInput)
	}
	return nil
}

// PriceStats summarizes the unit prices of a set of comparables
type PriceStats struct {
	AvgSalePerArea    decimal.NullDecimal
	SaleCount         int
	AvgRentPerArea    decimal.NullDecimal
	RentCount         int
	LatestSalePerArea decimal.NullDecimal
	LatestSaleDate    *time.Time
	TotalCount        int
}
