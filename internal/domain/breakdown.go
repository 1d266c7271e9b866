package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LocalType represents the use category of a breakdown row
type LocalType string

const (
	LocalTypeOffice    LocalType = "OFFICE"
	LocalTypeRetail    LocalType = "RETAIL"
	LocalTypeWarehouse LocalType = "WAREHOUSE"
	LocalTypeActivity  LocalType = "ACTIVITY"
	LocalTypeLand      LocalType = "LAND"
	LocalTypeOther     LocalType = "OTHER"
)

// IsValid reports whether t is one of the known use categories
func (t LocalType) IsValid() bool {
	switch t {
	case LocalTypeOffice, LocalTypeRetail, LocalTypeWarehouse, LocalTypeActivity, LocalTypeLand, LocalTypeOther:
		return true
	}
	return false
}

// BreakdownField identifies the row field a user just edited
type BreakdownField string

const (
	FieldSurface       BreakdownField = "SURFACE"
	FieldPricePerArea  BreakdownField = "PRICE_PER_AREA"
	FieldRentPerArea   BreakdownField = "RENT_PER_AREA"
	FieldVenalValue    BreakdownField = "VENAL_VALUE"
	FieldRentalAnnual  BreakdownField = "RENTAL_ANNUAL"
	FieldRentalMonthly BreakdownField = "RENTAL_MONTHLY"
)

// IsInput reports whether the field is one of the formula inputs (surface or a unit price)
func (f BreakdownField) IsInput() bool {
	return f == FieldSurface || f == FieldPricePerArea || f == FieldRentPerArea
}

// IsDerived reports whether the field is a derived value that can be overridden
func (f BreakdownField) IsDerived() bool {
	return f == FieldVenalValue || f == FieldRentalAnnual || f == FieldRentalMonthly
}

// BreakdownRow is one line item of a property (e.g. "Office space, 280 m²").
//
// Each derived value has its own override flag. While a flag is false the value
// equals its formula over the current inputs; while it is true the value is the
// user-supplied figure and inputs no longer touch it.
type BreakdownRow struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	LocalType LocalType
	Order     int

	Surface      decimal.NullDecimal // m²
	PricePerArea decimal.NullDecimal // currency/m²
	RentPerArea  decimal.NullDecimal // currency/m²/year

	VenalValue         decimal.NullDecimal
	RentalValueAnnual  decimal.NullDecimal
	RentalValueMonthly decimal.NullDecimal

	VenalOverride         bool
	RentalAnnualOverride  bool
	RentalMonthlyOverride bool
}

// NewBreakdownRow creates a row with no overrides and every derived value computed from zero inputs
func NewBreakdownRow(projectID uuid.UUID, localType LocalType, order int) BreakdownRow {
	zero := decimal.NewNullDecimal(decimal.Zero)
	return BreakdownRow{
		ID:                 uuid.New(),
		ProjectID:          projectID,
		LocalType:          localType,
		Order:              order,
		Surface:            zero,
		VenalValue:         zero,
		RentalValueAnnual:  zero,
		RentalValueMonthly: zero,
	}
}

// IsOverridden reports the override flag of a derived field
func (r *BreakdownRow) IsOverridden(f BreakdownField) bool {
	switch f {
	case FieldVenalValue:
		return r.VenalOverride
	case FieldRentalAnnual:
		return r.RentalAnnualOverride
	case FieldRentalMonthly:
		return r.RentalMonthlyOverride
	}
	return false
}

// Validate ensures the row can be persisted.
// Business plausibility of the figures (negative surface, etc.) is left to the form layer.
func (r *BreakdownRow) Validate() error {
	if r.ProjectID == uuid.Nil {
		return fmt.Errorf("%w: breakdown row must reference a project", ErrInvalidInput)
	}
	if !r.LocalType.IsValid() {
		return ErrInvalidLocalType
	}
	if r.Order < 0 {
		return fmt.Errorf("%w: breakdown row order must not be negative", ErrInvalidInput)
	}
	return nil
}

// SynthesisTotals is the roll-up of a list of breakdown rows.
// Averages are surface-weighted.
type SynthesisTotals struct {
	TotalSurface       decimal.Decimal
	TotalVenalValue    decimal.Decimal
	TotalRentalAnnual  decimal.Decimal
	TotalRentalMonthly decimal.Decimal
	AvgPricePerArea    decimal.Decimal
	AvgRentPerArea     decimal.Decimal
}
