package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SimulationType represents the financing scenario category
type SimulationType string

const (
	SimulationTypeLandReserve       SimulationType = "RESERVE_FONCIERE"
	SimulationTypeBorrowingCapacity SimulationType = "CAPACITE_EMPRUNT"
	SimulationTypeExtension         SimulationType = "EXTENSION"
	SimulationTypeRenovation        SimulationType = "RENOVATION"
	SimulationTypeOther             SimulationType = "OTHER"
)

// IsValid reports whether t is a known simulation type
func (t SimulationType) IsValid() bool {
	switch t {
	case SimulationTypeLandReserve, SimulationTypeBorrowingCapacity, SimulationTypeExtension,
		SimulationTypeRenovation, SimulationTypeOther:
		return true
	}
	return false
}

// SimulationInput holds the user-edited parameters of one financing scenario.
// Rates are percents (3.5 means 3.5%).
type SimulationInput struct {
	PropertyPrice        decimal.Decimal `json:"property_price"`
	WorksAmount          decimal.Decimal `json:"works_amount"`
	PersonalContribution decimal.Decimal `json:"personal_contribution"`
	NotaryRate           decimal.Decimal `json:"notary_rate"`
	LoanAmount           decimal.Decimal `json:"loan_amount"`
	InterestRate         decimal.Decimal `json:"interest_rate"`
	InsuranceRate        decimal.Decimal `json:"insurance_rate"`
	DurationYears        int             `json:"loan_duration_years"`
	MonthlyIncome        decimal.Decimal `json:"monthly_income"`
	MonthlyCharges       decimal.Decimal `json:"monthly_charges"`
}

// SimulationOutput is fully derived from a SimulationInput and never edited
type SimulationOutput struct {
	NotaryFees            decimal.Decimal `json:"notary_fees"`
	TotalWithFees         decimal.Decimal `json:"total_with_fees"`
	PriceWithFeesAndWorks decimal.Decimal `json:"price_with_fees_and_works"`
	AmountToFinance       decimal.Decimal `json:"amount_to_finance"`
	MonthlyLoanPayment    decimal.Decimal `json:"monthly_loan_payment"`
	MonthlyInsurance      decimal.Decimal `json:"monthly_insurance"`
	MonthlyPayment        decimal.Decimal `json:"monthly_payment"` // loan + insurance
	TotalRepayment        decimal.Decimal `json:"total_repayment"`
	TotalInterest         decimal.Decimal `json:"total_interest"`
	DebtRatio             decimal.Decimal `json:"debt_ratio"` // percent of monthly income
	BorrowingCapacity     decimal.Decimal `json:"borrowing_capacity"`
}

// DefaultSimulationInput returns the parameters a new scenario starts from
func DefaultSimulationInput() SimulationInput {
	return SimulationInput{
		PropertyPrice:        decimal.NewFromInt(1000000),
		WorksAmount:          decimal.Zero,
		PersonalContribution: decimal.Zero,
		NotaryRate:           decimal.RequireFromString("7.4"),
		LoanAmount:           decimal.NewFromInt(1000000),
		InterestRate:         decimal.RequireFromString("3.5"),
		InsuranceRate:        decimal.RequireFromString("0.3"),
		DurationYears:        20,
		MonthlyIncome:        decimal.NewFromInt(8000),
		MonthlyCharges:       decimal.NewFromInt(1500),
	}
}

// Simulation is a persisted financing scenario.
// Output is a denormalized snapshot of the input, stored so it can be displayed without recomputation.
type Simulation struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Type      SimulationType
	Name      string
	Input     SimulationInput
	Output    SimulationOutput
	Notes     *string
	Selected  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate ensures the simulation can be persisted
func (s *Simulation) Validate() error {
	if s.ProjectID == uuid.Nil {
		return fmt.Errorf("%w: simulation must reference a project", ErrInvalidInput)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: simulation name cannot be empty", ErrInvalidInput)
	}
	if !s.Type.IsValid() {
		return ErrInvalidSimulationType
	}
	return nil
}
