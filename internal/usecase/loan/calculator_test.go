package loan

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/oryem/appraisal-backend/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func baseInput() domain.SimulationInput {
	return domain.SimulationInput{
		PropertyPrice:        dec("500000"),
		WorksAmount:          dec("20000"),
		PersonalContribution: dec("50000"),
		NotaryRate:           dec("7.4"),
		LoanAmount:           dec("200000"),
		InterestRate:         dec("0"),
		InsuranceRate:        dec("0"),
		DurationYears:        20,
		MonthlyIncome:        dec("8000"),
		MonthlyCharges:       dec("1500"),
	}
}

func TestComputeSimulationOutputs_Fees(t *testing.T) {
	out := ComputeSimulationOutputs(baseInput())

	assert.True(t, out.NotaryFees.Equal(dec("37000")), "got %s", out.NotaryFees)
	assert.True(t, out.TotalWithFees.Equal(dec("537000")))
	assert.True(t, out.PriceWithFeesAndWorks.Equal(dec("557000")))
	assert.True(t, out.AmountToFinance.Equal(dec("507000")))
}

func TestComputeSimulationOutputs_ContributionAboveCost(t *testing.T) {
	in := baseInput()
	in.PersonalContribution = dec("600000")

	out := ComputeSimulationOutputs(in)
	assert.True(t, out.AmountToFinance.Equal(dec("-43000")), "negative amount means fully self-financed")
}

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		years     int
		expected  float64
	}{
		{name: "Zero rate amortizes straight-line", principal: "200000", rate: "0", years: 20, expected: 833.33},
		{name: "Standard fixed rate", principal: "200000", rate: "3.5", years: 20, expected: 1159.92},
		{name: "Thirty years at 6%", principal: "100000", rate: "6", years: 30, expected: 599.55},
		{name: "Zero duration", principal: "200000", rate: "3.5", years: 0, expected: 0},
		{name: "Negative duration", principal: "200000", rate: "0", years: -5, expected: 0},
		{name: "Zero principal", principal: "0", rate: "3.5", years: 20, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyPayment(dec(tt.principal), dec(tt.rate), tt.years)
			assert.InDelta(t, tt.expected, got.InexactFloat64(), 0.01)
		})
	}
}

func TestComputeSimulationOutputs_AmortizationSanity(t *testing.T) {
	out := ComputeSimulationOutputs(baseInput())

	assert.InDelta(t, 200000.0/240, out.MonthlyPayment.InexactFloat64(), 0.01)
	assert.InDelta(t, 833.33, out.MonthlyLoanPayment.InexactFloat64(), 0.01)
	assert.True(t, out.MonthlyInsurance.IsZero())
	assert.InDelta(t, 200000, out.TotalRepayment.InexactFloat64(), 0.01)
	assert.InDelta(t, 0, out.TotalInterest.InexactFloat64(), 0.01)
}

func TestComputeSimulationOutputs_InsuranceAddsToPayment(t *testing.T) {
	in := baseInput()
	in.InterestRate = dec("3.5")
	in.InsuranceRate = dec("0.3")

	out := ComputeSimulationOutputs(in)

	// 200000 × 0.3% / 12
	assert.True(t, out.MonthlyInsurance.Equal(dec("50")), "got %s", out.MonthlyInsurance)
	assert.InDelta(t, 1159.92, out.MonthlyLoanPayment.InexactFloat64(), 0.01)
	assert.InDelta(t, 1209.92, out.MonthlyPayment.InexactFloat64(), 0.01)
	assert.InDelta(t, 1159.92*240-200000, out.TotalInterest.InexactFloat64(), 2)
}

func TestComputeSimulationOutputs_DebtRatio(t *testing.T) {
	out := ComputeSimulationOutputs(baseInput())
	// (833.33 + 1500) / 8000
	assert.InDelta(t, 29.17, out.DebtRatio.InexactFloat64(), 0.01)

	in := baseInput()
	in.MonthlyIncome = decimal.Zero
	assert.True(t, ComputeSimulationOutputs(in).DebtRatio.IsZero())
}

func TestBorrowingCapacity(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(in *domain.SimulationInput)
		expected float64
	}{
		{
			name:     "Zero rate without insurance",
			mutate:   func(in *domain.SimulationInput) {},
			expected: 273600, // (8000 × 0.33 − 1500) × 240
		},
		{
			name:     "Zero rate with insurance",
			mutate:   func(in *domain.SimulationInput) { in.InsuranceRate = dec("0.3") },
			expected: 273600 / 1.06,
		},
		{
			name:     "Charges exceed budget",
			mutate:   func(in *domain.SimulationInput) { in.MonthlyCharges = dec("3000") },
			expected: 0,
		},
		{
			name:     "No income",
			mutate:   func(in *domain.SimulationInput) { in.MonthlyIncome = decimal.Zero },
			expected: 0,
		},
		{
			name:     "Zero duration",
			mutate:   func(in *domain.SimulationInput) { in.DurationYears = 0 },
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			tt.mutate(&in)
			assert.InDelta(t, tt.expected, BorrowingCapacity(in).InexactFloat64(), 0.01)
		})
	}
}

func TestBorrowingCapacity_PaymentMatchesBudget(t *testing.T) {
	// Borrowing exactly the capacity must consume exactly the affordability budget
	in := baseInput()
	in.InterestRate = dec("3.5")
	in.InsuranceRate = dec("0.36")
	in.DurationYears = 25

	capacity := BorrowingCapacity(in)
	payment := MonthlyPayment(capacity, in.InterestRate, in.DurationYears).
		Add(MonthlyInsurance(capacity, in.InsuranceRate))

	budget := in.MonthlyIncome.Mul(AffordabilityThreshold).Sub(in.MonthlyCharges)
	assert.InDelta(t, budget.InexactFloat64(), payment.InexactFloat64(), 0.01)
}

func TestComputeSimulationOutputs_Idempotent(t *testing.T) {
	in := domain.DefaultSimulationInput()
	assert.Equal(t, ComputeSimulationOutputs(in), ComputeSimulationOutputs(in))
}
