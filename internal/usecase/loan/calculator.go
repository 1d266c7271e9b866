// Package loan computes the financing figures of a simulation: fees, fixed-rate
// amortization, insurance and borrowing capacity.
package loan

import (
	"github.com/shopspring/decimal"

	"github.com/oryem/appraisal-backend/internal/domain"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)

	// AffordabilityThreshold is the maximum share of monthly income that loan payments plus charges may take
	AffordabilityThreshold = decimal.RequireFromString("0.33")
)

// ComputeSimulationOutputs derives every output of a financing scenario.
// Nothing is validated: absurd inputs produce arithmetically consistent outputs,
// and an amount to finance below zero means the purchase is fully self-financed.
func ComputeSimulationOutputs(in domain.SimulationInput) domain.SimulationOutput {
	notaryFees := in.PropertyPrice.Mul(in.NotaryRate).Div(hundred)
	totalWithFees := in.PropertyPrice.Add(notaryFees)
	priceWithFeesAndWorks := totalWithFees.Add(in.WorksAmount)

	loanPayment := MonthlyPayment(in.LoanAmount, in.InterestRate, in.DurationYears)
	insurance := MonthlyInsurance(in.LoanAmount, in.InsuranceRate)
	payment := loanPayment.Add(insurance)

	out := domain.SimulationOutput{
		NotaryFees:            notaryFees,
		TotalWithFees:         totalWithFees,
		PriceWithFeesAndWorks: priceWithFeesAndWorks,
		AmountToFinance:       priceWithFeesAndWorks.Sub(in.PersonalContribution),
		MonthlyLoanPayment:    loanPayment,
		MonthlyInsurance:      insurance,
		MonthlyPayment:        payment,
		TotalRepayment:        decimal.Zero,
		TotalInterest:         decimal.Zero,
		DebtRatio:             decimal.Zero,
		BorrowingCapacity:     BorrowingCapacity(in),
	}

	if n := numPayments(in.DurationYears); n > 0 {
		count := decimal.NewFromInt(n)
		out.TotalRepayment = payment.Mul(count)
		out.TotalInterest = loanPayment.Mul(count).Sub(in.LoanAmount)
	}

	if !in.MonthlyIncome.IsZero() {
		out.DebtRatio = payment.Add(in.MonthlyCharges).Div(in.MonthlyIncome).Mul(hundred)
	}

	return out
}

// MonthlyPayment computes the fixed-rate amortization payment, insurance excluded.
//
// FORMULA: payment = P × r × (1+r)^n / ((1+r)^n − 1), with r = annualRate/100/12 and n = years × 12
//
// A zero rate amortizes straight-line (P / n). A non-positive duration yields 0.
func MonthlyPayment(principal, annualRatePct decimal.Decimal, years int) decimal.Decimal {
	n := numPayments(years)
	if n <= 0 {
		return decimal.Zero
	}

	r := monthlyRate(annualRatePct)
	if r.IsZero() {
		return principal.Div(decimal.NewFromInt(n))
	}

	growth := one.Add(r).Pow(decimal.NewFromInt(n))
	denominator := growth.Sub(one)
	if denominator.IsZero() {
		return decimal.Zero
	}
	return principal.Mul(r).Mul(growth).Div(denominator)
}

// MonthlyInsurance computes the monthly borrower insurance premium.
//
// FORMULA: premium = P × (insuranceRate / 100) / 12
func MonthlyInsurance(principal, insuranceRatePct decimal.Decimal) decimal.Decimal {
	return principal.Mul(insuranceRatePct.Div(hundred)).Div(twelve)
}

// BorrowingCapacity computes the largest loan whose payment plus insurance fits the affordability budget.
//
// The budget is monthlyIncome × 0.33 − monthlyCharges. Inverting the amortization formula with the
// insurance premium charged on the same principal gives:
//
//	capacity = budget × A / (1 + i × A)
//
// where A is the annuity factor ((1+r)^n − 1) / (r × (1+r)^n), or n when r is 0, and i the monthly insurance rate.
// The result is floored at 0.
func BorrowingCapacity(in domain.SimulationInput) decimal.Decimal {
	budget := in.MonthlyIncome.Mul(AffordabilityThreshold).Sub(in.MonthlyCharges)
	if budget.Sign() <= 0 {
		return decimal.Zero
	}

	factor := annuityFactor(monthlyRate(in.InterestRate), numPayments(in.DurationYears))
	if factor.Sign() <= 0 {
		return decimal.Zero
	}

	insuranceRate := in.InsuranceRate.Div(hundred).Div(twelve)
	denominator := one.Add(insuranceRate.Mul(factor))
	if denominator.Sign() <= 0 {
		return decimal.Zero
	}

	capacity := budget.Mul(factor).Div(denominator)
	if capacity.Sign() < 0 {
		return decimal.Zero
	}
	return capacity
}

// annuityFactor is the present value of 1 paid monthly for n months at rate r
func annuityFactor(r decimal.Decimal, n int64) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	if r.IsZero() {
		return decimal.NewFromInt(n)
	}

	growth := one.Add(r).Pow(decimal.NewFromInt(n))
	denominator := r.Mul(growth)
	if denominator.IsZero() {
		return decimal.Zero
	}
	return growth.Sub(one).Div(denominator)
}

func monthlyRate(annualRatePct decimal.Decimal) decimal.Decimal {
	return annualRatePct.Div(hundred).Div(twelve)
}

func numPayments(years int) int64 {
	return int64(years) * 12
}
