package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oryem/appraisal-backend/internal/domain"
	"github.com/oryem/appraisal-backend/internal/usecase/breakdown"
	"github.com/oryem/appraisal-backend/internal/usecase/capitalization"
	"github.com/oryem/appraisal-backend/internal/usecase/synthesis"
)

// EstimationInput represents the editable market parameters of a project.
// A null cap rate keeps the stored value.
type EstimationInput struct {
	SalePriceLow    decimal.NullDecimal
	SalePriceHigh   decimal.NullDecimal
	SalePriceCustom decimal.NullDecimal
	SaleCapRate     decimal.NullDecimal

	RentLow     decimal.NullDecimal
	RentHigh    decimal.NullDecimal
	RentCustom  decimal.NullDecimal
	RentCapRate decimal.NullDecimal
}

// AnalysisResult is the full valuation view of a project
type AnalysisResult struct {
	Rows          []*domain.BreakdownRow
	Totals        domain.SynthesisTotals
	Estimation    *domain.MarketEstimation
	RentFromSale  decimal.Decimal
	PriceFromRent domain.PriceFromRent
}

// AnalysisService persists breakdown rows and market estimations, running the engine on every change
type AnalysisService struct {
	BreakdownRepo  domain.BreakdownRepository
	EstimationRepo domain.EstimationRepository
	Exporter       domain.SynthesisWriter
}

// NewAnalysisService creates a new AnalysisService instance
func NewAnalysisService(
	breakdownRepo domain.BreakdownRepository,
	estimationRepo domain.EstimationRepository,
	exporter domain.SynthesisWriter,
) *AnalysisService {
	return &AnalysisService{
		BreakdownRepo:  breakdownRepo,
		EstimationRepo: estimationRepo,
		Exporter:       exporter,
	}
}

// AddBreakdown appends a new empty row to the project's breakdown
func (s *AnalysisService) AddBreakdown(ctx context.Context, projectID uuid.UUID, localType domain.LocalType) (*domain.BreakdownRow, error) {
	rows, err := s.BreakdownRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breakdown rows: %w", err)
	}

	row := domain.NewBreakdownRow(projectID, localType, len(rows))
	if err := row.Validate(); err != nil {
		return nil, err
	}

	if err := s.BreakdownRepo.Create(ctx, &row); err != nil {
		return nil, err
	}

	return &row, nil
}

// EditBreakdown applies a single field edit to a row
// Logic:
//  1. Reject fields that are neither inputs nor derived values
//  2. Recompute the row through the breakdown calculator
//  3. Persist the recomputed row
func (s *AnalysisService) EditBreakdown(ctx context.Context, rowID uuid.UUID, field domain.BreakdownField, value decimal.NullDecimal) (*domain.BreakdownRow, error) {
	if !field.IsInput() && !field.IsDerived() {
		return nil, domain.ErrInvalidField
	}

	row, err := s.BreakdownRepo.GetByID(ctx, rowID)
	if err != nil {
		return nil, err
	}

	updated := breakdown.RecomputeRow(*row, field, value)
	if err := s.BreakdownRepo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// SetLocalType changes the use category of a row
func (s *AnalysisService) SetLocalType(ctx context.Context, rowID uuid.UUID, localType domain.LocalType) (*domain.BreakdownRow, error) {
	row, err := s.BreakdownRepo.GetByID(ctx, rowID)
	if err != nil {
		return nil, err
	}

	row.LocalType = localType
	if err := row.Validate(); err != nil {
		return nil, err
	}

	if err := s.BreakdownRepo.Update(ctx, row); err != nil {
		return nil, err
	}

	return row, nil
}

// RemoveBreakdown deletes a row and closes the gap it leaves in the ordering
func (s *AnalysisService) RemoveBreakdown(ctx context.Context, rowID uuid.UUID) error {
	row, err := s.BreakdownRepo.GetByID(ctx, rowID)
	if err != nil {
		return err
	}

	if err := s.BreakdownRepo.Delete(ctx, rowID); err != nil {
		return err
	}

	remaining, err := s.BreakdownRepo.ListByProject(ctx, row.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to list breakdown rows: %w", err)
	}

	return s.renumber(ctx, remaining)
}

// ReorderBreakdowns rewrites the row order of a project from an explicit ID sequence.
// The sequence must name every row of the project exactly once.
func (s *AnalysisService) ReorderBreakdowns(ctx context.Context, projectID uuid.UUID, rowIDs []uuid.UUID) ([]*domain.BreakdownRow, error) {
	rows, err := s.BreakdownRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breakdown rows: %w", err)
	}

	if len(rowIDs) != len(rows) {
		return nil, fmt.Errorf("%w: expected %d row ids, got %d", domain.ErrInvalidInput, len(rows), len(rowIDs))
	}

	byID := make(map[uuid.UUID]*domain.BreakdownRow, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	ordered := make([]*domain.BreakdownRow, 0, len(rowIDs))
	for _, id := range rowIDs {
		row, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: row %s is missing or listed twice", domain.ErrInvalidInput, id)
		}
		delete(byID, id)
		ordered = append(ordered, row)
	}

	if err := s.renumber(ctx, ordered); err != nil {
		return nil, err
	}

	return ordered, nil
}

// ListBreakdowns returns the rows of a project in display order
func (s *AnalysisService) ListBreakdowns(ctx context.Context, projectID uuid.UUID) ([]*domain.BreakdownRow, error) {
	return s.BreakdownRepo.ListByProject(ctx, projectID)
}

// GetEstimation returns the project's market estimation, creating the default one on first access
func (s *AnalysisService) GetEstimation(ctx context.Context, projectID uuid.UUID) (*domain.MarketEstimation, error) {
	estimation, err := s.EstimationRepo.GetByProject(ctx, projectID)
	if err == nil {
		return estimation, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	created := domain.NewMarketEstimation(projectID)
	if err := s.EstimationRepo.Save(ctx, &created); err != nil {
		return nil, fmt.Errorf("failed to create default estimation: %w", err)
	}

	return &created, nil
}

// SaveEstimation replaces the market parameters of a project
func (s *AnalysisService) SaveEstimation(ctx context.Context, projectID uuid.UUID, input EstimationInput) (*domain.MarketEstimation, error) {
	estimation, err := s.GetEstimation(ctx, projectID)
	if err != nil {
		return nil, err
	}

	estimation.SalePriceLow = input.SalePriceLow
	estimation.SalePriceHigh = input.SalePriceHigh
	estimation.SalePriceCustom = input.SalePriceCustom
	estimation.RentLow = input.RentLow
	estimation.RentHigh = input.RentHigh
	estimation.RentCustom = input.RentCustom

	if input.SaleCapRate.Valid {
		estimation.SaleCapRate = input.SaleCapRate.Decimal
	}
	if input.RentCapRate.Valid {
		estimation.RentCapRate = input.RentCapRate.Decimal
	}

	if err := s.EstimationRepo.Save(ctx, estimation); err != nil {
		return nil, err
	}

	return estimation, nil
}

// GetAnalysis assembles the valuation view of a project
// Logic:
//   - Totals: synthesis of the rows
//   - RentFromSale: effective sale price capitalized at the sale cap rate
//   - PriceFromRent: effective rent capitalized at the rent cap rate, over the total surface
func (s *AnalysisService) GetAnalysis(ctx context.Context, projectID uuid.UUID) (*AnalysisResult, error) {
	rows, err := s.BreakdownRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breakdown rows: %w", err)
	}

	estimation, err := s.GetEstimation(ctx, projectID)
	if err != nil {
		return nil, err
	}

	totals := synthesis.ComputeTotalsOf(rows)

	return &AnalysisResult{
		Rows:          rows,
		Totals:        totals,
		Estimation:    estimation,
		RentFromSale:  capitalization.EstimateRentFromSale(*estimation),
		PriceFromRent: capitalization.EstimatePriceFromRent(*estimation, totals.TotalSurface),
	}, nil
}

// ExportSynthesis renders the synthesis table of a project with the configured writer
func (s *AnalysisService) ExportSynthesis(ctx context.Context, projectID uuid.UUID) ([]byte, error) {
	if s.Exporter == nil {
		return nil, errors.New("synthesis export is not configured")
	}

	rows, err := s.BreakdownRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breakdown rows: %w", err)
	}

	var buf bytes.Buffer
	if err := s.Exporter.WriteSynthesis(&buf, rows, synthesis.ComputeTotalsOf(rows)); err != nil {
		return nil, fmt.Errorf("failed to export synthesis: %w", err)
	}

	return buf.Bytes(), nil
}

// renumber assigns consecutive orders following the slice order.
// Only the rows that moved are written, all in one repository call.
func (s *AnalysisService) renumber(ctx context.Context, rows []*domain.BreakdownRow) error {
	orders := make(map[uuid.UUID]int)
	for i, row := range rows {
		if row.Order != i {
			orders[row.ID] = i
		}
	}
	if len(orders) == 0 {
		return nil
	}

	if err := s.BreakdownRepo.UpdateOrders(ctx, orders); err != nil {
		return fmt.Errorf("failed to reorder breakdown rows: %w", err)
	}

	for i, row := range rows {
		row.Order = i
	}
	return nil
}
