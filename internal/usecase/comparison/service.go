package comparison

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oryem/appraisal-backend/internal/domain"
	"github.com/oryem/appraisal-backend/internal/usecase/comparable"
)

// SelectComparableInput represents a reference transaction to retain for a project.
// When PricePerArea is null it is derived from Price and Surface.
type SelectComparableInput struct {
	ProjectID       uuid.UUID
	Address         string
	City            string
	Surface         decimal.Decimal
	Price           decimal.Decimal
	PricePerArea    decimal.NullDecimal
	TransactionType domain.TransactionType
	TransactionDate *time.Time
	Location        *domain.Coordinates
	Adjustment      decimal.Decimal
}

// ComparisonItem is a selected comparable as seen from the subject property
type ComparisonItem struct {
	Comparable *domain.SelectedComparable
	DistanceKm decimal.NullDecimal
}

// ComparisonResult is the comparison view of a project
type ComparisonResult struct {
	Items []ComparisonItem
	Stats domain.PriceStats
}

// ComparisonService manages the comparables retained for a project
type ComparisonService struct {
	ComparableRepo domain.ComparableRepository
}

// NewComparisonService creates a new ComparisonService instance
func NewComparisonService(comparableRepo domain.ComparableRepository) *ComparisonService {
	return &ComparisonService{
		ComparableRepo: comparableRepo,
	}
}

// SelectComparable retains a reference transaction as a validated comparable
// Logic:
//  1. Derive the unit price when it is not given
//  2. Apply the adjustment
//  3. Persist, refused with ErrSelectionFull when the project already holds MaxValidatedComparables
//     validated comparables; the repository checks the limit and inserts in one step
func (s *ComparisonService) SelectComparable(ctx context.Context, input SelectComparableInput) (*domain.SelectedComparable, error) {
	pricePerArea := input.PricePerArea.Decimal
	if !input.PricePerArea.Valid {
		pricePerArea = comparable.PricePerArea(input.Price, input.Surface)
	}

	selected := comparable.Adjust(domain.SelectedComparable{
		ID:              uuid.New(),
		ProjectID:       input.ProjectID,
		Address:         input.Address,
		City:            input.City,
		Surface:         input.Surface,
		Price:           input.Price,
		TransactionType: input.TransactionType,
		TransactionDate: input.TransactionDate,
		Location:        input.Location,
		Validated:       true,
		PricePerArea:    pricePerArea,
		Adjustment:      input.Adjustment,
	})

	if err := selected.Validate(); err != nil {
		return nil, err
	}

	if err := s.ComparableRepo.CreateValidated(ctx, &selected, domain.MaxValidatedComparables); err != nil {
		return nil, err
	}

	return &selected, nil
}

// SetAdjustment changes the adjustment of a comparable and re-derives its adjusted unit price
func (s *ComparisonService) SetAdjustment(ctx context.Context, id uuid.UUID, adjustmentPct decimal.Decimal) (*domain.SelectedComparable, error) {
	c, err := s.ComparableRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Adjustment = adjustmentPct
	adjusted := comparable.Adjust(*c)

	if err := s.ComparableRepo.Update(ctx, &adjusted); err != nil {
		return nil, err
	}

	return &adjusted, nil
}

// RemoveComparable drops a comparable from the project's selection
func (s *ComparisonService) RemoveComparable(ctx context.Context, id uuid.UUID) error {
	if _, err := s.ComparableRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.ComparableRepo.Delete(ctx, id)
}

// GetComparison lists the comparables of a project with their distance to subject and price statistics.
// subject may be nil when the property has not been located.
func (s *ComparisonService) GetComparison(ctx context.Context, projectID uuid.UUID, subject *domain.Coordinates) (*ComparisonResult, error) {
	comps, err := s.ComparableRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comparables: %w", err)
	}

	items := make([]ComparisonItem, 0, len(comps))
	for _, c := range comps {
		item := ComparisonItem{Comparable: c}
		if km, ok := comparable.DistanceFrom(subject, c); ok {
			item.DistanceKm = decimal.NewNullDecimal(km)
		}
		items = append(items, item)
	}

	return &ComparisonResult{
		Items: items,
		Stats: comparable.ComputePriceStats(comps),
	}, nil
}
