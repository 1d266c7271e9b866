package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oryem/appraisal-backend/internal/domain"
)

// estimationRepository implements domain.EstimationRepository
type estimationRepository struct {
	db *DB
}

// NewEstimationRepository creates a new market estimation repository
func NewEstimationRepository(db *DB) domain.EstimationRepository {
	return &estimationRepository{db: db}
}

// GetByProject retrieves the estimation of a project
func (r *estimationRepository) GetByProject(ctx context.Context, projectID uuid.UUID) (*domain.MarketEstimation, error) {
	query := `
		SELECT id, project_id,
			sale_price_low, sale_price_high, sale_price_custom, sale_cap_rate,
			rent_low, rent_high, rent_custom, rent_cap_rate
		FROM market_estimations
		WHERE project_id = $1
	`

	var (
		e                              domain.MarketEstimation
		saleLow, saleHigh, saleCustom  sql.NullString
		rentLow, rentHigh, rentCustom  sql.NullString
		saleCapRateStr, rentCapRateStr string
	)

	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&e.ID,
		&e.ProjectID,
		&saleLow,
		&saleHigh,
		&saleCustom,
		&saleCapRateStr,
		&rentLow,
		&rentHigh,
		&rentCustom,
		&rentCapRateStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("estimation for project %s not found: %w", projectID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get estimation: %w", err)
	}

	nullable := []struct {
		column string
		src    sql.NullString
		dst    *decimal.NullDecimal
	}{
		{"sale_price_low", saleLow, &e.SalePriceLow},
		{"sale_price_high", saleHigh, &e.SalePriceHigh},
		{"sale_price_custom", saleCustom, &e.SalePriceCustom},
		{"rent_low", rentLow, &e.RentLow},
		{"rent_high", rentHigh, &e.RentHigh},
		{"rent_custom", rentCustom, &e.RentCustom},
	}
	for _, n := range nullable {
		v, err := parseNullDecimal(n.column, n.src)
		if err != nil {
			return nil, err
		}
		*n.dst = v
	}

	if e.SaleCapRate, err = parseDecimal("sale_cap_rate", saleCapRateStr); err != nil {
		return nil, err
	}
	if e.RentCapRate, err = parseDecimal("rent_cap_rate", rentCapRateStr); err != nil {
		return nil, err
	}

	return &e, nil
}

// Save inserts the estimation or replaces the one already stored for its project
func (r *estimationRepository) Save(ctx context.Context, e *domain.MarketEstimation) error {
	query := `
		INSERT INTO market_estimations (
			id, project_id,
			sale_price_low, sale_price_high, sale_price_custom, sale_cap_rate,
			rent_low, rent_high, rent_custom, rent_cap_rate
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (project_id) DO UPDATE SET
			sale_price_low = EXCLUDED.sale_price_low,
			sale_price_high = EXCLUDED.sale_price_high,
			sale_price_custom = EXCLUDED.sale_price_custom,
			sale_cap_rate = EXCLUDED.sale_cap_rate,
			rent_low = EXCLUDED.rent_low,
			rent_high = EXCLUDED.rent_high,
			rent_custom = EXCLUDED.rent_custom,
			rent_cap_rate = EXCLUDED.rent_cap_rate
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.ProjectID,
		nullDecimalArg(e.SalePriceLow),
		nullDecimalArg(e.SalePriceHigh),
		nullDecimalArg(e.SalePriceCustom),
		e.SaleCapRate.String(),
		nullDecimalArg(e.RentLow),
		nullDecimalArg(e.RentHigh),
		nullDecimalArg(e.RentCustom),
		e.RentCapRate.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save estimation: %w", err)
	}

	return nil
}
