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

const breakdownColumns = `
	id, project_id, local_type, sort_order,
	surface, price_per_area, rent_per_area,
	venal_value, rental_value_annual, rental_value_monthly,
	venal_override, rental_annual_override, rental_monthly_override`

// breakdownRepository implements domain.BreakdownRepository
type breakdownRepository struct {
	db *DB
}

// NewBreakdownRepository creates a new breakdown row repository
func NewBreakdownRepository(db *DB) domain.BreakdownRepository {
	return &breakdownRepository{db: db}
}

// GetByID retrieves a row by its ID
func (r *breakdownRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BreakdownRow, error) {
	query := `SELECT` + breakdownColumns + ` FROM breakdown_rows WHERE id = $1`

	row, err := scanBreakdownRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("breakdown row %s not found: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get breakdown row by ID: %w", err)
	}

	return row, nil
}

// ListByProject retrieves the rows of a project ordered by their sort order
func (r *breakdownRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.BreakdownRow, error) {
	query := `SELECT` + breakdownColumns + ` FROM breakdown_rows WHERE project_id = $1 ORDER BY sort_order, id`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breakdown rows: %w", err)
	}
	defer rows.Close()

	result := []*domain.BreakdownRow{}
	for rows.Next() {
		row, err := scanBreakdownRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan breakdown row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating breakdown rows: %w", err)
	}

	return result, nil
}

// Create inserts a new row
func (r *breakdownRepository) Create(ctx context.Context, row *domain.BreakdownRow) error {
	query := `
		INSERT INTO breakdown_rows (` + breakdownColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		row.ID,
		row.ProjectID,
		string(row.LocalType),
		row.Order,
		nullDecimalArg(row.Surface),
		nullDecimalArg(row.PricePerArea),
		nullDecimalArg(row.RentPerArea),
		nullDecimalArg(row.VenalValue),
		nullDecimalArg(row.RentalValueAnnual),
		nullDecimalArg(row.RentalValueMonthly),
		row.VenalOverride,
		row.RentalAnnualOverride,
		row.RentalMonthlyOverride,
	)
	if err != nil {
		return fmt.Errorf("failed to create breakdown row: %w", err)
	}

	return nil
}

// Update replaces every mutable column of a row
func (r *breakdownRepository) Update(ctx context.Context, row *domain.BreakdownRow) error {
	query := `
		UPDATE breakdown_rows SET
			local_type = $2, sort_order = $3,
			surface = $4, price_per_area = $5, rent_per_area = $6,
			venal_value = $7, rental_value_annual = $8, rental_value_monthly = $9,
			venal_override = $10, rental_annual_override = $11, rental_monthly_override = $12
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		row.ID,
		string(row.LocalType),
		row.Order,
		nullDecimalArg(row.Surface),
		nullDecimalArg(row.PricePerArea),
		nullDecimalArg(row.RentPerArea),
		nullDecimalArg(row.VenalValue),
		nullDecimalArg(row.RentalValueAnnual),
		nullDecimalArg(row.RentalValueMonthly),
		row.VenalOverride,
		row.RentalAnnualOverride,
		row.RentalMonthlyOverride,
	)
	if err != nil {
		return fmt.Errorf("failed to update breakdown row: %w", err)
	}

	return expectAffected(res, fmt.Errorf("breakdown row %s not found: %w", row.ID, domain.ErrNotFound))
}

// UpdateOrders sets the sort order of several rows in one transaction
func (r *breakdownRepository) UpdateOrders(ctx context.Context, orders map[uuid.UUID]int) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	for id, order := range orders {
		res, err := dbTx.ExecContext(ctx, `UPDATE breakdown_rows SET sort_order = $2 WHERE id = $1`, id, order)
		if err != nil {
			return fmt.Errorf("failed to update order of breakdown row %s: %w", id, err)
		}
		if err := expectAffected(res, fmt.Errorf("breakdown row %s not found: %w", id, domain.ErrNotFound)); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete removes a row
func (r *breakdownRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM breakdown_rows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete breakdown row: %w", err)
	}

	return expectAffected(res, fmt.Errorf("breakdown row %s not found: %w", id, domain.ErrNotFound))
}

func scanBreakdownRow(s scanner) (*domain.BreakdownRow, error) {
	var (
		row                    domain.BreakdownRow
		localType              string
		surface, price, rent   sql.NullString
		venal, annual, monthly sql.NullString
	)

	err := s.Scan(
		&row.ID,
		&row.ProjectID,
		&localType,
		&row.Order,
		&surface,
		&price,
		&rent,
		&venal,
		&annual,
		&monthly,
		&row.VenalOverride,
		&row.RentalAnnualOverride,
		&row.RentalMonthlyOverride,
	)
	if err != nil {
		return nil, err
	}
	row.LocalType = domain.LocalType(localType)

	// Parse the NUMERIC columns (nullable)
	targets := []struct {
		column string
		src    sql.NullString
		dst    *decimal.NullDecimal
	}{
		{"surface", surface, &row.Surface},
		{"price_per_area", price, &row.PricePerArea},
		{"rent_per_area", rent, &row.RentPerArea},
		{"venal_value", venal, &row.VenalValue},
		{"rental_value_annual", annual, &row.RentalValueAnnual},
		{"rental_value_monthly", monthly, &row.RentalValueMonthly},
	}
	for _, t := range targets {
		v, err := parseNullDecimal(t.column, t.src)
		if err != nil {
			return nil, err
		}
		*t.dst = v
	}

	return &row, nil
}
