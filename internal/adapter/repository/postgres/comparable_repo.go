package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/oryem/appraisal-backend/internal/domain"
)

const comparableColumns = `
	id, project_id, address, city, surface, price, transaction_type, transaction_date,
	latitude, longitude, validated, price_per_area, adjustment, adjusted_price_per_area`

// comparableRepository implements domain.ComparableRepository
type comparableRepository struct {
	db *DB
}

// NewComparableRepository creates a new selected comparable repository
func NewComparableRepository(db *DB) domain.ComparableRepository {
	return &comparableRepository{db: db}
}

// GetByID retrieves a comparable by its ID
func (r *comparableRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SelectedComparable, error) {
	query := `SELECT` + comparableColumns + ` FROM selected_comparables WHERE id = $1`

	c, err := scanComparable(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comparable %s not found: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get comparable by ID: %w", err)
	}

	return c, nil
}

// ListByProject retrieves the comparables of a project in selection order
func (r *comparableRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.SelectedComparable, error) {
	query := `SELECT` + comparableColumns + ` FROM selected_comparables WHERE project_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comparables: %w", err)
	}
	defer rows.Close()

	result := []*domain.SelectedComparable{}
	for rows.Next() {
		c, err := scanComparable(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comparable: %w", err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comparables: %w", err)
	}

	return result, nil
}

// CountValidated returns the number of validated comparables of a project
func (r *comparableRepository) CountValidated(ctx context.Context, projectID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM selected_comparables WHERE project_id = $1 AND validated`

	var count int
	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count validated comparables: %w", err)
	}

	return count, nil
}

// Create inserts a new comparable
func (r *comparableRepository) Create(ctx context.Context, c *domain.SelectedComparable) error {
	return insertComparable(ctx, r.db, c)
}

// execer is satisfied by *DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertComparable(ctx context.Context, db execer, c *domain.SelectedComparable) error {
	query := `
		INSERT INTO selected_comparables (` + comparableColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	lat, lng := coordinatesArgs(c.Location)
	_, err := db.ExecContext(ctx, query,
		c.ID,
		c.ProjectID,
		c.Address,
		c.City,
		c.Surface.String(),
		c.Price.String(),
		string(c.TransactionType),
		c.TransactionDate,
		lat,
		lng,
		c.Validated,
		c.PricePerArea.String(),
		c.Adjustment.String(),
		c.AdjustedPricePerArea.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to create comparable: %w", err)
	}

	return nil
}

// CreateValidated inserts a comparable inside a transaction holding a per-project advisory lock,
// so concurrent selections for the same project count and insert one at a time
func (r *comparableRepository) CreateValidated(ctx context.Context, c *domain.SelectedComparable, limit int) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, c.ProjectID.String()); err != nil {
		return fmt.Errorf("failed to lock comparable selection: %w", err)
	}

	var count int
	countQuery := `SELECT COUNT(*) FROM selected_comparables WHERE project_id = $1 AND validated`
	if err := dbTx.QueryRowContext(ctx, countQuery, c.ProjectID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count validated comparables: %w", err)
	}
	if count >= limit {
		return domain.ErrSelectionFull
	}

	if err := insertComparable(ctx, dbTx, c); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Update persists the validation state and adjustment of a comparable.
// The observed transaction itself never changes.
func (r *comparableRepository) Update(ctx context.Context, c *domain.SelectedComparable) error {
	query := `
		UPDATE selected_comparables SET
			validated = $2, adjustment = $3, adjusted_price_per_area = $4
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Validated,
		c.Adjustment.String(),
		c.AdjustedPricePerArea.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update comparable: %w", err)
	}

	return expectAffected(res, fmt.Errorf("comparable %s not found: %w", c.ID, domain.ErrNotFound))
}

// Delete removes a comparable
func (r *comparableRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM selected_comparables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comparable: %w", err)
	}

	return expectAffected(res, fmt.Errorf("comparable %s not found: %w", id, domain.ErrNotFound))
}

func coordinatesArgs(loc *domain.Coordinates) (interface{}, interface{}) {
	if loc == nil {
		return nil, nil
	}
	return loc.Latitude, loc.Longitude
}

func scanComparable(s scanner) (*domain.SelectedComparable, error) {
	var (
		c                                  domain.SelectedComparable
		transactionType                    string
		transactionDate                    sql.NullTime
		lat, lng                           sql.NullFloat64
		surface, price                     string
		pricePerArea, adjustment, adjusted string
	)

	err := s.Scan(
		&c.ID,
		&c.ProjectID,
		&c.Address,
		&c.City,
		&surface,
		&price,
		&transactionType,
		&transactionDate,
		&lat,
		&lng,
		&c.Validated,
		&pricePerArea,
		&adjustment,
		&adjusted,
	)
	if err != nil {
		return nil, err
	}
	c.TransactionType = domain.TransactionType(transactionType)

	if transactionDate.Valid {
		c.TransactionDate = &transactionDate.Time
	}
	if lat.Valid && lng.Valid {
		c.Location = &domain.Coordinates{Latitude: lat.Float64, Longitude: lng.Float64}
	}

	if c.Surface, err = parseDecimal("surface", surface); err != nil {
		return nil, err
	}
	if c.Price, err = parseDecimal("price", price); err != nil {
		return nil, err
	}
	if c.PricePerArea, err = parseDecimal("price_per_area", pricePerArea); err != nil {
		return nil, err
	}
	if c.Adjustment, err = parseDecimal("adjustment", adjustment); err != nil {
		return nil, err
	}
	if c.AdjustedPricePerArea, err = parseDecimal("adjusted_price_per_area", adjusted); err != nil {
		return nil, err
	}

	return &c, nil
}
