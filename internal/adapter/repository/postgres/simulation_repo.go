package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/oryem/appraisal-backend/internal/domain"
)

const simulationColumns = `id, project_id, sim_type, name, input_data, output_data, notes, selected, created_at, updated_at`

// simulationRepository implements domain.SimulationRepository
// Input and output are stored as JSONB documents.
type simulationRepository struct {
	db *DB
}

// NewSimulationRepository creates a new simulation repository
func NewSimulationRepository(db *DB) domain.SimulationRepository {
	return &simulationRepository{db: db}
}

// GetByID retrieves a simulation by its ID
func (r *simulationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Simulation, error) {
	query := `SELECT ` + simulationColumns + ` FROM simulations WHERE id = $1`

	sim, err := scanSimulation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("simulation %s not found: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get simulation by ID: %w", err)
	}

	return sim, nil
}

// ListByProject retrieves the simulations of a project, oldest first
func (r *simulationRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Simulation, error) {
	query := `SELECT ` + simulationColumns + ` FROM simulations WHERE project_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list simulations: %w", err)
	}
	defer rows.Close()

	result := []*domain.Simulation{}
	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan simulation: %w", err)
		}
		result = append(result, sim)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating simulations: %w", err)
	}

	return result, nil
}

// Create inserts a new simulation
func (r *simulationRepository) Create(ctx context.Context, sim *domain.Simulation) error {
	input, output, err := marshalSimulationData(sim)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO simulations (` + simulationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		sim.ID,
		sim.ProjectID,
		string(sim.Type),
		sim.Name,
		input,
		output,
		sim.Notes,
		sim.Selected,
		sim.CreatedAt,
		sim.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create simulation: %w", err)
	}

	return nil
}

// Update replaces every mutable column of a simulation
func (r *simulationRepository) Update(ctx context.Context, sim *domain.Simulation) error {
	input, output, err := marshalSimulationData(sim)
	if err != nil {
		return err
	}

	query := `
		UPDATE simulations SET
			sim_type = $2, name = $3, input_data = $4, output_data = $5,
			notes = $6, selected = $7, updated_at = $8
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		sim.ID,
		string(sim.Type),
		sim.Name,
		input,
		output,
		sim.Notes,
		sim.Selected,
		sim.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update simulation: %w", err)
	}

	return expectAffected(res, fmt.Errorf("simulation %s not found: %w", sim.ID, domain.ErrNotFound))
}

// Delete removes a simulation
func (r *simulationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM simulations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete simulation: %w", err)
	}

	return expectAffected(res, fmt.Errorf("simulation %s not found: %w", id, domain.ErrNotFound))
}

func marshalSimulationData(sim *domain.Simulation) ([]byte, []byte, error) {
	input, err := json.Marshal(sim.Input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode simulation input: %w", err)
	}
	output, err := json.Marshal(sim.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode simulation output: %w", err)
	}
	return input, output, nil
}

func scanSimulation(s scanner) (*domain.Simulation, error) {
	var (
		sim           domain.Simulation
		simType       string
		input, output []byte
		notes         sql.NullString
	)

	err := s.Scan(
		&sim.ID,
		&sim.ProjectID,
		&simType,
		&sim.Name,
		&input,
		&output,
		&notes,
		&sim.Selected,
		&sim.CreatedAt,
		&sim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sim.Type = domain.SimulationType(simType)

	if notes.Valid {
		sim.Notes = &notes.String
	}

	if err := json.Unmarshal(input, &sim.Input); err != nil {
		return nil, fmt.Errorf("failed to decode simulation input: %w", err)
	}
	if err := json.Unmarshal(output, &sim.Output); err != nil {
		return nil, fmt.Errorf("failed to decode simulation output: %w", err)
	}

	return &sim, nil
}
