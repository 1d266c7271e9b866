package simulation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oryem/appraisal-backend/internal/domain"
	"github.com/oryem/appraisal-backend/internal/usecase/loan"
)

// CreateSimulationInput represents the input for creating a financing scenario.
// A nil Input starts from the default parameters.
type CreateSimulationInput struct {
	ProjectID uuid.UUID
	Type      domain.SimulationType
	Name      string
	Input     *domain.SimulationInput
	Notes     *string
}

// UpdateSimulationInput represents a partial update; nil fields are left untouched
type UpdateSimulationInput struct {
	Name     *string
	Type     *domain.SimulationType
	Input    *domain.SimulationInput
	Notes    *string
	Selected *bool
}

// SimulationService handles the lifecycle of financing scenarios
type SimulationService struct {
	SimulationRepo domain.SimulationRepository

	now func() time.Time
}

// NewSimulationService creates a new SimulationService instance
func NewSimulationService(simulationRepo domain.SimulationRepository) *SimulationService {
	return &SimulationService{
		SimulationRepo: simulationRepo,
		now:            time.Now,
	}
}

// CreateSimulation stores a new scenario together with the snapshot of its outputs
func (s *SimulationService) CreateSimulation(ctx context.Context, input CreateSimulationInput) (*domain.Simulation, error) {
	params := domain.DefaultSimulationInput()
	if input.Input != nil {
		params = *input.Input
	}

	now := s.now()
	sim := &domain.Simulation{
		ID:        uuid.New(),
		ProjectID: input.ProjectID,
		Type:      input.Type,
		Name:      input.Name,
		Input:     params,
		Output:    loan.ComputeSimulationOutputs(params),
		Notes:     input.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := sim.Validate(); err != nil {
		return nil, err
	}

	if err := s.SimulationRepo.Create(ctx, sim); err != nil {
		return nil, err
	}

	return sim, nil
}

// UpdateSimulation applies a partial update
// Logic:
//  1. Fetch the stored scenario
//  2. Apply every non-nil field
//  3. Recompute the output snapshot when the input changed
//  4. Validate and persist
func (s *SimulationService) UpdateSimulation(ctx context.Context, id uuid.UUID, input UpdateSimulationInput) (*domain.Simulation, error) {
	sim, err := s.SimulationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		sim.Name = *input.Name
	}
	if input.Type != nil {
		sim.Type = *input.Type
	}
	if input.Notes != nil {
		sim.Notes = input.Notes
	}
	if input.Selected != nil {
		sim.Selected = *input.Selected
	}
	if input.Input != nil {
		sim.Input = *input.Input
		sim.Output = loan.ComputeSimulationOutputs(sim.Input)
	}

	if err := sim.Validate(); err != nil {
		return nil, err
	}

	sim.UpdatedAt = s.now()
	if err := s.SimulationRepo.Update(ctx, sim); err != nil {
		return nil, err
	}

	return sim, nil
}

// ListSimulations returns the scenarios of a project, oldest first
func (s *SimulationService) ListSimulations(ctx context.Context, projectID uuid.UUID) ([]*domain.Simulation, error) {
	return s.SimulationRepo.ListByProject(ctx, projectID)
}

// DeleteSimulation removes a scenario
func (s *SimulationService) DeleteSimulation(ctx context.Context, id uuid.UUID) error {
	if _, err := s.SimulationRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.SimulationRepo.Delete(ctx, id)
}
