package domain

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// BreakdownRepository defines the interface for breakdown row persistence operations
type BreakdownRepository interface {
	// GetByID retrieves a row by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*BreakdownRow, error)

	// ListByProject retrieves the rows of a project ordered by their Order index
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*BreakdownRow, error)

	Create(ctx context.Context, row *BreakdownRow) error
	Update(ctx context.Context, row *BreakdownRow) error

	// UpdateOrders sets the Order of several rows at once, keyed by row ID.
	// Either every order is written or none is.
	UpdateOrders(ctx context.Context, orders map[uuid.UUID]int) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// EstimationRepository defines the interface for market estimation persistence operations
type EstimationRepository interface {
	// GetByProject retrieves the estimation of a project, ErrNotFound if none was saved yet
	GetByProject(ctx context.Context, projectID uuid.UUID) (*MarketEstimation, error)

	// Save creates or replaces the estimation of its project
	Save(ctx context.Context, estimation *MarketEstimation) error
}

// SimulationRepository defines the interface for simulation persistence operations
type SimulationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Simulation, error)

	// ListByProject retrieves the simulations of a project, oldest first
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Simulation, error)

	Create(ctx context.Context, sim *Simulation) error
	Update(ctx context.Context, sim *Simulation) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ComparableRepository defines the interface for selected comparable persistence operations
type ComparableRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*SelectedComparable, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*SelectedComparable, error)

	// CountValidated returns the number of validated comparables of a project
	CountValidated(ctx context.Context, projectID uuid.UUID) (int, error)

	Create(ctx context.Context, c *SelectedComparable) error

	// CreateValidated inserts c unless its project already holds limit validated comparables,
	// in which case it returns ErrSelectionFull. The count and the insert happen atomically.
	CreateValidated(ctx context.Context, c *SelectedComparable, limit int) error

	Update(ctx context.Context, c *SelectedComparable) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SynthesisWriter renders a synthesis table (rows followed by their totals) to w
type SynthesisWriter interface {
	WriteSynthesis(w io.Writer, rows []*BreakdownRow, totals SynthesisTotals) error
}
