// Package memory implements the domain repositories on in-process maps.
// Records are copied on the way in and out so callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/oryem/appraisal-backend/internal/domain"
)

// Store holds every collection behind a single lock
type Store struct {
	mu          sync.RWMutex
	breakdowns  map[uuid.UUID]domain.BreakdownRow
	estimations map[uuid.UUID]domain.MarketEstimation // keyed by project
	simulations map[uuid.UUID]domain.Simulation
	comparables map[uuid.UUID]domain.SelectedComparable
	seq         map[uuid.UUID]uint64 // insertion order of comparables
	next        uint64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		breakdowns:  make(map[uuid.UUID]domain.BreakdownRow),
		estimations: make(map[uuid.UUID]domain.MarketEstimation),
		simulations: make(map[uuid.UUID]domain.Simulation),
		comparables: make(map[uuid.UUID]domain.SelectedComparable),
		seq:         make(map[uuid.UUID]uint64),
	}
}

func notFound(kind string, id uuid.UUID) error {
	return fmt.Errorf("%s %s not found: %w", kind, id, domain.ErrNotFound)
}

// breakdownRepository implements domain.BreakdownRepository
type breakdownRepository struct {
	s *Store
}

// NewBreakdownRepository creates a breakdown row repository backed by s
func NewBreakdownRepository(s *Store) domain.BreakdownRepository {
	return &breakdownRepository{s: s}
}

func (r *breakdownRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.BreakdownRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.breakdowns[id]
	if !ok {
		return nil, notFound("breakdown row", id)
	}
	return &row, nil
}

func (r *breakdownRepository) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.BreakdownRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []*domain.BreakdownRow{}
	for _, row := range r.s.breakdowns {
		if row.ProjectID == projectID {
			row := row
			result = append(result, &row)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (r *breakdownRepository) Create(_ context.Context, row *domain.BreakdownRow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.breakdowns[row.ID]; exists {
		return fmt.Errorf("breakdown row %s already exists", row.ID)
	}
	r.s.breakdowns[row.ID] = *row
	return nil
}

func (r *breakdownRepository) Update(_ context.Context, row *domain.BreakdownRow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.breakdowns[row.ID]; !exists {
		return notFound("breakdown row", row.ID)
	}
	r.s.breakdowns[row.ID] = *row
	return nil
}

// UpdateOrders checks every row before writing any
func (r *breakdownRepository) UpdateOrders(_ context.Context, orders map[uuid.UUID]int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id := range orders {
		if _, exists := r.s.breakdowns[id]; !exists {
			return notFound("breakdown row", id)
		}
	}
	for id, order := range orders {
		row := r.s.breakdowns[id]
		row.Order = order
		r.s.breakdowns[id] = row
	}
	return nil
}

func (r *breakdownRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.breakdowns[id]; !exists {
		return notFound("breakdown row", id)
	}
	delete(r.s.breakdowns, id)
	return nil
}

// estimationRepository implements domain.EstimationRepository
type estimationRepository struct {
	s *Store
}

// NewEstimationRepository creates a market estimation repository backed by s
func NewEstimationRepository(s *Store) domain.EstimationRepository {
	return &estimationRepository{s: s}
}

func (r *estimationRepository) GetByProject(_ context.Context, projectID uuid.UUID) (*domain.MarketEstimation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.estimations[projectID]
	if !ok {
		return nil, notFound("estimation for project", projectID)
	}
	return &e, nil
}

func (r *estimationRepository) Save(_ context.Context, e *domain.MarketEstimation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// the first estimation of a project keeps its ID across replacements
	saved := *e
	if existing, ok := r.s.estimations[e.ProjectID]; ok {
		saved.ID = existing.ID
	}
	r.s.estimations[e.ProjectID] = saved
	return nil
}

// simulationRepository implements domain.SimulationRepository
type simulationRepository struct {
	s *Store
}

// NewSimulationRepository creates a simulation repository backed by s
func NewSimulationRepository(s *Store) domain.SimulationRepository {
	return &simulationRepository{s: s}
}

func (r *simulationRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Simulation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sim, ok := r.s.simulations[id]
	if !ok {
		return nil, notFound("simulation", id)
	}
	return copySimulation(sim), nil
}

func (r *simulationRepository) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.Simulation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []*domain.Simulation{}
	for _, sim := range r.s.simulations {
		if sim.ProjectID == projectID {
			result = append(result, copySimulation(sim))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (r *simulationRepository) Create(_ context.Context, sim *domain.Simulation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.simulations[sim.ID]; exists {
		return fmt.Errorf("simulation %s already exists", sim.ID)
	}
	r.s.simulations[sim.ID] = *copySimulation(*sim)
	return nil
}

func (r *simulationRepository) Update(_ context.Context, sim *domain.Simulation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.simulations[sim.ID]; !exists {
		return notFound("simulation", sim.ID)
	}
	r.s.simulations[sim.ID] = *copySimulation(*sim)
	return nil
}

func (r *simulationRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.simulations[id]; !exists {
		return notFound("simulation", id)
	}
	delete(r.s.simulations, id)
	return nil
}

func copySimulation(sim domain.Simulation) *domain.Simulation {
	if sim.Notes != nil {
		notes := *sim.Notes
		sim.Notes = &notes
	}
	return &sim
}

// comparableRepository implements domain.ComparableRepository
type comparableRepository struct {
	s *Store
}

// NewComparableRepository creates a selected comparable repository backed by s
func NewComparableRepository(s *Store) domain.ComparableRepository {
	return &comparableRepository{s: s}
}

func (r *comparableRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.SelectedComparable, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.comparables[id]
	if !ok {
		return nil, notFound("comparable", id)
	}
	return copyComparable(c), nil
}

func (r *comparableRepository) ListByProject(_ context.Context, projectID uuid.UUID) ([]*domain.SelectedComparable, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []*domain.SelectedComparable{}
	for _, c := range r.s.comparables {
		if c.ProjectID == projectID {
			result = append(result, copyComparable(c))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return r.s.seq[result[i].ID] < r.s.seq[result[j].ID]
	})
	return result, nil
}

func (r *comparableRepository) CountValidated(_ context.Context, projectID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.countValidated(projectID), nil
}

func (r *comparableRepository) Create(_ context.Context, c *domain.SelectedComparable) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.comparables[c.ID]; exists {
		return fmt.Errorf("comparable %s already exists", c.ID)
	}
	r.s.insertComparable(c)
	return nil
}

// CreateValidated counts and inserts under the same write lock
func (r *comparableRepository) CreateValidated(_ context.Context, c *domain.SelectedComparable, limit int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.comparables[c.ID]; exists {
		return fmt.Errorf("comparable %s already exists", c.ID)
	}
	if r.s.countValidated(c.ProjectID) >= limit {
		return domain.ErrSelectionFull
	}
	r.s.insertComparable(c)
	return nil
}

// Update persists the validation state and adjustment of a comparable
func (r *comparableRepository) Update(_ context.Context, c *domain.SelectedComparable) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, exists := r.s.comparables[c.ID]
	if !exists {
		return notFound("comparable", c.ID)
	}
	stored.Validated = c.Validated
	stored.Adjustment = c.Adjustment
	stored.AdjustedPricePerArea = c.AdjustedPricePerArea
	r.s.comparables[c.ID] = stored
	return nil
}

func (r *comparableRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.comparables[id]; !exists {
		return notFound("comparable", id)
	}
	delete(r.s.comparables, id)
	delete(r.s.seq, id)
	return nil
}

// countValidated must be called with mu held
func (s *Store) countValidated(projectID uuid.UUID) int {
	count := 0
	for _, c := range s.comparables {
		if c.ProjectID == projectID && c.Validated {
			count++
		}
	}
	return count
}

// insertComparable must be called with mu held for writing
func (s *Store) insertComparable(c *domain.SelectedComparable) {
	s.comparables[c.ID] = *copyComparable(*c)
	s.next++
	s.seq[c.ID] = s.next
}

func copyComparable(c domain.SelectedComparable) *domain.SelectedComparable {
	if c.TransactionDate != nil {
		d := *c.TransactionDate
		c.TransactionDate = &d
	}
	if c.Location != nil {
		loc := *c.Location
		c.Location = &loc
	}
	return &c
}
