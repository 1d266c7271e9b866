//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oryem/appraisal-backend/internal/domain"
	"github.com/oryem/appraisal-backend/internal/usecase/loan"
)

var db *DB

// TestMain connects to the database and applies the schema
func TestMain(m *testing.M) {
	var err error
	db, err = NewDB(getDBConnectionString())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if err := db.Migrate(context.Background()); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}

	code := m.Run()

	_ = db.Close()
	os.Exit(code)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestBreakdownRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewBreakdownRepository(db)
	projectID := uuid.New()

	row := domain.NewBreakdownRow(projectID, domain.LocalTypeOffice, 0)
	row.Surface = nd("280.5")
	row.PricePerArea = nd("3000")
	row.VenalValue = nd("900000")
	row.VenalOverride = true
	require.NoError(t, repo.Create(ctx, &row))

	stored, err := repo.GetByID(ctx, row.ID)
	require.NoError(t, err)
	assert.True(t, stored.Surface.Decimal.Equal(row.Surface.Decimal))
	assert.False(t, stored.RentPerArea.Valid, "NULL stays empty")
	assert.True(t, stored.VenalOverride)

	stored.Order = 3
	stored.PricePerArea = decimal.NullDecimal{}
	require.NoError(t, repo.Update(ctx, stored))

	rows, err := repo.ListByProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Order)
	assert.False(t, rows[0].PricePerArea.Valid)

	require.NoError(t, repo.Delete(ctx, row.ID))
	_, err = repo.GetByID(ctx, row.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, row.ID), domain.ErrNotFound)
}

func TestEstimationRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewEstimationRepository(db)
	projectID := uuid.New()

	_, err := repo.GetByProject(ctx, projectID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	e := domain.NewMarketEstimation(projectID)
	e.SalePriceHigh = nd("3200")
	require.NoError(t, repo.Save(ctx, &e))

	e.RentCustom = nd("210")
	e.RentCapRate = decimal.Zero
	require.NoError(t, repo.Save(ctx, &e))

	stored, err := repo.GetByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, stored.ID)
	assert.True(t, stored.SalePriceHigh.Decimal.Equal(decimal.NewFromInt(3200)))
	assert.True(t, stored.RentCustom.Decimal.Equal(decimal.NewFromInt(210)))
	assert.True(t, stored.RentCapRate.IsZero())
	assert.True(t, stored.SaleCapRate.Equal(decimal.NewFromInt(8)))
}

func TestSimulationRepository_JSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSimulationRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	input := domain.DefaultSimulationInput()
	sim := &domain.Simulation{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		Type:      domain.SimulationTypeBorrowingCapacity,
		Name:      "Bank A",
		Input:     input,
		Output:    loan.ComputeSimulationOutputs(input),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, sim))

	stored, err := repo.GetByID(ctx, sim.ID)
	require.NoError(t, err)
	assert.Equal(t, sim.Input.DurationYears, stored.Input.DurationYears)
	assert.True(t, stored.Input.NotaryRate.Equal(input.NotaryRate))
	assert.True(t, stored.Output.BorrowingCapacity.Equal(sim.Output.BorrowingCapacity))
	assert.Nil(t, stored.Notes)
}

func TestComparableRepository_CountValidated(t *testing.T) {
	ctx := context.Background()
	repo := NewComparableRepository(db)
	projectID := uuid.New()
	date := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	c := &domain.SelectedComparable{
		ID:                   uuid.New(),
		ProjectID:            projectID,
		Address:              "12 rue de la Paix",
		City:                 "Paris",
		Surface:              decimal.NewFromInt(150),
		Price:                decimal.NewFromInt(450000),
		TransactionType:      domain.TransactionTypeSale,
		TransactionDate:      &date,
		Location:             &domain.Coordinates{Latitude: 48.8698, Longitude: 2.3316},
		Validated:            true,
		PricePerArea:         decimal.NewFromInt(3000),
		Adjustment:           decimal.NewFromInt(-10),
		AdjustedPricePerArea: decimal.NewFromInt(2700),
	}
	require.NoError(t, repo.Create(ctx, c))

	count, err := repo.CountValidated(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Location)
	assert.InDelta(t, 48.8698, stored.Location.Latitude, 1e-9)
	require.NotNil(t, stored.TransactionDate)
	assert.Equal(t, "2024-02-15", stored.TransactionDate.Format("2006-01-02"))
}

func TestComparableRepository_CreateValidatedConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewComparableRepository(db)
	projectID := uuid.New()
	const sessions = 10

	var wg sync.WaitGroup
	errs := make(chan error, sessions)
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.CreateValidated(ctx, &domain.SelectedComparable{
				ID:                   uuid.New(),
				ProjectID:            projectID,
				Surface:              decimal.NewFromInt(100),
				Price:                decimal.NewFromInt(300000),
				TransactionType:      domain.TransactionTypeSale,
				Validated:            true,
				PricePerArea:         decimal.NewFromInt(3000),
				AdjustedPricePerArea: decimal.NewFromInt(3000),
			}, domain.MaxValidatedComparables)
		}()
	}
	wg.Wait()
	close(errs)

	full := 0
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrSelectionFull)
			full++
		}
	}
	assert.Equal(t, sessions-domain.MaxValidatedComparables, full)

	count, err := repo.CountValidated(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxValidatedComparables, count)
}

func TestBreakdownRepository_UpdateOrdersRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewBreakdownRepository(db)
	projectID := uuid.New()

	first := domain.NewBreakdownRow(projectID, domain.LocalTypeOffice, 0)
	second := domain.NewBreakdownRow(projectID, domain.LocalTypeRetail, 1)
	require.NoError(t, repo.Create(ctx, &first))
	require.NoError(t, repo.Create(ctx, &second))

	err := repo.UpdateOrders(ctx, map[uuid.UUID]int{first.ID: 1, second.ID: 0, uuid.New(): 2})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rows, err := repo.ListByProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Order)
	assert.Equal(t, first.ID, rows[0].ID)

	require.NoError(t, repo.UpdateOrders(ctx, map[uuid.UUID]int{first.ID: 1, second.ID: 0}))
	rows, err = repo.ListByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, rows[0].ID)
}

func getDBConnectionString() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}
	return "host=localhost port=5432 user=postgres password=postgres dbname=appraisal_test sslmode=disable"
}
