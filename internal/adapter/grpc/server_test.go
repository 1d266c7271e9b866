package grpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oryem/appraisal-backend/internal/adapter/export"
	"github.com/oryem/appraisal-backend/internal/adapter/repository/memory"
	"github.com/oryem/appraisal-backend/internal/domain"
	"github.com/oryem/appraisal-backend/internal/usecase/analysis"
	"github.com/oryem/appraisal-backend/internal/usecase/comparison"
	"github.com/oryem/appraisal-backend/internal/usecase/simulation"
)

const testToken = "e2e-token"

// startServer runs the full server stack on an in-memory listener backed by the memory store
func startServer(t *testing.T) *Client {
	t.Helper()

	store := memory.NewStore()
	server := NewServer(
		analysis.NewAnalysisService(
			memory.NewBreakdownRepository(store),
			memory.NewEstimationRepository(store),
			export.NewSynthesisWorkbook(),
		),
		simulation.NewSimulationService(memory.NewSimulationRepository(store)),
		comparison.NewComparisonService(memory.NewComparableRepository(store)),
	)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	lis := bufconn.Listen(1024 * 1024)
	grpcServer := grpc.NewServer(ServerOptions(logger, NewMetrics(prometheus.NewRegistry()), testToken)...)
	RegisterAppraisalServiceServer(grpcServer, server)

	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewClient(conn)
}

func authContext() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+testToken)
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "error should be a gRPC status")
	assert.Equal(t, code, st.Code(), st.Message())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestServer_RequiresToken(t *testing.T) {
	client := startServer(t)

	err := client.Invoke(context.Background(), "ApplyAdjustment",
		map[string]interface{}{"price_per_area": "1000", "adjustment": "-10"}, nil)

	requireCode(t, err, codes.Unauthenticated)
}

func TestServer_StatelessCalls(t *testing.T) {
	client := startServer(t)
	ctx := authContext()

	t.Run("ApplyAdjustment", func(t *testing.T) {
		var resp struct {
			Adjusted decimal.Decimal `json:"adjusted_price_per_area"`
		}
		err := client.Invoke(ctx, "ApplyAdjustment", applyAdjustmentRequest{
			PricePerArea: dec("1000"),
			Adjustment:   dec("-10"),
		}, &resp)

		require.NoError(t, err)
		assert.True(t, resp.Adjusted.Equal(dec("900")), "got %s", resp.Adjusted)
	})

	t.Run("RecomputeRow", func(t *testing.T) {
		row := rowDTO{
			ID:          uuid.New(),
			ProjectID:   uuid.New(),
			LocalType:   "OFFICE",
			Surface:     decimal.NewNullDecimal(dec("280")),
			RentPerArea: decimal.NewNullDecimal(dec("240")),
		}
		var resp struct {
			Row rowDTO `json:"row"`
		}
		err := client.Invoke(ctx, "RecomputeRow", recomputeRowRequest{
			Row:   row,
			Field: "PRICE_PER_AREA",
			Value: decimal.NewNullDecimal(dec("3000")),
		}, &resp)

		require.NoError(t, err)
		assert.True(t, resp.Row.VenalValue.Decimal.Equal(dec("840000")))
		assert.True(t, resp.Row.RentalValueAnnual.Decimal.Equal(dec("67200")))
		assert.True(t, resp.Row.RentalValueMonthly.Decimal.Equal(dec("5600")))
	})

	t.Run("ComputeSimulation", func(t *testing.T) {
		var resp struct {
			Output struct {
				NotaryFees     decimal.Decimal `json:"notary_fees"`
				MonthlyPayment decimal.Decimal `json:"monthly_payment"`
			} `json:"output"`
		}
		err := client.Invoke(ctx, "ComputeSimulation", map[string]interface{}{
			"input": map[string]interface{}{
				"property_price":        "500000",
				"notary_rate":           "7.4",
				"loan_amount":           "100000",
				"interest_rate":         "0",
				"loan_duration_years":   10,
				"monthly_income":        "0",
				"monthly_charges":       "0",
				"works_amount":          "0",
				"personal_contribution": "0",
				"insurance_rate":        "0",
			},
		}, &resp)

		require.NoError(t, err)
		assert.True(t, resp.Output.NotaryFees.Equal(dec("37000")), "got %s", resp.Output.NotaryFees)
		assert.True(t, resp.Output.MonthlyPayment.Round(2).Equal(dec("833.33")), "got %s", resp.Output.MonthlyPayment)
	})

	t.Run("Invalid field is rejected", func(t *testing.T) {
		err := client.Invoke(ctx, "RecomputeRow", map[string]interface{}{
			"row":   map[string]interface{}{"local_type": "OFFICE"},
			"field": "COLOR",
		}, nil)

		requireCode(t, err, codes.InvalidArgument)
	})
}

func TestServer_CapitalizationDefaults(t *testing.T) {
	client := startServer(t)
	ctx := authContext()

	tests := []struct {
		name          string
		estimation    map[string]interface{}
		expectedRent  string
		expectedPrice string
		expectedTotal string
	}{
		{
			name:          "Missing cap rates use the default of 8",
			estimation:    map[string]interface{}{"sale_price_high": "3000", "rent_high": "240"},
			expectedRent:  "240",
			expectedPrice: "3000",
			expectedTotal: "300000",
		},
		{
			name: "Explicit zero cap rates are kept",
			estimation: map[string]interface{}{
				"sale_price_high": "3000",
				"sale_cap_rate":   "0",
				"rent_high":       "240",
				"rent_cap_rate":   "0",
			},
			expectedRent:  "0",
			expectedPrice: "0",
			expectedTotal: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rentResp struct {
				RentPerArea decimal.Decimal `json:"rent_per_area"`
			}
			require.NoError(t, client.Invoke(ctx, "EstimateRentFromSale",
				map[string]interface{}{"estimation": tt.estimation}, &rentResp))
			assert.True(t, rentResp.RentPerArea.Equal(dec(tt.expectedRent)), "got %s", rentResp.RentPerArea)

			var priceResp priceFromRentDTO
			require.NoError(t, client.Invoke(ctx, "EstimatePriceFromRent",
				map[string]interface{}{"estimation": tt.estimation, "total_surface": "100"}, &priceResp))
			assert.True(t, priceResp.PricePerArea.Equal(dec(tt.expectedPrice)), "got %s", priceResp.PricePerArea)
			assert.True(t, priceResp.TotalPrice.Equal(dec(tt.expectedTotal)), "got %s", priceResp.TotalPrice)
		})
	}
}

func TestServer_BreakdownFlow(t *testing.T) {
	client := startServer(t)
	ctx := authContext()
	projectID := uuid.New()

	var added struct {
		Row rowDTO `json:"row"`
	}
	require.NoError(t, client.Invoke(ctx, "AddBreakdown", addBreakdownRequest{
		ProjectID: projectID,
		LocalType: "OFFICE",
	}, &added))
	assert.Equal(t, 0, added.Row.Order)

	edits := []editBreakdownRequest{
		{RowID: added.Row.ID, Field: "SURFACE", Value: decimal.NewNullDecimal(dec("100"))},
		{RowID: added.Row.ID, Field: "PRICE_PER_AREA", Value: decimal.NewNullDecimal(dec("1000"))},
	}
	for _, edit := range edits {
		require.NoError(t, client.Invoke(ctx, "EditBreakdown", edit, nil))
	}

	require.NoError(t, client.Invoke(ctx, "SaveEstimation", map[string]interface{}{
		"project_id":    projectID,
		"rent_custom":   "200",
		"rent_cap_rate": "5",
	}, nil))

	var analysisResp struct {
		Rows          []rowDTO         `json:"rows"`
		Totals        totalsDTO        `json:"totals"`
		Estimation    estimationDTO    `json:"estimation"`
		PriceFromRent priceFromRentDTO `json:"price_from_rent"`
	}
	require.NoError(t, client.Invoke(ctx, "GetAnalysis", projectRequest{ProjectID: projectID}, &analysisResp))

	require.Len(t, analysisResp.Rows, 1)
	assert.True(t, analysisResp.Rows[0].VenalValue.Decimal.Equal(dec("100000")))
	assert.True(t, analysisResp.Totals.TotalVenalValue.Equal(dec("100000")))
	assert.True(t, analysisResp.Estimation.RentCapRate.Decimal.Equal(dec("5")))
	assert.True(t, analysisResp.PriceFromRent.PricePerArea.Equal(dec("4000")))
	assert.True(t, analysisResp.PriceFromRent.TotalPrice.Equal(dec("400000")))

	var exported struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	}
	require.NoError(t, client.Invoke(ctx, "ExportSynthesis", projectRequest{ProjectID: projectID}, &exported))
	assert.Contains(t, exported.Filename, projectID.String())

	content, err := base64.StdEncoding.DecodeString(exported.Content)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.DefaultSheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header, one row, totals")

	require.NoError(t, client.Invoke(ctx, "RemoveBreakdown", rowRequest{RowID: added.Row.ID}, nil))
	err = client.Invoke(ctx, "EditBreakdown", edits[0], nil)
	requireCode(t, err, codes.NotFound)
}

func TestServer_SimulationFlow(t *testing.T) {
	client := startServer(t)
	ctx := authContext()
	projectID := uuid.New()

	var created struct {
		Simulation simulationDTO `json:"simulation"`
	}
	require.NoError(t, client.Invoke(ctx, "CreateSimulation", createSimulationRequest{
		ProjectID: projectID,
		Type:      "CAPACITE_EMPRUNT",
		Name:      "Bank offer",
	}, &created))
	assert.Equal(t, "Bank offer", created.Simulation.Name)

	selected := true
	var updated struct {
		Simulation simulationDTO `json:"simulation"`
	}
	require.NoError(t, client.Invoke(ctx, "UpdateSimulation", updateSimulationRequest{
		ID:       created.Simulation.ID,
		Selected: &selected,
	}, &updated))
	assert.True(t, updated.Simulation.Selected)

	var listed struct {
		Simulations []simulationDTO `json:"simulations"`
	}
	require.NoError(t, client.Invoke(ctx, "ListSimulations", projectRequest{ProjectID: projectID}, &listed))
	require.Len(t, listed.Simulations, 1)

	require.NoError(t, client.Invoke(ctx, "DeleteSimulation", idRequest{ID: created.Simulation.ID}, nil))
	err := client.Invoke(ctx, "DeleteSimulation", idRequest{ID: created.Simulation.ID}, nil)
	requireCode(t, err, codes.NotFound)

	err = client.Invoke(ctx, "CreateSimulation", map[string]interface{}{
		"project_id": projectID,
		"type":       "LOTTERY",
		"name":       "x",
	}, nil)
	requireCode(t, err, codes.InvalidArgument)
}

func TestServer_ComparableSelectionLimit(t *testing.T) {
	client := startServer(t)
	ctx := authContext()
	projectID := uuid.New()

	lat, lng := 48.8566, 2.3522
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		var resp struct {
			Comparable comparableDTO `json:"comparable"`
		}
		require.NoError(t, client.Invoke(ctx, "SelectComparable", selectComparableRequest{
			ProjectID:       projectID,
			Address:         "1 rue de Rivoli",
			City:            "Paris",
			Surface:         dec("100"),
			Price:           dec("300000"),
			TransactionType: "SALE",
			Latitude:        &lat,
			Longitude:       &lng,
		}, &resp))
		assert.True(t, resp.Comparable.PricePerArea.Equal(dec("3000")))
		ids = append(ids, resp.Comparable.ID)
	}

	err := client.Invoke(ctx, "SelectComparable", selectComparableRequest{
		ProjectID:       projectID,
		Surface:         dec("50"),
		Price:           dec("1000"),
		TransactionType: "RENT",
	}, nil)
	requireCode(t, err, codes.FailedPrecondition)

	var adjusted struct {
		Comparable comparableDTO `json:"comparable"`
	}
	require.NoError(t, client.Invoke(ctx, "SetAdjustment", setAdjustmentRequest{
		ComparableID: ids[0],
		Adjustment:   dec("10"),
	}, &adjusted))
	assert.True(t, adjusted.Comparable.AdjustedPricePerArea.Equal(dec("3300")))

	var comparisonResp struct {
		Comparables []comparableDTO `json:"comparables"`
		Stats       statsDTO        `json:"stats"`
	}
	require.NoError(t, client.Invoke(ctx, "GetComparison", getComparisonRequest{
		ProjectID:        projectID,
		SubjectLatitude:  &lat,
		SubjectLongitude: &lng,
	}, &comparisonResp))
	require.Len(t, comparisonResp.Comparables, 3)
	assert.True(t, comparisonResp.Comparables[0].DistanceKm.Valid)
	assert.True(t, comparisonResp.Comparables[0].DistanceKm.Decimal.IsZero())
	assert.Equal(t, 3, comparisonResp.Stats.SaleCount)

	require.NoError(t, client.Invoke(ctx, "RemoveComparable", comparableRequest{ComparableID: ids[1]}, nil))
	err = client.Invoke(ctx, "SetAdjustment", setAdjustmentRequest{ComparableID: ids[1]}, nil)
	requireCode(t, err, codes.NotFound)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode codes.Code
	}{
		{
			name:         "Wrapped not found",
			err:          fmt.Errorf("failed to load: %w", domain.ErrNotFound),
			expectedCode: codes.NotFound,
		},
		{
			name:         "Selection full",
			err:          domain.ErrSelectionFull,
			expectedCode: codes.FailedPrecondition,
		},
		{
			name:         "Domain validation failure",
			err:          (&domain.Simulation{}).Validate(),
			expectedCode: codes.InvalidArgument,
		},
		{
			name:         "Driver error mentioning invalid input stays internal",
			err:          fmt.Errorf("failed to create comparable: %w", errors.New("pq: invalid input syntax for type numeric")),
			expectedCode: codes.Internal,
		},
		{
			name:         "Status errors pass through",
			err:          status.Error(codes.Unauthenticated, "invalid token"),
			expectedCode: codes.Unauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(mapError(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.expectedCode, st.Code())
		})
	}
}
