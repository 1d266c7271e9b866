package grpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oryem/appraisal-backend/internal/domain"
	"github.com/oryem/appraisal-backend/internal/usecase/analysis"
	"github.com/oryem/appraisal-backend/internal/usecase/breakdown"
	"github.com/oryem/appraisal-backend/internal/usecase/capitalization"
	"github.com/oryem/appraisal-backend/internal/usecase/comparable"
	"github.com/oryem/appraisal-backend/internal/usecase/comparison"
	"github.com/oryem/appraisal-backend/internal/usecase/loan"
	"github.com/oryem/appraisal-backend/internal/usecase/simulation"
	"github.com/oryem/appraisal-backend/internal/usecase/synthesis"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Server implements the AppraisalService gRPC server
type Server struct {
	AnalysisService   *analysis.AnalysisService
	SimulationService *simulation.SimulationService
	ComparisonService *comparison.ComparisonService

	validate *validator.Validate
}

var _ AppraisalServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	analysisService *analysis.AnalysisService,
	simulationService *simulation.SimulationService,
	comparisonService *comparison.ComparisonService,
) *Server {
	return &Server{
		AnalysisService:   analysisService,
		SimulationService: simulationService,
		ComparisonService: comparisonService,
		validate:          newValidator(),
	}
}

// RecomputeRow handles the RecomputeRow RPC
func (s *Server) RecomputeRow(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req recomputeRowRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	row := breakdown.RecomputeRow(req.Row.toDomain(), domain.BreakdownField(req.Field), req.Value)
	return respond(map[string]interface{}{"row": toRowDTO(&row)})
}

// ComputeTotals handles the ComputeTotals RPC
func (s *Server) ComputeTotals(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req computeTotalsRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	rows := make([]domain.BreakdownRow, 0, len(req.Rows))
	for _, r := range req.Rows {
		rows = append(rows, r.toDomain())
	}

	return respond(map[string]interface{}{"totals": toTotalsDTO(synthesis.ComputeTotals(rows))})
}

// EstimateRentFromSale handles the EstimateRentFromSale RPC
func (s *Server) EstimateRentFromSale(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req estimationRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	rent := capitalization.EstimateRentFromSale(req.Estimation.toDomain())
	return respond(map[string]interface{}{"rent_per_area": rent})
}

// EstimatePriceFromRent handles the EstimatePriceFromRent RPC
func (s *Server) EstimatePriceFromRent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req priceFromRentRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	price := capitalization.EstimatePriceFromRent(req.Estimation.toDomain(), req.TotalSurface)
	return respond(priceFromRentDTO{PricePerArea: price.PricePerArea, TotalPrice: price.TotalPrice})
}

// ComputeSimulation handles the ComputeSimulation RPC
func (s *Server) ComputeSimulation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req computeSimulationRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	return respond(map[string]interface{}{"output": loan.ComputeSimulationOutputs(req.Input)})
}

// ApplyAdjustment handles the ApplyAdjustment RPC
func (s *Server) ApplyAdjustment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req applyAdjustmentRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	adjusted := comparable.ApplyAdjustment(req.PricePerArea, req.Adjustment)
	return respond(map[string]interface{}{"adjusted_price_per_area": adjusted})
}

// AddBreakdown handles the AddBreakdown RPC
func (s *Server) AddBreakdown(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req addBreakdownRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	row, err := s.AnalysisService.AddBreakdown(ctx, req.ProjectID, domain.LocalType(req.LocalType))
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{"row": toRowDTO(row)})
}

// EditBreakdown handles the EditBreakdown RPC
func (s *Server) EditBreakdown(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req editBreakdownRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	row, err := s.AnalysisService.EditBreakdown(ctx, req.RowID, domain.BreakdownField(req.Field), req.Value)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{"row": toRowDTO(row)})
}

// SetLocalType handles the SetLocalType RPC
func (s *Server) SetLocalType(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req setLocalTypeRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	row, err := s.AnalysisService.SetLocalType(ctx, req.RowID, domain.LocalType(req.LocalType))
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{"row": toRowDTO(row)})
}

// RemoveBreakdown handles the RemoveBreakdown RPC
func (s *Server) RemoveBreakdown(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rowRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	if err := s.AnalysisService.RemoveBreakdown(ctx, req.RowID); err != nil {
		return nil, mapError(err)
	}

	return &structpb.Struct{}, nil
}

// ReorderBreakdowns handles the ReorderBreakdowns RPC
func (s *Server) ReorderBreakdowns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req reorderBreakdownsRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	rows, err := s.AnalysisService.ReorderBreakdowns(ctx, req.ProjectID, req.RowIDs)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{"rows": toRowDTOs(rows)})
}

// GetAnalysis handles the GetAnalysis RPC
func (s *Server) GetAnalysis(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req projectRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	result, err := s.AnalysisService.GetAnalysis(ctx, req.ProjectID)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"rows":           toRowDTOs(result.Rows),
		"totals":         toTotalsDTO(result.Totals),
		"estimation":     toEstimationDTO(result.Estimation),
		"rent_from_sale": result.RentFromSale,
		"price_from_rent": priceFromRentDTO{
			PricePerArea: result.PriceFromRent.PricePerArea,
			TotalPrice:   result.PriceFromRent.TotalPrice,
		},
	})
}

// SaveEstimation handles the SaveEstimation RPC
func (s *Server) SaveEstimation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req saveEstimationRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	estimation, err := s.AnalysisService.SaveEstimation(ctx, req.ProjectID, req.toInput())
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{"estimation": toEstimationDTO(estimation)})
}

// ExportSynthesis handles the ExportSynthesis RPC
func (s *Server) ExportSynthesis(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req projectRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	content, err := s.AnalysisService.ExportSynthesis(ctx, req.ProjectID)
	if err != nil {
		return nil, mapError(err)
	}

	// []byte is base64 encoded by encoding/json
	return respond(map[string]interface{}{
		"filename":     fmt.Sprintf("synthesis_%s.xlsx", req.ProjectID),
		"content_type": xlsxContentType,
		"content":      content,
	})
}

// CreateSimulation handles the CreateSimulation RPC
func (s *Server) CreateSimulation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req createSimulationRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	sim, err := s.SimulationService.CreateSimulation(ctx, simulation.CreateSimulationInput{
		ProjectID: req.ProjectID,
		Type:      domain.SimulationType(req.Type),
		Name:      req.Name,
		Input:     req.Input,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{"simulation": toSimulationDTO(sim)})
}

// UpdateSimulation handles the UpdateSimulation RPC
func (s *Server) UpdateSimulation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req updateSimulationRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	input := simulation.UpdateSimulationInput{
		Name:     req.Name,
		Input:    req.Input,
		Notes:    req.Notes,
		Selected: req.Selected,
	}
	if req.Type != nil {
		simType := domain.SimulationType(*req.Type)
		input.Type = &simType
	}

	sim, err := s.SimulationService.UpdateSimulation(ctx, req.ID, input)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{"simulation": toSimulationDTO(sim)})
}

// ListSimulations handles the ListSimulations RPC
func (s *Server) ListSimulations(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req projectRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	sims, err := s.SimulationService.ListSimulations(ctx, req.ProjectID)
	if err != nil {
		return nil, mapError(err)
	}

	dtos := make([]simulationDTO, 0, len(sims))
	for _, sim := range sims {
		dtos = append(dtos, toSimulationDTO(sim))
	}

	return respond(map[string]interface{}{"simulations": dtos})
}

// DeleteSimulation handles the DeleteSimulation RPC
func (s *Server) DeleteSimulation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req idRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	if err := s.SimulationService.DeleteSimulation(ctx, req.ID); err != nil {
		return nil, mapError(err)
	}

	return &structpb.Struct{}, nil
}

// SelectComparable handles the SelectComparable RPC
func (s *Server) SelectComparable(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req selectComparableRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	input, err := req.toInput()
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid transaction_date format: %v", err)
	}

	c, err := s.ComparisonService.SelectComparable(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{"comparable": toComparableDTO(c)})
}

// SetAdjustment handles the SetAdjustment RPC
func (s *Server) SetAdjustment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req setAdjustmentRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	c, err := s.ComparisonService.SetAdjustment(ctx, req.ComparableID, req.Adjustment)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{"comparable": toComparableDTO(c)})
}

// RemoveComparable handles the RemoveComparable RPC
func (s *Server) RemoveComparable(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req comparableRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	if err := s.ComparisonService.RemoveComparable(ctx, req.ComparableID); err != nil {
		return nil, mapError(err)
	}

	return &structpb.Struct{}, nil
}

// GetComparison handles the GetComparison RPC
func (s *Server) GetComparison(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req getComparisonRequest
	if err := s.bindRequest(in, &req); err != nil {
		return nil, err
	}

	result, err := s.ComparisonService.GetComparison(ctx, req.ProjectID, req.subject())
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]comparableDTO, 0, len(result.Items))
	for _, item := range result.Items {
		dto := toComparableDTO(item.Comparable)
		dto.DistanceKm = item.DistanceKm
		items = append(items, dto)
	}

	return respond(map[string]interface{}{
		"comparables": items,
		"stats":       toStatsDTO(result.Stats),
	})
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	errorMsg := err.Error()

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	case errors.Is(err, domain.ErrSelectionFull):
		return status.Errorf(codes.FailedPrecondition, "%s", errorMsg)
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidField),
		errors.Is(err, domain.ErrInvalidLocalType),
		errors.Is(err, domain.ErrInvalidSimulationType):
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}
