package grpc

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oryem/appraisal-backend/internal/domain"
	"github.com/oryem/appraisal-backend/internal/usecase/analysis"
	"github.com/oryem/appraisal-backend/internal/usecase/comparison"
)

// Decimals travel as JSON strings so no precision is lost in google.protobuf.Value doubles.

type rowDTO struct {
	ID                    uuid.UUID           `json:"id"`
	ProjectID             uuid.UUID           `json:"project_id"`
	LocalType             string              `json:"local_type"`
	Order                 int                 `json:"order" validate:"gte=0"`
	Surface               decimal.NullDecimal `json:"surface"`
	PricePerArea          decimal.NullDecimal `json:"price_per_area"`
	RentPerArea           decimal.NullDecimal `json:"rent_per_area"`
	VenalValue            decimal.NullDecimal `json:"venal_value"`
	RentalValueAnnual     decimal.NullDecimal `json:"rental_value_annual"`
	RentalValueMonthly    decimal.NullDecimal `json:"rental_value_monthly"`
	VenalOverride         bool                `json:"venal_override"`
	RentalAnnualOverride  bool                `json:"rental_annual_override"`
	RentalMonthlyOverride bool                `json:"rental_monthly_override"`
}

func toRowDTO(r *domain.BreakdownRow) rowDTO {
	return rowDTO{
		ID:                    r.ID,
		ProjectID:             r.ProjectID,
		LocalType:             string(r.LocalType),
		Order:                 r.Order,
		Surface:               r.Surface,
		PricePerArea:          r.PricePerArea,
		RentPerArea:           r.RentPerArea,
		VenalValue:            r.VenalValue,
		RentalValueAnnual:     r.RentalValueAnnual,
		RentalValueMonthly:    r.RentalValueMonthly,
		VenalOverride:         r.VenalOverride,
		RentalAnnualOverride:  r.RentalAnnualOverride,
		RentalMonthlyOverride: r.RentalMonthlyOverride,
	}
}

func toRowDTOs(rows []*domain.BreakdownRow) []rowDTO {
	out := make([]rowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRowDTO(r))
	}
	return out
}

func (d rowDTO) toDomain() domain.BreakdownRow {
	return domain.BreakdownRow{
		ID:                    d.ID,
		ProjectID:             d.ProjectID,
		LocalType:             domain.LocalType(d.LocalType),
		Order:                 d.Order,
		Surface:               d.Surface,
		PricePerArea:          d.PricePerArea,
		RentPerArea:           d.RentPerArea,
		VenalValue:            d.VenalValue,
		RentalValueAnnual:     d.RentalValueAnnual,
		RentalValueMonthly:    d.RentalValueMonthly,
		VenalOverride:         d.VenalOverride,
		RentalAnnualOverride:  d.RentalAnnualOverride,
		RentalMonthlyOverride: d.RentalMonthlyOverride,
	}
}

type totalsDTO struct {
	TotalSurface       decimal.Decimal `json:"total_surface"`
	TotalVenalValue    decimal.Decimal `json:"total_venal_value"`
	TotalRentalAnnual  decimal.Decimal `json:"total_rental_annual"`
	TotalRentalMonthly decimal.Decimal `json:"total_rental_monthly"`
	AvgPricePerArea    decimal.Decimal `json:"avg_price_per_area"`
	AvgRentPerArea     decimal.Decimal `json:"avg_rent_per_area"`
}

func toTotalsDTO(t domain.SynthesisTotals) totalsDTO {
	return totalsDTO{
		TotalSurface:       t.TotalSurface,
		TotalVenalValue:    t.TotalVenalValue,
		TotalRentalAnnual:  t.TotalRentalAnnual,
		TotalRentalMonthly: t.TotalRentalMonthly,
		AvgPricePerArea:    t.AvgPricePerArea,
		AvgRentPerArea:     t.AvgRentPerArea,
	}
}

type estimationDTO struct {
	ID              uuid.UUID           `json:"id,omitempty"`
	ProjectID       uuid.UUID           `json:"project_id,omitempty"`
	SalePriceLow    decimal.NullDecimal `json:"sale_price_low"`
	SalePriceHigh   decimal.NullDecimal `json:"sale_price_high"`
	SalePriceCustom decimal.NullDecimal `json:"sale_price_custom"`
	SaleCapRate     decimal.NullDecimal `json:"sale_cap_rate"`
	RentLow         decimal.NullDecimal `json:"rent_low"`
	RentHigh        decimal.NullDecimal `json:"rent_high"`
	RentCustom      decimal.NullDecimal `json:"rent_custom"`
	RentCapRate     decimal.NullDecimal `json:"rent_cap_rate"`
}

func toEstimationDTO(e *domain.MarketEstimation) estimationDTO {
	return estimationDTO{
		ID:              e.ID,
		ProjectID:       e.ProjectID,
		SalePriceLow:    e.SalePriceLow,
		SalePriceHigh:   e.SalePriceHigh,
		SalePriceCustom: e.SalePriceCustom,
		SaleCapRate:     decimal.NewNullDecimal(e.SaleCapRate),
		RentLow:         e.RentLow,
		RentHigh:        e.RentHigh,
		RentCustom:      e.RentCustom,
		RentCapRate:     decimal.NewNullDecimal(e.RentCapRate),
	}
}

// toDomain fills a missing cap rate with the default of a fresh estimation; an explicit 0 is kept
func (d estimationDTO) toDomain() domain.MarketEstimation {
	return domain.MarketEstimation{
		ID:              d.ID,
		ProjectID:       d.ProjectID,
		SalePriceLow:    d.SalePriceLow,
		SalePriceHigh:   d.SalePriceHigh,
		SalePriceCustom: d.SalePriceCustom,
		SaleCapRate:     capRateOrDefault(d.SaleCapRate),
		RentLow:         d.RentLow,
		RentHigh:        d.RentHigh,
		RentCustom:      d.RentCustom,
		RentCapRate:     capRateOrDefault(d.RentCapRate),
	}
}

func capRateOrDefault(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return domain.DefaultCapitalizationRate
	}
	return v.Decimal
}

type priceFromRentDTO struct {
	PricePerArea decimal.Decimal `json:"price_per_area"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

type simulationDTO struct {
	ID        uuid.UUID               `json:"id"`
	ProjectID uuid.UUID               `json:"project_id"`
	Type      string                  `json:"type"`
	Name      string                  `json:"name"`
	Input     domain.SimulationInput  `json:"input"`
	Output    domain.SimulationOutput `json:"output"`
	Notes     *string                 `json:"notes"`
	Selected  bool                    `json:"selected"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

func toSimulationDTO(s *domain.Simulation) simulationDTO {
	return simulationDTO{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		Type:      string(s.Type),
		Name:      s.Name,
		Input:     s.Input,
		Output:    s.Output,
		Notes:     s.Notes,
		Selected:  s.Selected,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

type comparableDTO struct {
	ID                   uuid.UUID           `json:"id"`
	ProjectID            uuid.UUID           `json:"project_id"`
	Address              string              `json:"address"`
	City                 string              `json:"city"`
	Surface              decimal.Decimal     `json:"surface"`
	Price                decimal.Decimal     `json:"price"`
	TransactionType      string              `json:"transaction_type"`
	TransactionDate      *string             `json:"transaction_date"`
	Latitude             *float64            `json:"latitude"`
	Longitude            *float64            `json:"longitude"`
	Validated            bool                `json:"validated"`
	PricePerArea         decimal.Decimal     `json:"price_per_area"`
	Adjustment           decimal.Decimal     `json:"adjustment"`
	AdjustedPricePerArea decimal.Decimal     `json:"adjusted_price_per_area"`
	DistanceKm           decimal.NullDecimal `json:"distance_km"`
}

func toComparableDTO(c *domain.SelectedComparable) comparableDTO {
	dto := comparableDTO{
		ID:                   c.ID,
		ProjectID:            c.ProjectID,
		Address:              c.Address,
		City:                 c.City,
		Surface:              c.Surface,
		Price:                c.Price,
		TransactionType:      string(c.TransactionType),
		Validated:            c.Validated,
		PricePerArea:         c.PricePerArea,
		Adjustment:           c.Adjustment,
		AdjustedPricePerArea: c.AdjustedPricePerArea,
	}
	if c.TransactionDate != nil {
		d := c.TransactionDate.Format(dateLayout)
		dto.TransactionDate = &d
	}
	if c.Location != nil {
		lat, lng := c.Location.Latitude, c.Location.Longitude
		dto.Latitude = &lat
		dto.Longitude = &lng
	}
	return dto
}

type statsDTO struct {
	AvgSalePerArea    decimal.NullDecimal `json:"avg_sale_per_area"`
	SaleCount         int                 `json:"sale_count"`
	AvgRentPerArea    decimal.NullDecimal `json:"avg_rent_per_area"`
	RentCount         int                 `json:"rent_count"`
	LatestSalePerArea decimal.NullDecimal `json:"latest_sale_per_area"`
	LatestSaleDate    *string             `json:"latest_sale_date"`
	TotalCount        int                 `json:"total_count"`
}

func toStatsDTO(s domain.PriceStats) statsDTO {
	dto := statsDTO{
		AvgSalePerArea:    s.AvgSalePerArea,
		SaleCount:         s.SaleCount,
		AvgRentPerArea:    s.AvgRentPerArea,
		RentCount:         s.RentCount,
		LatestSalePerArea: s.LatestSalePerArea,
		TotalCount:        s.TotalCount,
	}
	if s.LatestSaleDate != nil {
		d := s.LatestSaleDate.Format(dateLayout)
		dto.LatestSaleDate = &d
	}
	return dto
}

const dateLayout = "2006-01-02"

// Requests

type projectRequest struct {
	ProjectID uuid.UUID `json:"project_id" validate:"required"`
}

type rowRequest struct {
	RowID uuid.UUID `json:"row_id" validate:"required"`
}

type idRequest struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

type comparableRequest struct {
	ComparableID uuid.UUID `json:"comparable_id" validate:"required"`
}

type recomputeRowRequest struct {
	Row   rowDTO              `json:"row"`
	Field string              `json:"field" validate:"required,oneof=SURFACE PRICE_PER_AREA RENT_PER_AREA VENAL_VALUE RENTAL_ANNUAL RENTAL_MONTHLY"`
	Value decimal.NullDecimal `json:"value"`
}

type computeTotalsRequest struct {
	Rows []rowDTO `json:"rows"`
}

type estimationRequest struct {
	Estimation estimationDTO `json:"estimation"`
}

type priceFromRentRequest struct {
	Estimation   estimationDTO   `json:"estimation"`
	TotalSurface decimal.Decimal `json:"total_surface"`
}

type computeSimulationRequest struct {
	Input domain.SimulationInput `json:"input"`
}

type applyAdjustmentRequest struct {
	PricePerArea decimal.Decimal `json:"price_per_area"`
	Adjustment   decimal.Decimal `json:"adjustment"`
}

type addBreakdownRequest struct {
	ProjectID uuid.UUID `json:"project_id" validate:"required"`
	LocalType string    `json:"local_type" validate:"required,oneof=OFFICE RETAIL WAREHOUSE ACTIVITY LAND OTHER"`
}

type editBreakdownRequest struct {
	RowID uuid.UUID           `json:"row_id" validate:"required"`
	Field string              `json:"field" validate:"required,oneof=SURFACE PRICE_PER_AREA RENT_PER_AREA VENAL_VALUE RENTAL_ANNUAL RENTAL_MONTHLY"`
	Value decimal.NullDecimal `json:"value"`
}

type setLocalTypeRequest struct {
	RowID     uuid.UUID `json:"row_id" validate:"required"`
	LocalType string    `json:"local_type" validate:"required,oneof=OFFICE RETAIL WAREHOUSE ACTIVITY LAND OTHER"`
}

type reorderBreakdownsRequest struct {
	ProjectID uuid.UUID   `json:"project_id" validate:"required"`
	RowIDs    []uuid.UUID `json:"row_ids" validate:"dive,required"`
}

type saveEstimationRequest struct {
	ProjectID       uuid.UUID           `json:"project_id" validate:"required"`
	SalePriceLow    decimal.NullDecimal `json:"sale_price_low"`
	SalePriceHigh   decimal.NullDecimal `json:"sale_price_high"`
	SalePriceCustom decimal.NullDecimal `json:"sale_price_custom"`
	SaleCapRate     decimal.NullDecimal `json:"sale_cap_rate"`
	RentLow         decimal.NullDecimal `json:"rent_low"`
	RentHigh        decimal.NullDecimal `json:"rent_high"`
	RentCustom      decimal.NullDecimal `json:"rent_custom"`
	RentCapRate     decimal.NullDecimal `json:"rent_cap_rate"`
}

func (r saveEstimationRequest) toInput() analysis.EstimationInput {
	return analysis.EstimationInput{
		SalePriceLow:    r.SalePriceLow,
		SalePriceHigh:   r.SalePriceHigh,
		SalePriceCustom: r.SalePriceCustom,
		SaleCapRate:     r.SaleCapRate,
		RentLow:         r.RentLow,
		RentHigh:        r.RentHigh,
		RentCustom:      r.RentCustom,
		RentCapRate:     r.RentCapRate,
	}
}

type createSimulationRequest struct {
	ProjectID uuid.UUID               `json:"project_id" validate:"required"`
	Type      string                  `json:"type" validate:"required,oneof=RESERVE_FONCIERE CAPACITE_EMPRUNT EXTENSION RENOVATION OTHER"`
	Name      string                  `json:"name" validate:"required,max=255"`
	Input     *domain.SimulationInput `json:"input"`
	Notes     *string                 `json:"notes"`
}

type updateSimulationRequest struct {
	ID       uuid.UUID               `json:"id" validate:"required"`
	Name     *string                 `json:"name" validate:"omitempty,min=1,max=255"`
	Type     *string                 `json:"type" validate:"omitempty,oneof=RESERVE_FONCIERE CAPACITE_EMPRUNT EXTENSION RENOVATION OTHER"`
	Input    *domain.SimulationInput `json:"input"`
	Notes    *string                 `json:"notes"`
	Selected *bool                   `json:"selected"`
}

type selectComparableRequest struct {
	ProjectID       uuid.UUID           `json:"project_id" validate:"required"`
	Address         string              `json:"address"`
	City            string              `json:"city"`
	Surface         decimal.Decimal     `json:"surface"`
	Price           decimal.Decimal     `json:"price"`
	PricePerArea    decimal.NullDecimal `json:"price_per_area"`
	TransactionType string              `json:"transaction_type" validate:"required,oneof=SALE RENT"`
	TransactionDate *string             `json:"transaction_date" validate:"omitempty,datetime=2006-01-02"`
	Latitude        *float64            `json:"latitude" validate:"omitempty,latitude"`
	Longitude       *float64            `json:"longitude" validate:"omitempty,longitude"`
	Adjustment      decimal.Decimal     `json:"adjustment"`
}

func (r selectComparableRequest) toInput() (comparison.SelectComparableInput, error) {
	input := comparison.SelectComparableInput{
		ProjectID:       r.ProjectID,
		Address:         r.Address,
		City:            r.City,
		Surface:         r.Surface,
		Price:           r.Price,
		PricePerArea:    r.PricePerArea,
		TransactionType: domain.TransactionType(r.TransactionType),
		Adjustment:      r.Adjustment,
	}
	if r.TransactionDate != nil {
		d, err := time.Parse(dateLayout, *r.TransactionDate)
		if err != nil {
			return input, err
		}
		input.TransactionDate = &d
	}
	if r.Latitude != nil && r.Longitude != nil {
		input.Location = &domain.Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	return input, nil
}

type setAdjustmentRequest struct {
	ComparableID uuid.UUID       `json:"comparable_id" validate:"required"`
	Adjustment   decimal.Decimal `json:"adjustment"`
}

type getComparisonRequest struct {
	ProjectID        uuid.UUID `json:"project_id" validate:"required"`
	SubjectLatitude  *float64  `json:"subject_latitude" validate:"omitempty,latitude"`
	SubjectLongitude *float64  `json:"subject_longitude" validate:"omitempty,longitude"`
}

func (r getComparisonRequest) subject() *domain.Coordinates {
	if r.SubjectLatitude == nil || r.SubjectLongitude == nil {
		return nil
	}
	return &domain.Coordinates{Latitude: *r.SubjectLatitude, Longitude: *r.SubjectLongitude}
}
