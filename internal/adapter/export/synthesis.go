// Package export renders valuation tables to spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/oryem/appraisal-backend/internal/domain"
)

// DefaultSheetName is the name of the synthesis sheet
const DefaultSheetName = "Synthesis"

var synthesisHeader = []interface{}{
	"Type",
	"Surface (m²)",
	"Price / m²",
	"Venal value",
	"Rent / m² / year",
	"Annual rent",
	"Monthly rent",
}

var localTypeLabels = map[domain.LocalType]string{
	domain.LocalTypeOffice:    "Office",
	domain.LocalTypeRetail:    "Retail",
	domain.LocalTypeWarehouse: "Warehouse",
	domain.LocalTypeActivity:  "Activity premises",
	domain.LocalTypeLand:      "Land",
	domain.LocalTypeOther:     "Other",
}

// SynthesisWorkbook writes the synthesis table as an XLSX workbook
type SynthesisWorkbook struct {
	SheetName string
}

// NewSynthesisWorkbook creates a writer using DefaultSheetName
func NewSynthesisWorkbook() *SynthesisWorkbook {
	return &SynthesisWorkbook{SheetName: DefaultSheetName}
}

// WriteSynthesis writes one header line, one line per row in the given order, then the totals line.
// Empty values are left blank.
func (s *SynthesisWorkbook) WriteSynthesis(w io.Writer, rows []*domain.BreakdownRow, totals domain.SynthesisTotals) error {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := s.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := xl.SetSheetRow(sheet, "A1", &synthesisHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	line := 2
	for _, row := range rows {
		if row == nil {
			continue
		}
		record := []interface{}{
			localTypeLabel(row.LocalType),
			cell(row.Surface),
			cell(row.PricePerArea),
			cell(row.VenalValue),
			cell(row.RentPerArea),
			cell(row.RentalValueAnnual),
			cell(row.RentalValueMonthly),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, line)
		if err := xl.SetSheetRow(sheet, cellRef, &record); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row.ID, err)
		}
		line++
	}

	totalsRecord := []interface{}{
		"Total",
		number(totals.TotalSurface),
		number(totals.AvgPricePerArea),
		number(totals.TotalVenalValue),
		number(totals.AvgRentPerArea),
		number(totals.TotalRentalAnnual),
		number(totals.TotalRentalMonthly),
	}
	totalsRef, _ := excelize.CoordinatesToCellName(1, line)
	if err := xl.SetSheetRow(sheet, totalsRef, &totalsRecord); err != nil {
		return fmt.Errorf("failed to write totals: %w", err)
	}

	bold, err := xl.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(synthesisHeader), 1)
	lastTotal, _ := excelize.CoordinatesToCellName(len(synthesisHeader), line)
	_ = xl.SetCellStyle(sheet, "A1", lastHeader, bold)
	_ = xl.SetCellStyle(sheet, totalsRef, lastTotal, bold)
	_ = xl.SetColWidth(sheet, "A", "G", 18)

	if err := xl.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func localTypeLabel(t domain.LocalType) string {
	if label, ok := localTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

func cell(v decimal.NullDecimal) interface{} {
	if !v.Valid {
		return nil
	}
	return number(v.Decimal)
}

func number(v decimal.Decimal) float64 {
	return v.InexactFloat64()
}
