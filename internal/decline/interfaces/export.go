package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	decline "decline-cloud/internal/decline/domain"
)

const dateLayout = "2006-01-02"

// BuildRatesXLSX renders the production-rates and error-summary tables.
func BuildRatesXLSX(rows []decline.RateRecord, summaries []decline.ErrorSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	ratesSheet := "rates"
	errorsSheet := "errors"
	if err := f.SetSheetName("Sheet1", ratesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(errorsSheet); err != nil {
		return nil, err
	}

	headers := []string{"Well", "Date", "Oil Volume", "Q Oil", "Error Oil (%)", "Gas Volume", "Q Gas", "Error Gas (%)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(ratesSheet, cell, h)
	}
	for i, rec := range rows {
		row := i + 2
		_ = f.SetCellValue(ratesSheet, fmt.Sprintf("A%d", row), rec.WellID)
		_ = f.SetCellValue(ratesSheet, fmt.Sprintf("B%d", row), rec.Date.Format(dateLayout))
		_ = f.SetCellValue(ratesSheet, fmt.Sprintf("C%d", row), rec.OilVolume)
		_ = f.SetCellValue(ratesSheet, fmt.Sprintf("D%d", row), rec.QOil)
		_ = f.SetCellValue(ratesSheet, fmt.Sprintf("E%d", row), rec.ErrorOil)
		_ = f.SetCellValue(ratesSheet, fmt.Sprintf("F%d", row), rec.GasVolume)
		_ = f.SetCellValue(ratesSheet, fmt.Sprintf("G%d", row), rec.QGas)
		_ = f.SetCellValue(ratesSheet, fmt.Sprintf("H%d", row), rec.ErrorGas)
	}

	_ = f.SetCellValue(errorsSheet, "A1", "Well")
	_ = f.SetCellValue(errorsSheet, "B1", "Error Oil (%)")
	_ = f.SetCellValue(errorsSheet, "C1", "Error Gas (%)")
	_ = f.SetCellValue(errorsSheet, "D1", "Di Oil (%)")
	_ = f.SetCellValue(errorsSheet, "E1", "Di Gas (%)")
	_ = f.SetCellValue(errorsSheet, "F1", "Policy")
	for i, s := range summaries {
		row := i + 2
		_ = f.SetCellValue(errorsSheet, fmt.Sprintf("A%d", row), s.WellID)
		_ = f.SetCellValue(errorsSheet, fmt.Sprintf("B%d", row), s.ErrorOil)
		_ = f.SetCellValue(errorsSheet, fmt.Sprintf("C%d", row), s.ErrorGas)
		_ = f.SetCellValue(errorsSheet, fmt.Sprintf("D%d", row), s.OilDi)
		_ = f.SetCellValue(errorsSheet, fmt.Sprintf("E%d", row), s.GasDi)
		_ = f.SetCellValue(errorsSheet, fmt.Sprintf("F%d", row), s.Policy)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildErrorSummaryPDF renders the error-summary table with population statistics.
func BuildErrorSummaryPDF(summaries []decline.ErrorSummary, stats decline.PopulationStats, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Decline Fit Error Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Wells: %d", stats.Wells))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Oil error mean/std/max (%%): %.2f / %.2f / %.2f", stats.Oil.Mean, stats.Oil.StdDev, stats.Oil.Max))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Gas error mean/std/max (%%): %.2f / %.2f / %.2f", stats.Gas.Mean, stats.Gas.StdDev, stats.Gas.Max))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Above economic limit: oil %d, gas %d", stats.Oil.AboveLimit, stats.Gas.AboveLimit))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Well", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Error Oil", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Error Gas", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Di Oil", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Di Gas", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, s := range summaries {
		pdf.CellFormat(40, 6, s.WellID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", s.ErrorOil), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", s.ErrorGas), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.1f", s.OilDi), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.1f", s.GasDi), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
