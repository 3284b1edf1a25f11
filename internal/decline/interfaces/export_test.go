package interfaces

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	decline "decline-cloud/internal/decline/domain"
)

func TestBuildRatesXLSX(t *testing.T) {
	day := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	rows := []decline.RateRecord{
		{WellID: "W1", Date: day, OilVolume: 900, QOil: 950, ErrorOil: 5.5},
		{WellID: "W1", Date: day.AddDate(0, 1, 0), OilVolume: 850, QOil: 900, ErrorOil: 5.8},
	}
	summaries := []decline.ErrorSummary{{WellID: "W1", ErrorOil: 5.65, Policy: decline.PolicyMedian}}

	data, err := BuildRatesXLSX(rows, summaries)
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("rates", "B3")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "2024-03-01" {
		t.Fatalf("expected second period date, got %q", got)
	}
	well, err := f.GetCellValue("errors", "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if well != "W1" {
		t.Fatalf("expected W1 summary row, got %q", well)
	}
}

func TestBuildErrorSummaryPDF(t *testing.T) {
	summaries := []decline.ErrorSummary{{WellID: "W1", ErrorOil: 3, ErrorGas: 4}}
	stats := decline.SummarizePopulation(summaries)
	data, err := BuildErrorSummaryPDF(summaries, stats, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected pdf header")
	}
}
