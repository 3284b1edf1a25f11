package http

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"decline-cloud/internal/audit"
	declineapp "decline-cloud/internal/decline/application"
	decline "decline-cloud/internal/decline/domain"
	"decline-cloud/internal/decline/infrastructure/memory"
)

var peak = time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAudit) Log(_ context.Context, entry audit.Entry) error {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *recordingAudit) {
	t.Helper()
	var samples []decline.Sample
	for i := 0; i < 6; i++ {
		date := peak.AddDate(0, i, 0)
		years := decline.ElapsedYears(peak, date)
		for _, id := range []string{"W1", "W2"} {
			samples = append(samples, decline.Sample{
				WellID:    id,
				Date:      date,
				OilVolume: 1000 * math.Exp(-0.5*years),
				GasVolume: 5000 * math.Exp(-0.5*years),
			})
		}
	}
	model, err := decline.NewDeclineModel("W1", peak,
		decline.FluidParams{InitialRate: 1000, NominalDeclinePct: 50},
		decline.FluidParams{InitialRate: 5000, NominalDeclinePct: 50},
	)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	service, err := declineapp.NewPopulationService(
		memory.NewProductionRepository(samples...),
		memory.NewModelRepository(model.Record()),
		memory.NewRateStore(),
		memory.NewSummaryStore(),
		declineapp.DefaultConfig(),
		declineapp.WithLogger(log.New(io.Discard, "", 0)),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	recorder := &recordingAudit{}
	handler, err := NewHandler(service, recorder, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, recorder
}

func TestHandlerRunFitsAndReadTables(t *testing.T) {
	handler, recorder := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/decline/fits", strings.NewReader(`{"iterate_di":false}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var report declineapp.RunReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Fitted) != 1 || len(report.Skipped) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/decline/rates?well_id=W1", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	var rows []decline.RateRecord
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(rows))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/decline/errors", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	var body struct {
		Summaries []decline.ErrorSummary  `json:"summaries"`
		Stats     decline.PopulationStats `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode errors: %v", err)
	}
	if len(body.Summaries) != 1 || body.Stats.Wells != 1 {
		t.Fatalf("unexpected error summary %+v", body)
	}

	if len(recorder.entries) != 1 || recorder.entries[0].Action != "decline.population.fit" {
		t.Fatalf("expected one audit entry, got %+v", recorder.entries)
	}
}

func TestHandlerPutModel(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := `{"peak_date":"2022-06-01","oil":{"initial_rate":1000,"nominal_decline":100,"b_factor":0,"min_decline_floor":0},"gas":{"initial_rate":5000,"nominal_decline":50,"b_factor":0,"min_decline_floor":0}}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/decline/wells/W2/model", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var result declineapp.WellResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Summary.WellID != "W2" || result.Summary.OilDi != 99.9 {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/decline/wells/W2/model", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected stored model, got %d", resp.Code)
	}
}

func TestHandlerPutModelValidation(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := `{"peak_date":"2022-06-01","oil":{"initial_rate":0,"nominal_decline":50},"gas":{"initial_rate":5000,"nominal_decline":50}}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/decline/wells/W1/model", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/decline/wells/W1/model", strings.NewReader(`{"peak_date":"soon"}`))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad peak date, got %d", resp.Code)
	}
	if body := resp.Body.String(); !strings.Contains(body, "01/02/2006") || !strings.Contains(body, "2006-01-02") {
		t.Fatalf("expected accepted layouts in message, got %q", body)
	}

	body = `{"peak_date":"06/01/2022","oil":{"initial_rate":1000,"nominal_decline":50},"gas":{"initial_rate":5000,"nominal_decline":50}}`
	req = httptest.NewRequest(http.MethodPut, "/api/v1/decline/wells/W1/model", strings.NewReader(body))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected slash-dated peak accepted, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestHandlerPutModelUnknownWell(t *testing.T) {
	handler, recorder := newTestHandler(t)

	body := `{"peak_date":"2022-06-01","oil":{"initial_rate":1000,"nominal_decline":50},"gas":{"initial_rate":5000,"nominal_decline":50}}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/decline/wells/GHOST/model", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(recorder.entries) != 0 {
		t.Fatalf("expected no audit entry, got %+v", recorder.entries)
	}
}

func TestHandlerMissingModelAndUnknownRoute(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/decline/wells/W2/model", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/decline/rates", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHandlerExports(t *testing.T) {
	handler, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decline/fits", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/decline/exports/rates.xlsx", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || resp.Body.Len() == 0 {
		t.Fatalf("expected xlsx body, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/decline/exports/summary.pdf", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
}
