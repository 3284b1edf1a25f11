package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"decline-cloud/internal/audit"
	declineapp "decline-cloud/internal/decline/application"
	decline "decline-cloud/internal/decline/domain"
	declineinterfaces "decline-cloud/internal/decline/interfaces"
	"decline-cloud/internal/observability/metrics"
)

const apiPrefix = "/api/v1/decline/"

// Handler serves decline engine endpoints.
type Handler struct {
	service     *declineapp.PopulationService
	auditLogger audit.Logger
	logger      *log.Logger
	now         func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(service *declineapp.PopulationService, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("decline handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		service:     service,
		auditLogger: auditLogger,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// ServeHTTP routes decline requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, apiPrefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, apiPrefix), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "fits" && r.Method == http.MethodPost:
		h.handleRunFits(w, r)
	case path == "rates" && r.Method == http.MethodGet:
		h.handleRates(w, r)
	case path == "errors" && r.Method == http.MethodGet:
		h.handleErrors(w, r)
	case path == "config" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, h.service.Config())
	case path == "exports/rates.xlsx" && r.Method == http.MethodGet:
		h.handleRatesXLSX(w, r)
	case path == "exports/summary.pdf" && r.Method == http.MethodGet:
		h.handleSummaryPDF(w, r)
	case len(parts) == 3 && parts[0] == "wells" && parts[1] != "" && parts[2] == "model":
		switch r.Method {
		case http.MethodGet:
			h.handleGetModel(w, r, parts[1])
		case http.MethodPut:
			h.handlePutModel(w, r, parts[1])
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type runFitsRequest struct {
	LoadOil   *bool `json:"load_oil"`
	LoadGas   *bool `json:"load_gas"`
	IterateDi bool  `json:"iterate_di"`
}

func (h *Handler) handleRunFits(w http.ResponseWriter, r *http.Request) {
	var req runFitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	opts := declineapp.RunOptions{
		Flags:     decline.LoadFlags{Oil: boolOr(req.LoadOil, true), Gas: boolOr(req.LoadGas, true)},
		IterateDi: req.IterateDi,
	}
	report, err := h.service.RunFullPopulation(r.Context(), opts)
	if errors.Is(err, declineapp.ErrPassAborted) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
	h.logAudit(r, "decline.population.fit", "population", report.RunID, map[string]any{
		"load_oil":   opts.Flags.Oil,
		"load_gas":   opts.Flags.Gas,
		"iterate_di": opts.IterateDi,
		"fitted":     len(report.Fitted),
	})
}

type putModelRequest struct {
	PeakDate string              `json:"peak_date"`
	Oil      decline.FluidParams `json:"oil"`
	Gas      decline.FluidParams `json:"gas"`
	LoadOil  *bool               `json:"load_oil"`
	LoadGas  *bool               `json:"load_gas"`
}

func (h *Handler) handlePutModel(w http.ResponseWriter, r *http.Request, wellID string) {
	var req putModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	peak, err := decline.ParsePeakDate(req.PeakDate)
	if err != nil {
		http.Error(w, "peak_date: "+err.Error(), http.StatusBadRequest)
		return
	}
	model := decline.DeclineModel{WellID: wellID, PeakDate: peak, Oil: req.Oil, Gas: req.Gas}
	flags := decline.LoadFlags{Oil: boolOr(req.LoadOil, true), Gas: boolOr(req.LoadGas, true)}

	result, err := h.service.UpdateSingleWell(r.Context(), model, flags)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, decline.ErrWellNotFound):
			status = http.StatusNotFound
		case isClientError(err):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, result)
	h.logAudit(r, "decline.well.update", "well", wellID, map[string]any{
		"di_oil": result.Summary.OilDi,
		"di_gas": result.Summary.GasDi,
	})
}

func (h *Handler) handleGetModel(w http.ResponseWriter, r *http.Request, wellID string) {
	rec, err := h.service.Model(r.Context(), wellID)
	if errors.Is(err, decline.ErrModelNotFound) {
		http.Error(w, "model not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleRates(w http.ResponseWriter, r *http.Request) {
	rows := h.service.Rates(strings.TrimSpace(r.URL.Query().Get("well_id")))
	if rows == nil {
		rows = []decline.RateRecord{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request) {
	_ = r
	summaries := h.service.Summaries()
	writeJSON(w, http.StatusOK, struct {
		Summaries []decline.ErrorSummary  `json:"summaries"`
		Stats     decline.PopulationStats `json:"stats"`
	}{
		Summaries: summaries,
		Stats:     decline.SummarizePopulation(summaries),
	})
}

func (h *Handler) handleRatesXLSX(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	data, err := declineinterfaces.BuildRatesXLSX(h.service.Rates(""), h.service.Summaries())
	if err != nil {
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(start))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport("xlsx", metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="decline_rates.xlsx"`)
	_, _ = w.Write(data)
	h.logAudit(r, "decline.export.xlsx", "export", "rates", nil)
}

func (h *Handler) handleSummaryPDF(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	summaries := h.service.Summaries()
	data, err := declineinterfaces.BuildErrorSummaryPDF(summaries, decline.SummarizePopulation(summaries), h.now())
	if err != nil {
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(start))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport("pdf", metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="decline_summary.pdf"`)
	_, _ = w.Write(data)
	h.logAudit(r, "decline.export.pdf", "export", "summary", nil)
}

func (h *Handler) logAudit(r *http.Request, action, resourceType, resourceID string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	if err := h.auditLogger.Log(r.Context(), audit.RequestEntry(r, action, resourceType, resourceID, meta)); err != nil {
		h.logger.Printf("decline audit error: action=%s err=%v", action, err)
	}
}

func isClientError(err error) bool {
	return errors.Is(err, decline.ErrMalformedModel) ||
		errors.Is(err, decline.ErrInvalidPeakDate) ||
		errors.Is(err, decline.ErrEmptyWellID) ||
		errors.Is(err, decline.ErrWellMismatch) ||
		errors.Is(err, decline.ErrSamplesOutOfOrder)
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
