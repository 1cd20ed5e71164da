package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower-api/internal/api/shared"
	"github.com/watchtowerhq/watchtower-api/internal/service"
)

// maxReportPageSize caps the limit parameter on report listings.
const maxReportPageSize = 50

// ReportHandler handles report-related HTTP requests.
type ReportHandler struct {
	intelligenceService service.IntelligenceService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(intelligenceService service.IntelligenceService) *ReportHandler {
	return &ReportHandler{
		intelligenceService: intelligenceService,
	}
}

// RequestReport handles POST /api/reports requests. A completed report for
// the current week is returned directly with 200; otherwise generation is
// enqueued and the pending report is returned with 202. Pass ?force=true
// to regenerate even when a cached report exists.
func (h *ReportHandler) RequestReport(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	report, err := h.intelligenceService.RequestReport(r.Context(), force)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	status := http.StatusAccepted
	if report.IsTerminal() {
		status = http.StatusOK
	}

	shared.RespondWithJSON(w, r, status, reportToResponse(report))
}

// GetLatestReport handles GET /api/reports/latest requests.
func (h *ReportHandler) GetLatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.intelligenceService.GetLatestReport(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reportToResponse(report))
}

// GetReport handles GET /api/reports/{id} requests. Clients poll this
// endpoint to track a pending report's progress.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid report ID")
		return
	}

	report, err := h.intelligenceService.GetReport(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reportToResponse(report))
}

// ListReports handles GET /api/reports requests with optional limit and
// offset query parameters.
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", 10)
	offset := parseQueryInt(r, "offset", 0)

	if limit < 1 || limit > maxReportPageSize {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
		return
	}
	if offset < 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid offset parameter")
		return
	}

	reports, err := h.intelligenceService.ListReports(r.Context(), limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	response := make([]ReportSummaryResponse, 0, len(reports))
	for _, report := range reports {
		response = append(response, reportToSummary(report))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// parseQueryInt reads an integer query parameter, returning the fallback
// when the parameter is absent or malformed.
func parseQueryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return value
}
