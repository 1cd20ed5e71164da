package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower-api/internal/api/shared"
	"github.com/watchtowerhq/watchtower-api/internal/service"
)

// CompetitorHandler handles competitor-related HTTP requests.
type CompetitorHandler struct {
	competitorService service.CompetitorService
}

// NewCompetitorHandler creates a new CompetitorHandler.
func NewCompetitorHandler(competitorService service.CompetitorService) *CompetitorHandler {
	return &CompetitorHandler{
		competitorService: competitorService,
	}
}

// ListCompetitors handles GET /api/competitors requests.
func (h *CompetitorHandler) ListCompetitors(w http.ResponseWriter, r *http.Request) {
	competitors, err := h.competitorService.ListCompetitors(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	response := make([]CompetitorResponse, 0, len(competitors))
	for _, c := range competitors {
		response = append(response, competitorToResponse(c))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// CreateCompetitor handles POST /api/competitors requests.
func (h *CompetitorHandler) CreateCompetitor(w http.ResponseWriter, r *http.Request) {
	var req CreateCompetitorRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	competitor, err := h.competitorService.AddCompetitor(r.Context(), req.Name, req.Owner, req.Repo)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, competitorToResponse(competitor))
}

// GetCompetitor handles GET /api/competitors/{id} requests.
func (h *CompetitorHandler) GetCompetitor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid competitor ID")
		return
	}

	competitor, err := h.competitorService.GetCompetitor(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, competitorToResponse(competitor))
}

// DeleteCompetitor handles DELETE /api/competitors/{id} requests.
func (h *CompetitorHandler) DeleteCompetitor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid competitor ID")
		return
	}

	if err := h.competitorService.RemoveCompetitor(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
