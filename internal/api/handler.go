// Package api exposes the matching service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cohortmatch/internal/cohort"
	"cohortmatch/internal/domain"
	"cohortmatch/internal/engine"
	"cohortmatch/internal/service"
)

// Handler implements the HTTP endpoints over the matching service.
// stats may be nil when the analytics engine is disabled.
type Handler struct {
	matching *service.MatchingService
	stats    *engine.StatsEngine
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(matching *service.MatchingService, stats *engine.StatsEngine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{matching: matching, stats: stats, logger: logger.With("component", "api")}
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type entityResponse struct {
	EID       int64    `json:"eid"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Age       int64    `json:"age"`
	Country   string   `json:"country"`
	ZipCode   string   `json:"zip_code"`
	Emails    []string `json:"emails"`
}

type cohortResponse struct {
	ID       string `json:"id"`
	RuleLine string `json:"rule_line"`
}

type matchResponse struct {
	EID     int64    `json:"eid"`
	Cohorts []string `json:"cohorts"`
}

type addCohortRequest struct {
	RuleLine string `json:"rule_line"`
}

func entityToAPI(e *domain.Entity) entityResponse {
	emails := e.Emails
	if emails == nil {
		emails = []string{}
	}
	return entityResponse{
		EID:       e.EID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Age:       e.Age,
		Country:   e.Country,
		ZipCode:   e.ZipCode,
		Emails:    emails,
	}
}

func cohortToAPI(c *cohort.Cohort) cohortResponse {
	return cohortResponse{ID: c.ID, RuleLine: c.RuleLine()}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("write response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Code: status, Message: err.Error()})
}

func eidParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "eid")
	eid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entity id %q", raw)
	}
	return eid, nil
}

// Health responds to liveness probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListEntities returns all loaded entities in file order.
func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	entities := h.matching.Entities(r.Context())
	out := make([]entityResponse, len(entities))
	for i := range entities {
		out[i] = entityToAPI(&entities[i])
	}
	h.writeJSON(w, http.StatusOK, out)
}

// GetEntity returns one entity by id.
func (h *Handler) GetEntity(w http.ResponseWriter, r *http.Request) {
	eid, err := eidParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := h.matching.Entity(r.Context(), eid)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entityToAPI(e))
}

// MatchEntity returns all cohort IDs the entity belongs to.
func (h *Handler) MatchEntity(w http.ResponseWriter, r *http.Request) {
	eid, err := eidParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	ids, err := h.matching.MatchByEID(r.Context(), eid)
	if err != nil {
		if errors.Is(err, domain.ErrEntityNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	h.writeJSON(w, http.StatusOK, matchResponse{EID: eid, Cohorts: ids})
}

// ListCohorts returns the cohort table in store order.
func (h *Handler) ListCohorts(w http.ResponseWriter, r *http.Request) {
	cohorts := h.matching.Cohorts(r.Context())
	out := make([]cohortResponse, len(cohorts))
	for i, c := range cohorts {
		out[i] = cohortToAPI(c)
	}
	h.writeJSON(w, http.StatusOK, out)
}

// AddCohort upserts a cohort from a rule line.
func (h *Handler) AddCohort(w http.ResponseWriter, r *http.Request) {
	var req addCohortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	c, err := h.matching.AddCohort(r.Context(), req.RuleLine)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, cohortToAPI(c))
}

// Stats serves the fixed aggregate summary.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		h.writeError(w, http.StatusServiceUnavailable, errors.New("stats engine not configured"))
		return
	}
	summary, err := h.stats.Summary(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}
