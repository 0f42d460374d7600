/*
handlers.go - HTTP handlers for the report API

ENDPOINTS:
  GET  /api/reports       Weekly time reports for a date range
                          query: from, to (yyyy-mm-dd, required)
                                 search, team, role (optional filters)
  GET  /api/timetypes     Reference list
  GET  /api/teams         Reference list
  GET  /api/roles         Reference list
  POST /api/admin/seed    Reload the demo dataset, streaming NDJSON
                          progress
  GET  /api/health        Liveness probe

ERROR HANDLING:
  - 400 for missing/malformed dates
  - 500 for fetch failures, passed through from the store untouched
  An inverted range is not an error: it returns an empty report list.

SEE ALSO:
  - dto.go: Response shapes
  - server.go: Router and middleware
  - report/assembler.go: The engine entry point
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/loom/timereport/report"
	"github.com/loom/timereport/store/sqlite"
)

// Handler holds the dependencies shared by all endpoints.
type Handler struct {
	Store     *sqlite.Store
	Assembler *report.Assembler
	Log       zerolog.Logger
}

// NewHandler wires the handler to its store and assembler.
func NewHandler(store *sqlite.Store, assembler *report.Assembler, log zerolog.Logger) *Handler {
	return &Handler{Store: store, Assembler: assembler, Log: log}
}

// GetReports serves the weekly report query.
func (h *Handler) GetReports(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := report.Query{
		From:   from,
		To:     to,
		Search: r.URL.Query().Get("search"),
		Team:   r.URL.Query().Get("team"),
		Role:   r.URL.Query().Get("role"),
	}
	data, err := h.Assembler.TimeReportData(r.Context(), q)
	if err != nil {
		h.Log.Error().Err(err).Msg("report generation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toReportDataResponse(data))
}

// ListTimeTypes serves the time type reference list.
func (h *Handler) ListTimeTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Store.ListTimeTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]TimeTypeDTO, 0, len(types))
	for _, tt := range types {
		out = append(out, toTimeTypeDTO(tt))
	}
	writeJSON(w, http.StatusOK, out)
}

// ListTeams serves the team reference list.
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Store.ListTeams(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]TeamDTO, 0, len(teams))
	for _, t := range teams {
		out = append(out, TeamDTO{ID: string(t.ID), Name: t.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListRoles serves the role reference list.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Store.ListRoles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]RoleDTO, 0, len(roles))
	for _, ro := range roles {
		out = append(out, RoleDTO{ID: string(ro.ID), Name: ro.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// SeedDemo reloads the demo dataset while streaming progress.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	progress := NewProgressWriter(w, "seed")

	err := h.Store.Seed(r.Context(), func(stage string, pct int) {
		progress.Send(ProgressInfo, stage, pct)
	})
	if err != nil {
		h.Log.Error().Err(err).Msg("seed failed")
		progress.Send(ProgressError, err.Error(), 100)
	} else {
		progress.Send(ProgressSuccess, "Demo data loaded", 100)
	}
	progress.Complete()
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, &paramError{name: name, reason: "is required (yyyy-mm-dd)"}
	}
	d, err := time.ParseInLocation("2006-01-02", v, time.UTC)
	if err != nil {
		return time.Time{}, &paramError{name: name, reason: "must be yyyy-mm-dd"}
	}
	return d, nil
}

type paramError struct {
	name   string
	reason string
}

func (e *paramError) Error() string { return "parameter " + e.name + " " + e.reason }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
