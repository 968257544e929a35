package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/storage"
)

// RunsHandler serves the recorded scan runs.
type RunsHandler struct {
	store  storage.Store
	logger *slog.Logger
}

// NewRunsHandler creates a runs handler. A nil store makes every request answer 503.
func NewRunsHandler(store storage.Store, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{store: store, logger: logger}
}

type runsQuery struct {
	repo  string
	pr    int
	limit int
}

func parseRunsQuery(r *http.Request) (runsQuery, error) {
	q := runsQuery{repo: r.URL.Query().Get("repo")}
	if q.repo == "" {
		return q, errors.New("repo query parameter is required")
	}
	var err error
	if v := r.URL.Query().Get("pr"); v != "" {
		if q.pr, err = strconv.Atoi(v); err != nil || q.pr < 0 {
			return q, errors.New("pr must be a non-negative number")
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if q.limit, err = strconv.Atoi(v); err != nil || q.limit < 0 {
			return q, errors.New("limit must be a non-negative number")
		}
	}
	return q, nil
}

// List handles GET /runs?repo=owner/name[&pr=N][&limit=N].
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "Scan history is not configured", http.StatusServiceUnavailable)
		return
	}
	q, err := parseRunsQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	runs, err := h.store.ListRuns(r.Context(), q.repo, q.pr, q.limit)
	if err != nil {
		h.logger.Error("failed to list scan runs", "repo", q.repo, "error", err)
		http.Error(w, "Failed to list scan runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []core.ScanRun{}
	}
	writeJSON(w, h.logger, runs)
}

// Latest handles GET /runs/latest?repo=owner/name&pr=N.
func (h *RunsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "Scan history is not configured", http.StatusServiceUnavailable)
		return
	}
	q, err := parseRunsQuery(r)
	if err == nil && q.pr == 0 {
		err = errors.New("pr query parameter is required")
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	run, err := h.store.LatestRun(r.Context(), q.repo, q.pr)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "No scan run found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("failed to get latest scan run", "repo", q.repo, "pr", q.pr, "error", err)
		http.Error(w, "Failed to get scan run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, run)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
