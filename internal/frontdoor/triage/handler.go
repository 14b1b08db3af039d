// Package triage exposes the symptom pipeline over HTTP.
package triage

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/curalink/triage-gateway/internal/pipeline"
	"github.com/curalink/triage-gateway/internal/server"
	"github.com/curalink/triage-gateway/internal/storage"
)

// genericFailure is the only detail callers see when an upstream generation
// call fails. Coercion fallbacks, by contrast, are invisible here: they
// return 200 like any other result.
const genericFailure = "failed to analyze symptoms"

type Handler struct {
	runner *pipeline.Runner
	store  storage.RunStore // nil when run history is disabled
	logger *slog.Logger
}

func NewHandler(runner *pipeline.Runner, store storage.RunStore, logger *slog.Logger) *Handler {
	return &Handler{runner: runner, store: store, logger: logger}
}

// StageView is the wire form of one stage result.
type StageView struct {
	Name         string           `json:"name"`
	Status       pipeline.Status  `json:"status"`
	ElapsedMS    int64            `json:"elapsedMs"`
	PromptTokens int              `json:"promptTokens,omitempty"`
	Output       *pipeline.Output `json:"output,omitempty"`
}

// TriageResponse is the wire form of a full pipeline run.
type TriageResponse struct {
	RunID  string           `json:"runId"`
	Stages []StageView      `json:"stages"`
	Result *pipeline.Output `json:"result,omitempty"`
}

// HandleTriage runs the full pipeline for one patient report.
func (h *Handler) HandleTriage(w http.ResponseWriter, r *http.Request) {
	var in pipeline.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.Symptoms) == "" {
		respondError(w, http.StatusBadRequest, "symptoms is required")
		return
	}

	start := time.Now()
	res, err := h.runner.Run(r.Context(), in)
	elapsed := time.Since(start)

	runID := uuid.New().String()
	resp := &TriageResponse{
		RunID:  runID,
		Stages: stageViews(res),
		Result: res.Final,
	}

	if err != nil {
		server.AddError(r.Context(), err)
		h.saveRun(r, runID, in, resp, string(pipeline.StatusError), elapsed)
		respondError(w, http.StatusInternalServerError, genericFailure)
		return
	}

	h.saveRun(r, runID, in, resp, string(pipeline.StatusCompleted), elapsed)
	respondJSON(w, http.StatusOK, resp)
}

// HandleStage runs a single named stage in isolation.
func (h *Handler) HandleStage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "stage")

	var in pipeline.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.Symptoms) == "" {
		respondError(w, http.StatusBadRequest, "symptoms is required")
		return
	}

	sr, err := h.runner.RunSingle(r.Context(), name, in)
	if err != nil {
		if pipeline.IsUnknownStage(err) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, genericFailure)
		return
	}

	respondJSON(w, http.StatusOK, sr.Output)
}

// HandleListRuns returns stored run records, newest first.
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := h.store.ListRuns(r.Context(), opts)
	if err != nil {
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if recs == nil {
		recs = []*storage.RunRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"runs": recs})
}

// HandleGetRun returns one stored run record by ID.
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			respondError(w, http.StatusNotFound, "run not found")
			return
		}
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// parseListOptions reads limit/offset query parameters. Malformed or negative
// values are a client error, not something to silently reinterpret.
func parseListOptions(r *http.Request) (storage.ListOptions, error) {
	opts := storage.ListOptions{}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.New("limit must be a non-negative integer")
		}
		opts.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.New("offset must be a non-negative integer")
		}
		opts.Offset = n
	}
	return opts, nil
}

// HasStore reports whether run history is enabled.
func (h *Handler) HasStore() bool { return h.store != nil }

func (h *Handler) saveRun(r *http.Request, runID string, in pipeline.Input, resp *TriageResponse, status string, elapsed time.Duration) {
	if h.store == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("failed to marshal run record", slog.String("error", err.Error()))
		return
	}

	rec := &storage.RunRecord{
		ID:        runID,
		Symptoms:  in.Symptoms,
		Status:    status,
		Result:    data,
		ElapsedMS: elapsed.Milliseconds(),
		CreatedAt: time.Now().UTC(),
	}

	// Run history is best-effort; a storage failure never fails the request.
	if err := h.store.SaveRun(r.Context(), rec); err != nil {
		h.logger.Error("failed to save run record",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
	}
}

func stageViews(res *pipeline.Result) []StageView {
	views := make([]StageView, len(res.Stages))
	for i, sr := range res.Stages {
		views[i] = StageView{
			Name:         sr.Name,
			Status:       sr.Status,
			ElapsedMS:    sr.Elapsed.Milliseconds(),
			PromptTokens: sr.PromptTokens,
			Output:       sr.Output,
		}
	}
	return views
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
