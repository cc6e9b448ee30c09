package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/janus/internal/backfill"
)

// BackfillHandler proxies API calls to the backfill service.
type BackfillHandler struct {
	service *backfill.Service
}

// NewBackfillHandler wires the REST layer to the backfill service.
func NewBackfillHandler(service *backfill.Service) *BackfillHandler {
	return &BackfillHandler{service: service}
}

type apiBackfillRequest struct {
	GameID  int      `json:"game_id"`
	GameIDs []int    `json:"game_ids"`
	Paths   []string `json:"paths"`
	Workers int      `json:"workers"`
	DryRun  bool     `json:"dry_run"`
}

func (req apiBackfillRequest) toRequest() backfill.Request {
	out := backfill.Request{
		Paths:   req.Paths,
		Workers: req.Workers,
		DryRun:  req.DryRun,
	}
	out.GameIDs = append(out.GameIDs, req.GameIDs...)
	if req.GameID != 0 {
		out.GameIDs = append(out.GameIDs, req.GameID)
	}
	return out
}

// HandleBackfillRequest handles POST /api/v1/backfill
func (h *BackfillHandler) HandleBackfillRequest(w http.ResponseWriter, r *http.Request) {
	var req apiBackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.service.Enqueue(r.Context(), req.toRequest())
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to enqueue backfill job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": jobPayload(job),
	})
}

// HandleBackfillStatus handles GET /api/v1/backfill/status
func (h *BackfillHandler) HandleBackfillStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	payload := buildStatusPayload(summary)
	respondJSON(w, http.StatusOK, payload)
}

// HandleJobEvents handles GET /api/v1/backfill/jobs/{jobID}/events
func (h *BackfillHandler) HandleJobEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.Events(r.Context(), mux.Vars(r)["jobID"])
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch job events", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

func buildStatusPayload(summary *backfill.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active jobs",
		"history": []map[string]interface{}{},
	}

	if summary.ActiveJob != nil {
		response["status"] = summary.ActiveJob.Status
		if summary.ActiveJob.StatusMessage.Valid {
			response["message"] = summary.ActiveJob.StatusMessage.String
		}
		response["active_job"] = jobPayload(summary.ActiveJob)
	}

	history := make([]map[string]interface{}, 0, len(summary.History))
	for _, job := range summary.History {
		history = append(history, jobPayload(job))
	}

	response["history"] = history
	return response
}

func jobPayload(job *backfill.Job) map[string]interface{} {
	if job == nil {
		return nil
	}

	payload := map[string]interface{}{
		"job_id":           job.JobID,
		"job_type":         job.JobType,
		"status":           job.Status,
		"workers":          job.Workers,
		"dry_run":          job.DryRun,
		"progress_current": job.ProgressCurrent,
		"progress_total":   job.ProgressTotal,
		"games_processed":  job.GamesProcessed,
		"games_skipped":    job.GamesSkipped,
		"created_at":       job.CreatedAt,
		"updated_at":       job.UpdatedAt,
	}

	if job.StatusMessage.Valid {
		payload["status_message"] = job.StatusMessage.String
	}
	if len(job.GameIDs) > 0 {
		payload["game_ids"] = job.GameIDs
	}
	if len(job.Paths) > 0 {
		payload["paths"] = job.Paths
	}
	if job.StartedAt.Valid {
		payload["started_at"] = job.StartedAt.Time
	}
	if job.CompletedAt.Valid {
		payload["completed_at"] = job.CompletedAt.Time
	}
	if job.LastError.Valid {
		payload["last_error"] = job.LastError.String
	}

	return payload
}
