package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fortuna/janus/internal/pbp"
	"github.com/fortuna/janus/internal/pipeline"
	"github.com/fortuna/janus/internal/service"
	"github.com/fortuna/janus/internal/store"
	"github.com/fortuna/janus/internal/store/repository"
)

// maxBundleBytes bounds a posted game bundle
const maxBundleBytes = 32 << 20

// Catalog serves stored rosters and teams
type Catalog interface {
	Roster(ctx context.Context, gameID int) ([]*store.RosterPlayer, error)
	Teams(ctx context.Context) ([]*store.Team, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	games   *service.GameService
	stats   *service.StatsService
	catalog Catalog
	health  func() error
}

// NewHandler creates a new handler. health may be nil.
func NewHandler(games *service.GameService, stats *service.StatsService, catalog Catalog, health func() error) *Handler {
	return &Handler{
		games:   games,
		stats:   stats,
		catalog: catalog,
		health:  health,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(); err != nil {
			respondError(w, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "janus",
	})
}

// ProcessGame runs the pipeline on a posted bundle and stores the result.
// A skipped game answers 422 with the skip reason.
func (h *Handler) ProcessGame(w http.ResponseWriter, r *http.Request) {
	var bundle pipeline.Bundle
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBundleBytes)).Decode(&bundle); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid bundle", err)
		return
	}

	res, err := h.games.Process(r.Context(), &bundle)
	if err != nil {
		reason := pipeline.Classify(err)
		h.games.Skipped(r.Context(), "api", reason, err)
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Game skipped",
			"reason":  reason,
			"status":  http.StatusUnprocessableEntity,
			"details": err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"summary": res.Summary(),
		"issues":  res.Issues,
	})
}

// GetGame returns a stored game header
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDVar(w, r)
	if !ok {
		return
	}

	game, err := h.games.Game(r.Context(), gameID)
	if err != nil {
		respondLookupError(w, "Failed to fetch game", err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

// GetGamePlays returns a game's enriched play-by-play
func (h *Handler) GetGamePlays(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDVar(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := service.PlayFilter{
		Event:  pbp.EventType(q.Get("event")),
		Player: q.Get("player"),
	}
	if period := q.Get("period"); period != "" {
		p, err := strconv.Atoi(period)
		if err != nil || p < 1 {
			respondError(w, http.StatusBadRequest, "Invalid period", err)
			return
		}
		filter.Period = p
	}

	plays, err := h.games.Plays(r.Context(), gameID, filter)
	if err != nil {
		respondLookupError(w, "Failed to fetch plays", err)
		return
	}

	respondJSON(w, http.StatusOK, plays)
}

// GetGameStats returns a game's stat rows. totals=true collapses them to
// one row per player.
func (h *Handler) GetGameStats(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDVar(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	rows, err := h.games.Stats(r.Context(), gameID, service.StatFilter{
		Team:          q.Get("team"),
		Player:        q.Get("player"),
		StrengthState: q.Get("strength"),
	})
	if err != nil {
		respondLookupError(w, "Failed to fetch stats", err)
		return
	}

	if q.Get("totals") == "true" {
		rows = service.GameTotals(rows)
	}
	respondJSON(w, http.StatusOK, rows)
}

// GetGameRoster returns a game's stored roster
func (h *Handler) GetGameRoster(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDVar(w, r)
	if !ok {
		return
	}

	players, err := h.catalog.Roster(r.Context(), gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch roster", err)
		return
	}

	respondJSON(w, http.StatusOK, players)
}

// GetTeams returns every team seen in a processed game
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.catalog.Teams(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch teams", err)
		return
	}

	respondJSON(w, http.StatusOK, teams)
}

// GetPlayerSeason returns a player's season totals by strength state
func (h *Handler) GetPlayerSeason(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	season, err := strconv.Atoi(vars["season"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid season (use e.g. 20232024)", err)
		return
	}

	totals, err := h.stats.PlayerSeason(r.Context(), vars["player"], season)
	if err != nil {
		respondError(w, http.StatusNotFound, "No stats for player", err)
		return
	}

	respondJSON(w, http.StatusOK, totals)
}

func gameIDVar(w http.ResponseWriter, r *http.Request) (int, bool) {
	gameID, err := strconv.Atoi(mux.Vars(r)["gameID"])
	if err != nil || gameID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid game ID", err)
		return 0, false
	}
	return gameID, true
}

func respondLookupError(w http.ResponseWriter, message string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, message, err)
		return
	}
	respondError(w, http.StatusInternalServerError, message, err)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
