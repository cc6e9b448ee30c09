package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/janus/internal/api/websocket"
)

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
}

// NewRouter builds the API routes. backfillHandler and ws may be nil.
func NewRouter(handler *Handler, backfillHandler *BackfillHandler, ws *websocket.Server) *mux.Router {
	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Games
	api.HandleFunc("/games/process", handler.ProcessGame).Methods("POST")
	api.HandleFunc("/games/{gameID:[0-9]+}", handler.GetGame).Methods("GET")
	api.HandleFunc("/games/{gameID:[0-9]+}/pbp", handler.GetGamePlays).Methods("GET")
	api.HandleFunc("/games/{gameID:[0-9]+}/stats", handler.GetGameStats).Methods("GET")
	api.HandleFunc("/games/{gameID:[0-9]+}/roster", handler.GetGameRoster).Methods("GET")

	// Teams and players
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")
	api.HandleFunc("/players/{player}/seasons/{season:[0-9]+}", handler.GetPlayerSeason).Methods("GET")

	// Backfill operations
	if backfillHandler != nil {
		api.HandleFunc("/backfill", backfillHandler.HandleBackfillRequest).Methods("POST")
		api.HandleFunc("/backfill/status", backfillHandler.HandleBackfillStatus).Methods("GET")
		api.HandleFunc("/backfill/jobs/{jobID}/events", backfillHandler.HandleJobEvents).Methods("GET")
	}

	// Live updates
	if ws != nil {
		router.HandleFunc("/ws/games", ws.HandleGames)
		router.HandleFunc("/ws/health", ws.HandleHealth).Methods("GET")
	}

	return router
}

// NewServer creates a new REST API server
func NewServer(port string, router http.Handler) *Server {
	return &Server{
		port: port,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
