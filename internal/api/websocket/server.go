package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/fortuna/janus/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is what subscribers receive
type Message struct {
	Type    string           `json:"type"`
	Summary pipeline.Summary `json:"summary"`
}

// Server pushes processed-game notifications to websocket subscribers
type Server struct {
	hub    *Hub
	logger *log.Logger
}

// NewServer creates a new WebSocket server and starts its hub
func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[websocket] ", log.LstdFlags)
	}

	hub := NewHub()
	go hub.Run()

	return &Server{
		hub:    hub,
		logger: logger,
	}
}

// HandleGames upgrades a connection and subscribes it to game updates
func (s *Server) HandleGames(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case client.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// HandleHealth returns WebSocket server health status
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// BroadcastGame tells every subscriber a game was processed
func (s *Server) BroadcastGame(summary pipeline.Summary) {
	data, err := json.Marshal(Message{Type: "game_processed", Summary: summary})
	if err != nil {
		s.logger.Printf("⚠️  encoding game %d: %v", summary.GameID, err)
		return
	}
	if !s.hub.Broadcast(data) {
		s.logger.Printf("⚠️  broadcast queue full, dropped game %d", summary.GameID)
	}
}

// Close disconnects every subscriber
func (s *Server) Close() {
	s.hub.Stop()
}
