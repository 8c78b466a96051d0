package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/engine"
	"github.com/fortuna/courtvision/internal/logging"
)

// SnapshotMessage is the type tag of pushed snapshots
const SnapshotMessage = "trends.snapshot"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope pushed to clients
type Message struct {
	Type string          `json:"type"`
	Data engine.Snapshot `json:"data"`
}

// Server pushes trend snapshots to dashboards
type Server struct {
	server *http.Server
	hub    *Hub
	log    *logrus.Entry
}

// NewServer creates a new WebSocket server
func NewServer(log *logrus.Logger) *Server {
	entry := logging.Component(log, "websocket")
	return &Server{
		hub: NewHub(entry),
		log: entry,
	}
}

// Run drives the hub until ctx is done. Start calls it; tests call it
// directly with Handler
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// Handler serves the WebSocket routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/trends", s.handleTrends)
	mux.HandleFunc("/ws/health", s.handleHealth)
	return mux
}

// Start runs the hub and listens on port
func (s *Server) Start(ctx context.Context, port string) error {
	go s.Run(ctx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.WithField("port", port).Info("WebSocket server listening")
	return s.server.ListenAndServe()
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("Failed to upgrade connection")
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 16),
	}
	if !s.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"clients": s.hub.ClientCount(),
	})
}

// BroadcastSnapshot pushes a snapshot to every connected client
func (s *Server) BroadcastSnapshot(_ context.Context, snap engine.Snapshot) error {
	data, err := json.Marshal(Message{Type: SnapshotMessage, Data: snap})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot message: %w", err)
	}
	s.hub.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected dashboards
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
