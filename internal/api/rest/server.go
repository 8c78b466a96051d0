package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/logging"
)

// Deps are the collaborators behind the routes. Assistant, History and MCP
// are optional; their routes answer 503 when unset
type Deps struct {
	Engine    Engine
	Assistant Asker
	History   History
	MCP       http.Handler
	Health    map[string]func() error
	Log       *logrus.Logger
}

// Server represents the REST API server
type Server struct {
	server  *http.Server
	handler *Handler
}

// NewRouter builds the route table
func NewRouter(deps Deps) *mux.Router {
	handler := NewHandler(deps)
	log := logging.Component(deps.Log, "rest")

	router := mux.NewRouter()

	router.Use(RecoveryMiddleware(log))
	router.Use(LoggingMiddleware(log))
	router.Use(CORSMiddleware)

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	// Trends
	api.HandleFunc("/trends", handler.GetTrends).Methods("GET")
	api.HandleFunc("/trends/history", handler.GetTrendHistory).Methods("GET")
	api.HandleFunc("/leaders", handler.GetLeaders).Methods("GET")

	// Injuries
	api.HandleFunc("/injuries", handler.GetInjuries).Methods("GET")
	api.HandleFunc("/injuries/watch", handler.GetWatch).Methods("GET")

	// Matchups
	api.HandleFunc("/schedule/today", handler.GetSchedule).Methods("GET")
	api.HandleFunc("/defense", handler.GetDefense).Methods("GET")

	// Players
	api.HandleFunc("/players/search", handler.SearchPlayers).Methods("GET")
	api.HandleFunc("/players/deep-dive", handler.GetDeepDive).Methods("GET")

	// Assistant
	api.HandleFunc("/assistant/context", handler.GetAssistantContext).Methods("GET")
	api.HandleFunc("/assistant/chat", handler.PostAssistantChat).Methods("POST")

	// Cache
	api.HandleFunc("/cache/refresh", handler.RefreshCache).Methods("POST")

	if deps.MCP != nil {
		router.PathPrefix("/mcp").Handler(deps.MCP)
	}

	// Preflight for every route; CORSMiddleware answers it
	router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	return router
}

// NewServer creates a new REST API server
func NewServer(port string, deps Deps) *Server {
	return &Server{
		handler: NewHandler(deps),
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           NewRouter(deps),
			ReadHeaderTimeout: 10 * time.Second,
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
