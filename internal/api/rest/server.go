package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/fortuna/frisbee/internal/api/auth"
	"github.com/fortuna/frisbee/internal/metrics"
)

// Deps are the collaborators the REST API serves.
type Deps struct {
	Leagues   LeagueService
	Players   PlayerService
	Rosters   RosterService
	Standings StandingsService
	Imports   ImportService

	Verifier *auth.Verifier
	Metrics  *metrics.Metrics

	// Health lists named dependencies probed by GET /health.
	Health map[string]HealthChecker

	AllowedOrigins []string
	Logger         zerolog.Logger
}

// Server represents the REST API server
type Server struct {
	server *http.Server
	router *mux.Router
	logger zerolog.Logger
}

// NewServer creates a new REST API server
func NewServer(port string, deps Deps) *Server {
	return &Server{
		router: NewRouter(deps),
		logger: deps.Logger,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter builds the routing tree with middleware applied.
func NewRouter(deps Deps) *mux.Router {
	handler := NewHandler(deps)
	importHandler := NewImportHandler(deps.Imports)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(requestIDMiddleware(deps.Logger))
	router.Use(recoveryMiddleware)
	router.Use(loggingMiddleware)
	router.Use(corsMiddleware(deps.AllowedOrigins))
	router.Use(metricsMiddleware(deps.Metrics))

	// Health check and scraping
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	router.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware(deps.Verifier))

	// Leagues
	api.HandleFunc("/leagues", handler.ListLeagues).Methods("GET")
	api.HandleFunc("/leagues", handler.CreateLeague).Methods("POST")
	api.HandleFunc("/leagues/join", handler.JoinLeague).Methods("POST")
	api.HandleFunc("/leagues/{leagueID}", handler.GetLeague).Methods("GET")
	api.HandleFunc("/leagues/{leagueID}/membership", handler.LeaveLeague).Methods("DELETE")
	api.HandleFunc("/leagues/{leagueID}/participants", handler.ListParticipants).Methods("GET")
	api.HandleFunc("/leagues/{leagueID}/players", handler.GetPlayerPool).Methods("GET")
	api.HandleFunc("/leagues/{leagueID}/standings", handler.GetStandings).Methods("GET")

	// Rosters
	api.HandleFunc("/leagues/{leagueID}/roster", handler.GetRoster).Methods("GET")
	api.HandleFunc("/leagues/{leagueID}/roster", handler.AddRosterPlayer).Methods("POST")
	api.HandleFunc("/leagues/{leagueID}/roster/{rosterPlayerID}", handler.RemoveRosterPlayer).Methods("DELETE")
	api.HandleFunc("/rosters/validate", handler.ValidateRoster).Methods("POST")

	// Players
	api.HandleFunc("/players/history", handler.GetPlayerHistory).Methods("GET")

	// Imports are restricted to the service role
	imports := api.PathPrefix("/imports").Subrouter()
	imports.Use(requireServiceRole)
	imports.HandleFunc("", importHandler.HandleImportRequest).Methods("POST")
	imports.HandleFunc("/status", importHandler.HandleImportStatus).Methods("GET")

	router.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return router
}

// Start starts the REST API server and blocks until it stops.
func (s *Server) Start() error {
	s.server.Handler = s.router
	s.logger.Info().Str("addr", s.server.Addr).Msg("REST API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
