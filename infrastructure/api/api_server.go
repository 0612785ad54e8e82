package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cinemind/cinemind/application/service"
	apimiddleware "github.com/cinemind/cinemind/infrastructure/api/middleware"
	v1 "github.com/cinemind/cinemind/infrastructure/api/v1"
)

// APIServer provides the picker HTTP API backed by a Recommender.
type APIServer struct {
	recommender *service.Recommender
	version     string
	choices     int
	server      *Server
	logger      *slog.Logger
}

// NewAPIServer creates an APIServer over the given recommender. choices is
// the default option count per choice round.
func NewAPIServer(recommender *service.Recommender, version string, choices int, logger *slog.Logger) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIServer{
		recommender: recommender,
		version:     version,
		choices:     choices,
		logger:      logger,
	}
}

// mountRoutes wires up all routes on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	picker := v1.NewRouter(a.recommender, a.choices, a.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Mount("/", picker.Routes())
	})

	router.Get("/health", a.health)
	router.Get("/", a.info)
}

func (a *APIServer) health(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *APIServer) info(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]any{
		"name":    "cinemind",
		"version": a.version,
		"movies":  a.recommender.Catalog().Len(),
	})
}

// ListenAndServe starts the HTTP server on the given address and blocks.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.server = &server
	a.mountRoutes(server.Router())
	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the full route tree as an http.Handler, for tests and
// custom servers.
func (a *APIServer) Handler() http.Handler {
	router := chi.NewRouter()
	a.mountRoutes(router)
	return router
}
