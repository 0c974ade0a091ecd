package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gitrag/gitrag"
	apimiddleware "github.com/gitrag/gitrag/infrastructure/api/middleware"
	mcpinternal "github.com/gitrag/gitrag/internal/mcp"
)

// APIServer exposes a gitrag Client over HTTP.
type APIServer struct {
	client *gitrag.Client
	server *Server
	router chi.Router
	logger *slog.Logger
}

// NewAPIServer creates an APIServer wired to the given client.
func NewAPIServer(client *gitrag.Client) *APIServer {
	return &APIServer{
		client: client,
		logger: client.Logger(),
	}
}

func (a *APIServer) mountRoutes(router chi.Router) {
	router.Use(apimiddleware.Logging(a.logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Mount("/repos", NewReposRouter(a.client).Routes())
	router.Mount("/search", NewSearchRouter(a.client).Routes())
	router.Mount("/registry", NewRegistryRouter(a.client).Routes())
	router.Mount("/admin", NewAdminRouter(a.client).Routes())

	// MCP endpoint. Streaming; must stay outside any timeout middleware.
	mcpSrv := mcpinternal.NewServer(a.client, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))

	router.Get("/health", healthHandler)
	router.Get("/healthz", healthHandler)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// Handler returns the full route tree as an http.Handler.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.router = chi.NewRouter()
		a.mountRoutes(a.router)
	}
	return a.router
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until shutdown.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := NewServer(addr, a.logger)
	a.server = &srv
	a.mountRoutes(srv.Router())
	return srv.Start()
}

// Shutdown stops the server gracefully.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
