package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gitrag/gitrag"
	"github.com/gitrag/gitrag/infrastructure/api/middleware"
)

// AdminRouter serves the guarded destructive operations.
type AdminRouter struct {
	client *gitrag.Client
	logger *slog.Logger
}

// NewAdminRouter creates an AdminRouter.
func NewAdminRouter(client *gitrag.Client) *AdminRouter {
	return &AdminRouter{client: client, logger: client.Logger()}
}

// Routes returns the chi router for admin endpoints.
func (rt *AdminRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/reset", rt.reset)
	return router
}

// reset handles POST /admin/reset. 403 unless ALLOW_DATA_RESET is set.
func (rt *AdminRouter) reset(w http.ResponseWriter, r *http.Request) {
	result, err := rt.client.Reset.Reset(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}
