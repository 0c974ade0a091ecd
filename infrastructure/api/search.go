package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gitrag/gitrag"
	"github.com/gitrag/gitrag/domain/index"
	"github.com/gitrag/gitrag/domain/search"
	"github.com/gitrag/gitrag/infrastructure/api/middleware"
)

// SearchRouter serves POST /search.
type SearchRouter struct {
	client *gitrag.Client
	logger *slog.Logger
}

// NewSearchRouter creates a SearchRouter.
func NewSearchRouter(client *gitrag.Client) *SearchRouter {
	return &SearchRouter{client: client, logger: client.Logger()}
}

// Routes returns the chi router for search endpoints.
func (rt *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", rt.search)
	return router
}

// searchRequest is the POST /search body.
type searchRequest struct {
	Query         string   `json:"query"`
	RepoID        string   `json:"repo_id,omitempty"`
	K             int      `json:"k,omitempty"`
	StackType     string   `json:"stack_type,omitempty"`
	ComponentType string   `json:"component_type,omitempty"`
	ScreenName    string   `json:"screen_name,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// searchResult is one hit in the POST /search response.
type searchResult struct {
	ID        string        `json:"id"`
	Score     float32       `json:"score"`
	Payload   index.Payload `json:"payload"`
	BlockText string        `json:"block_text,omitempty"`
	FocusText string        `json:"focus_text,omitempty"`
}

// search handles POST /search.
func (rt *SearchRouter) search(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if body.Query == "" {
		middleware.BadRequest(w, "query is required")
		return
	}

	ctx := r.Context()
	retriever, err := rt.client.Retriever(ctx, body.RepoID)
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}

	stackType := body.StackType
	if stackType == "" && body.RepoID != "" {
		if record, err := rt.client.EnsureRecord(ctx, body.RepoID); err == nil {
			stackType = record.StackType()
		}
	}

	opts := []search.QueryOption{}
	if body.K > 0 {
		opts = append(opts, search.WithLimit(body.K))
	}
	if body.RepoID != "" {
		opts = append(opts, search.WithRepo(body.RepoID))
	}
	if stackType != "" {
		opts = append(opts, search.WithStackType(stackType))
	}
	if body.ComponentType != "" {
		opts = append(opts, search.WithComponentType(body.ComponentType))
	}
	if body.ScreenName != "" {
		opts = append(opts, search.WithScreenName(body.ScreenName))
	}
	if len(body.Tags) > 0 {
		opts = append(opts, search.WithTags(body.Tags))
	}

	hits, err := retriever.Search(ctx, search.NewQuery(body.Query, opts...))
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}

	results := make([]searchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, searchResult{
			ID:        hit.ID(),
			Score:     hit.Score(),
			Payload:   hit.Payload(),
			BlockText: hit.BlockText(),
			FocusText: hit.FocusText(),
		})
	}
	middleware.WriteJSON(w, http.StatusOK, results)
}
