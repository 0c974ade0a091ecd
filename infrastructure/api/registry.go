package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gitrag/gitrag"
	"github.com/gitrag/gitrag/domain/repository"
	"github.com/gitrag/gitrag/infrastructure/api/middleware"
)

// RegistryRouter is the metadata bridge over the repository registry. It
// never touches git or the vector store.
type RegistryRouter struct {
	client *gitrag.Client
	logger *slog.Logger
}

// NewRegistryRouter creates a RegistryRouter.
func NewRegistryRouter(client *gitrag.Client) *RegistryRouter {
	return &RegistryRouter{client: client, logger: client.Logger()}
}

// Routes returns the chi router for registry endpoints.
func (rt *RegistryRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", rt.list)
	router.Post("/", rt.create)
	router.Post("/webhook", rt.webhook)
	router.Get("/{repoID}", rt.get)
	router.Patch("/{repoID}", rt.update)
	router.Delete("/{repoID}", rt.remove)
	return router
}

// registryEntry is the JSON form of one registry record.
type registryEntry struct {
	RepoID            string     `json:"repo_id"`
	Name              string     `json:"name"`
	URL               string     `json:"url,omitempty"`
	StackType         string     `json:"stack_type,omitempty"`
	CollectionName    string     `json:"collection_name"`
	EmbeddingModel    string     `json:"embedding_model"`
	LastIndexedCommit string     `json:"last_indexed_commit,omitempty"`
	LastIndexedAt     *time.Time `json:"last_indexed_at,omitempty"`
	Archived          bool       `json:"archived"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toEntry(r repository.Record) registryEntry {
	return registryEntry{
		RepoID:            r.RepoID(),
		Name:              r.Name(),
		URL:               r.URL(),
		StackType:         r.StackType(),
		CollectionName:    r.CollectionName(),
		EmbeddingModel:    r.EmbeddingModel(),
		LastIndexedCommit: r.LastIndexedCommit(),
		LastIndexedAt:     timePtr(r.LastIndexedAt()),
		Archived:          r.Archived(),
		CreatedAt:         r.CreatedAt(),
		UpdatedAt:         r.UpdatedAt(),
	}
}

// list handles GET /registry?include_archived=.
func (rt *RegistryRouter) list(w http.ResponseWriter, r *http.Request) {
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("include_archived"))
	records, err := rt.client.Registry.List(r.Context(), includeArchived)
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}

	entries := make([]registryEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, toEntry(record))
	}
	middleware.WriteJSON(w, http.StatusOK, entries)
}

// get handles GET /registry/{repoID}.
func (rt *RegistryRouter) get(w http.ResponseWriter, r *http.Request) {
	record, err := rt.client.Registry.Get(r.Context(), chi.URLParam(r, "repoID"))
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toEntry(record))
}

// registryPayload is the POST/PATCH body. Pointers distinguish "absent"
// from "set to zero".
type registryPayload struct {
	RepoID         string  `json:"repo_id"`
	Name           *string `json:"name,omitempty"`
	URL            *string `json:"url,omitempty"`
	StackType      *string `json:"stack_type,omitempty"`
	CollectionName *string `json:"collection_name,omitempty"`
	EmbeddingModel *string `json:"embedding_model,omitempty"`
	Archived       *bool   `json:"archived,omitempty"`
}

func (p registryPayload) options() []repository.RecordOption {
	var opts []repository.RecordOption
	if p.Name != nil {
		opts = append(opts, repository.WithName(*p.Name))
	}
	if p.URL != nil {
		opts = append(opts, repository.WithURL(*p.URL))
	}
	if p.StackType != nil {
		opts = append(opts, repository.WithStackType(*p.StackType))
	}
	if p.CollectionName != nil {
		opts = append(opts, repository.WithCollectionName(*p.CollectionName))
	}
	if p.EmbeddingModel != nil {
		opts = append(opts, repository.WithEmbeddingModel(*p.EmbeddingModel))
	}
	return opts
}

// create handles POST /registry.
func (rt *RegistryRouter) create(w http.ResponseWriter, r *http.Request) {
	var body registryPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if body.RepoID == "" {
		middleware.BadRequest(w, "repo_id is required")
		return
	}

	cfg := rt.client.Config()
	record := repository.NewRecord(body.RepoID,
		repository.WithCollectionName(cfg.CollectionName("")),
		repository.WithEmbeddingModel(cfg.Embedding().Model()),
	).Apply(body.options()...)

	created, err := rt.client.Registry.Create(r.Context(), record)
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, toEntry(created))
}

// update handles PATCH /registry/{repoID}.
func (rt *RegistryRouter) update(w http.ResponseWriter, r *http.Request) {
	var body registryPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	repoID := chi.URLParam(r, "repoID")
	existing, err := rt.client.Registry.Get(r.Context(), repoID)
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}

	record := existing.Apply(body.options()...)
	if body.Archived != nil {
		record = record.WithArchived(*body.Archived)
	}

	updated, err := rt.client.Registry.Update(r.Context(), record)
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toEntry(updated))
}

// webhookPayload is a push/archive/delete notification from an external
// registry integration.
type webhookPayload struct {
	registryPayload
	Action string `json:"action"`
}

// webhook handles POST /registry/webhook. A push ensures the entry exists,
// an archive flags it, a delete removes it.
func (rt *RegistryRouter) webhook(w http.ResponseWriter, r *http.Request) {
	var body webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if body.RepoID == "" {
		middleware.BadRequest(w, "repo_id is required")
		return
	}

	switch strings.ToLower(body.Action) {
	case "push":
		cfg := rt.client.Config()
		record := repository.NewRecord(body.RepoID,
			repository.WithCollectionName(cfg.CollectionName("")),
			repository.WithEmbeddingModel(cfg.Embedding().Model()),
		).Apply(body.options()...)

		ensured, err := rt.client.Registry.Ensure(r.Context(), record)
		if err != nil {
			middleware.WriteError(w, r, err, rt.logger)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, toEntry(ensured))
	case "archive":
		archived, err := rt.client.Registry.Archive(r.Context(), body.RepoID, true)
		if err != nil {
			middleware.WriteError(w, r, err, rt.logger)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, toEntry(archived))
	case "delete":
		if err := rt.client.Registry.Delete(r.Context(), body.RepoID); err != nil {
			middleware.WriteError(w, r, err, rt.logger)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, nil)
	default:
		middleware.BadRequest(w, fmt.Sprintf("unsupported webhook action: %s", body.Action))
	}
}

// remove handles DELETE /registry/{repoID}. Deleting a missing entry is
// still a 204.
func (rt *RegistryRouter) remove(w http.ResponseWriter, r *http.Request) {
	if err := rt.client.Registry.Delete(r.Context(), chi.URLParam(r, "repoID")); err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
