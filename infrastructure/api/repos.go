package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gitrag/gitrag"
	"github.com/gitrag/gitrag/domain/index"
	"github.com/gitrag/gitrag/infrastructure/api/middleware"
	"github.com/gitrag/gitrag/infrastructure/git"
)

// ReposRouter serves repository listing, the two NDJSON indexing streams,
// and the status endpoints.
type ReposRouter struct {
	client *gitrag.Client
	logger *slog.Logger
}

// NewReposRouter creates a ReposRouter.
func NewReposRouter(client *gitrag.Client) *ReposRouter {
	return &ReposRouter{client: client, logger: client.Logger()}
}

// Routes returns the chi router for repository endpoints.
func (rt *ReposRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", rt.listRepos)
	router.Post("/{repoID}/index/full", rt.fullIndex)
	router.Post("/{repoID}/index/update", rt.updateIndex)
	router.Get("/{repoID}/status", rt.localStatus)
	router.Get("/{repoID}/index/status", rt.indexStatus)
	return router
}

// listRepos handles GET /repos: the git repositories under REPOS_DIR.
func (rt *ReposRouter) listRepos(w http.ResponseWriter, r *http.Request) {
	ids, err := rt.client.Workspace().ListRepos()
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	middleware.WriteJSON(w, http.StatusOK, ids)
}

// fullIndex handles POST /repos/{repoID}/index/full.
func (rt *ReposRouter) fullIndex(w http.ResponseWriter, r *http.Request) {
	repoID := chi.URLParam(r, "repoID")
	indexer, _, err := rt.client.Indexer(r.Context(), repoID)
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}
	streamEvents(w, indexer.FullIndex(r.Context()))
}

// updateIndex handles POST /repos/{repoID}/index/update.
func (rt *ReposRouter) updateIndex(w http.ResponseWriter, r *http.Request) {
	repoID := chi.URLParam(r, "repoID")
	indexer, _, err := rt.client.Indexer(r.Context(), repoID)
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}
	streamEvents(w, indexer.Update(r.Context()))
}

// streamEvents writes one JSON line per event, flushing after each so the
// consumer sees progress as it happens. The run itself stops through the
// request context when the consumer disconnects.
func streamEvents(w http.ResponseWriter, events <-chan index.Event) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for event := range events {
		if err := enc.Encode(event); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// statusResponse classifies the working tree for GET /repos/{id}/status.
type statusResponse struct {
	Modified []string `json:"modified"`
	Added    []string `json:"added"`
	Deleted  []string `json:"deleted"`
	Renamed  []string `json:"renamed"`
}

// localStatus handles GET /repos/{repoID}/status.
func (rt *ReposRouter) localStatus(w http.ResponseWriter, r *http.Request) {
	repoID := chi.URLParam(r, "repoID")
	if _, _, err := rt.client.Repo(r.Context(), repoID); err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}

	gateway, err := rt.client.Gateway(repoID)
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}
	out, err := gateway.StatusPorcelain(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}

	resp := statusResponse{
		Modified: []string{},
		Added:    []string{},
		Deleted:  []string{},
		Renamed:  []string{},
	}
	for _, entry := range git.ParsePorcelain(out) {
		switch entry.State {
		case git.StateModified:
			resp.Modified = append(resp.Modified, entry.Path)
		case git.StateAdded:
			resp.Added = append(resp.Added, entry.Path)
		case git.StateDeleted:
			resp.Deleted = append(resp.Deleted, entry.Path)
		case git.StateRenamed:
			resp.Renamed = append(resp.Renamed, entry.Path)
		}
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// indexStatusResponse is the registry's run record for one repository.
type indexStatusResponse struct {
	RepoID                  string     `json:"repo_id"`
	LastIndexedCommit       string     `json:"last_indexed_commit,omitempty"`
	LastIndexedAt           *time.Time `json:"last_indexed_at,omitempty"`
	LastIndexMode           string     `json:"last_index_mode,omitempty"`
	LastIndexStatus         string     `json:"last_index_status,omitempty"`
	LastIndexError          string     `json:"last_index_error,omitempty"`
	LastIndexStartedAt      *time.Time `json:"last_index_started_at,omitempty"`
	LastIndexFinishedAt     *time.Time `json:"last_index_finished_at,omitempty"`
	LastIndexTotalFiles     int        `json:"last_index_total_files"`
	LastIndexProcessedFiles int        `json:"last_index_processed_files"`
	LastIndexCurrentFile    string     `json:"last_index_current_file,omitempty"`
}

// indexStatus handles GET /repos/{repoID}/index/status. Archived
// repositories still report their last run.
func (rt *ReposRouter) indexStatus(w http.ResponseWriter, r *http.Request) {
	repoID := chi.URLParam(r, "repoID")
	record, err := rt.client.EnsureRecord(r.Context(), repoID)
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}

	run := record.Run()
	resp := indexStatusResponse{
		RepoID:                  record.RepoID(),
		LastIndexedCommit:       record.LastIndexedCommit(),
		LastIndexedAt:           timePtr(record.LastIndexedAt()),
		LastIndexMode:           string(run.Mode()),
		LastIndexStatus:         string(run.State()),
		LastIndexError:          run.ErrorMessage(),
		LastIndexStartedAt:      timePtr(run.StartedAt()),
		LastIndexFinishedAt:     timePtr(run.FinishedAt()),
		LastIndexTotalFiles:     run.TotalFiles(),
		LastIndexProcessedFiles: run.ProcessedFiles(),
		LastIndexCurrentFile:    run.CurrentFile(),
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
