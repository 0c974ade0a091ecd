package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrag/gitrag"
	"github.com/gitrag/gitrag/infrastructure/api"
	"github.com/gitrag/gitrag/internal/config"
)

func testHandler(t *testing.T) http.Handler {
	t.Helper()

	dir := t.TempDir()
	cfg := config.NewAppConfig().Apply(
		config.WithDataDir(filepath.Join(dir, "data")),
		config.WithReposDir(filepath.Join(dir, "repos")),
		config.WithSkipCollectionInit(true),
	)
	require.NoError(t, os.MkdirAll(cfg.ReposDir(), 0o755))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := gitrag.New(gitrag.WithConfig(cfg), gitrag.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return api.NewAPIServer(client).Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestListReposEmptyWorkspace(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/repos", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var ids []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ids))
	assert.Empty(t, ids)
}

func TestIndexUnknownRepoIs404(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/repos/missing/index/full", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail")
}

func TestRegistryCRUD(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/registry", map[string]any{
		"repo_id": "demo",
		"name":    "Demo",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "demo", created["repo_id"])
	assert.Equal(t, "Demo", created["name"])
	assert.NotEmpty(t, created["collection_name"])
	assert.NotEmpty(t, created["embedding_model"])

	rec = doJSON(t, handler, http.MethodPost, "/registry", map[string]any{"repo_id": "demo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/registry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)

	rec = doJSON(t, handler, http.MethodPatch, "/registry/demo", map[string]any{
		"archived": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var patched map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patched))
	assert.Equal(t, true, patched["archived"])
	assert.Equal(t, "Demo", patched["name"])

	rec = doJSON(t, handler, http.MethodGet, "/registry?include_archived=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)

	rec = doJSON(t, handler, http.MethodDelete, "/registry/demo", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/registry/demo", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegistryWebhook(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/registry/webhook", map[string]any{
		"action":  "push",
		"repo_id": "hookrepo",
		"name":    "Hooked",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "hookrepo", entry["repo_id"])

	rec = doJSON(t, handler, http.MethodPost, "/registry/webhook", map[string]any{
		"action":  "archive",
		"repo_id": "hookrepo",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, true, entry["archived"])

	rec = doJSON(t, handler, http.MethodPost, "/registry/webhook", map[string]any{
		"action":  "delete",
		"repo_id": "hookrepo",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/registry/hookrepo", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/registry/webhook", map[string]any{
		"action":  "rename",
		"repo_id": "hookrepo",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported webhook action")
}

func TestSearchRequiresQuery(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/search", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "query is required")
}

func TestIndexStatusCreatesRecord(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/repos/fresh/index/status", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "fresh", status["repo_id"])
	assert.Equal(t, "idle", status["last_index_status"])
}

func TestAdminResetDisabledByDefault(t *testing.T) {
	handler := testHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/admin/reset", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail")
}