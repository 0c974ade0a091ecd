package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrag/gitrag/domain/index"
	"github.com/gitrag/gitrag/domain/search"
	"github.com/gitrag/gitrag/infrastructure/vector"
)

func TestRetriever_SearchHydratesTexts(t *testing.T) {
	repoPath := t.TempDir()
	src := "class Greeter:\n    def hello(self):\n        return 1\n"
	require.NoError(t, os.MkdirAll(filepath.Join(repoPath, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "src", "main.py"), []byte(src), 0o644))

	store := newFakeStore("col")
	require.NoError(t, store.Upsert(context.Background(), []vector.Point{{
		ID:     "p1",
		Vector: []float32{1, 0, 0, 0},
		Payload: index.Payload{
			LogicalID:  "demo:src/main.py#func:hello",
			Path:       "src/main.py",
			IsLatest:   true,
			Lines:      [2]int{2, 3},
			BlockLines: &[2]int{1, 3},
		},
	}}))

	retriever := NewRetriever(newFakeEmbedder(4), store, repoPath, "main", testLogger())
	hits, err := retriever.Search(context.Background(), search.NewQuery("greeter"))
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, src, hits[0].BlockText())
	assert.Equal(t, "    def hello(self):\n        return 1\n", hits[0].FocusText())
}

func TestRetriever_MissingFileLeavesHitUnhydrated(t *testing.T) {
	store := newFakeStore("col")
	require.NoError(t, store.Upsert(context.Background(), []vector.Point{{
		ID:     "p1",
		Vector: []float32{1, 0, 0, 0},
		Payload: index.Payload{
			Path:       "gone.py",
			IsLatest:   true,
			Lines:      [2]int{1, 1},
			BlockLines: &[2]int{1, 1},
		},
	}}))

	retriever := NewRetriever(newFakeEmbedder(4), store, t.TempDir(), "main", testLogger())
	hits, err := retriever.Search(context.Background(), search.NewQuery("anything"))
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Empty(t, hits[0].BlockText())
	assert.Empty(t, hits[0].FocusText())
}

func TestRetriever_NoRepoPathSkipsHydration(t *testing.T) {
	store := newFakeStore("col")
	require.NoError(t, store.Upsert(context.Background(), []vector.Point{{
		ID:      "p1",
		Vector:  []float32{1, 0, 0, 0},
		Payload: index.Payload{Path: "a.py", IsLatest: true, BlockLines: &[2]int{1, 1}},
	}}))

	retriever := NewRetriever(newFakeEmbedder(4), store, "", "main", testLogger())
	hits, err := retriever.Search(context.Background(), search.NewQuery("anything"))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Empty(t, hits[0].BlockText())
}

func TestRetriever_LimitRespected(t *testing.T) {
	store := newFakeStore("col")
	var points []vector.Point
	for _, id := range []string{"p1", "p2", "p3"} {
		points = append(points, vector.Point{
			ID:      id,
			Vector:  []float32{1, 0, 0, 0},
			Payload: index.Payload{IsLatest: true},
		})
	}
	require.NoError(t, store.Upsert(context.Background(), points))

	retriever := NewRetriever(newFakeEmbedder(4), store, "", "main", testLogger())
	hits, err := retriever.Search(context.Background(), search.NewQuery("q", search.WithLimit(2)))
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}
