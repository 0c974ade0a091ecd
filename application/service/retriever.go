package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gitrag/gitrag/domain/diff"
	"github.com/gitrag/gitrag/domain/search"
)

// Retriever embeds queries, searches the vector store, and hydrates hits
// with source text from the working tree.
type Retriever struct {
	embedder      search.Embedder
	store         VectorStore
	repoPath      string
	defaultBranch string
	logger        *slog.Logger
}

// NewRetriever creates a Retriever. repoPath may be empty, in which case
// hits are returned without hydrated texts.
func NewRetriever(embedder search.Embedder, store VectorStore, repoPath, defaultBranch string, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder:      embedder,
		store:         store,
		repoPath:      repoPath,
		defaultBranch: defaultBranch,
		logger:        logger,
	}
}

// Search runs one retrieval query.
func (r *Retriever) Search(ctx context.Context, q search.Query) ([]search.Hit, error) {
	vectors, err := r.embedder.Embed(ctx, []string{q.Text()})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: no vector returned")
	}

	filter := search.FilterFor(q, r.defaultBranch)
	hits, err := r.store.Search(ctx, vectors[0], q.Limit(), filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	out := make([]search.Hit, 0, len(hits))
	for _, hit := range hits {
		out = append(out, r.hydrate(hit))
	}
	return out, nil
}

// hydrate attaches block and focus text read from the working tree. Hits
// whose file cannot be read come back unhydrated.
func (r *Retriever) hydrate(hit search.Hit) search.Hit {
	payload := hit.Payload()
	if r.repoPath == "" || payload.Path == "" || payload.BlockLines == nil {
		return hit
	}

	data, err := os.ReadFile(filepath.Join(r.repoPath, payload.Path))
	if err != nil {
		r.logger.Warn("failed to hydrate hit",
			slog.String("path", payload.Path), slog.Any("error", err))
		return hit
	}
	src := string(data)

	blockText := sliceLines(src, payload.BlockLines[0], payload.BlockLines[1])
	focusText := sliceLines(src, payload.Lines[0], payload.Lines[1])
	return hit.WithTexts(blockText, focusText)
}

// sliceLines cuts an inclusive 1-based line range out of the source.
func sliceLines(src string, startLine, endLine int) string {
	if startLine < 1 || endLine < startLine {
		return ""
	}
	return src[diff.LineToByte(src, startLine):diff.LineToByte(src, endLine+1)]
}
