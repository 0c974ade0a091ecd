package chunking

import (
	"github.com/gitrag/gitrag/domain/chunk"
	"github.com/gitrag/gitrag/domain/index"
)

// ChunkPlugin hooks into the chunking pipeline for files it claims via
// Supports. Supports must be pure; the other hooks may fail, and failures
// are logged and swallowed by the chunker.
type ChunkPlugin interface {
	Supports(path string, stackType string) bool
	Preprocess(src string, path string, repoID string) (string, error)
	Postprocess(chunks []chunk.Chunk, path string, repoID string) ([]chunk.Chunk, error)
	ExtraChunks(src string, path string, repoID string) ([]chunk.Chunk, error)
}

// PayloadPlugin enriches the point payload of a chunk with stack-specific
// fields before upsert.
type PayloadPlugin interface {
	Supports(path string, stackType string) bool
	Enrich(c chunk.Chunk, p *index.Payload) error
}
