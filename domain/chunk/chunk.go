package chunk

// Limits shared between the chunkers and configuration defaults. The content
// cap is derived from the embedding context: a chunk may spend at most a
// fixed fraction of the token budget, estimated at a conservative
// characters-per-token ratio.
const (
	DefaultChunkTokens   = 512
	DefaultCharsPerToken = 1.5
	DefaultChunkLines    = 120

	tokenFraction   = 0.6
	minContentChars = 256
)

// MaxContentChars derives the per-chunk character cap. Floored so that empty
// chunks are impossible.
func MaxContentChars(chunkTokens int, charsPerToken float64) int {
	cap := int(float64(chunkTokens) * tokenFraction * charsPerToken)
	if cap < minContentChars {
		return minContentChars
	}
	return cap
}

// Chunk is the unit of retrieval: one logical code fragment at one revision.
// Immutable value object; plugins derive modified copies via the With
// methods.
type Chunk struct {
	repoID      string
	path        string
	symbol      string
	language    string
	content     string
	contentHash string
	sigHash     string
	rng         Range
	blockID     string
	blockRange  Range
	hasBlock    bool
	neighbors   []string
	meta        map[string]any
}

// NewChunk creates a Chunk, computing its content hash.
func NewChunk(repoID, path, symbol, language, content, sigHash string, rng Range) Chunk {
	return Chunk{
		repoID:      repoID,
		path:        path,
		symbol:      symbol,
		language:    language,
		content:     content,
		contentHash: ContentHash(content),
		sigHash:     sigHash,
		rng:         rng,
	}
}

// RepoID returns the owning repository id.
func (c Chunk) RepoID() string { return c.repoID }

// Path returns the file path relative to the repository root.
func (c Chunk) Path() string { return c.path }

// Symbol returns the stable symbol (class:/func:/range: form).
func (c Chunk) Symbol() string { return c.symbol }

// Language returns the detected source language, or "" when unknown.
func (c Chunk) Language() string { return c.language }

// Content returns the chunk text.
func (c Chunk) Content() string { return c.content }

// ContentHash returns the hex SHA256 of the content.
func (c Chunk) ContentHash() string { return c.contentHash }

// SigHash returns the signature hash shared by all revisions and parts of
// the same definition.
func (c Chunk) SigHash() string { return c.sigHash }

// Range returns the chunk's position at the indexed revision.
func (c Chunk) Range() Range { return c.rng }

// Block returns the enclosing definition's id and range, if any.
func (c Chunk) Block() (id string, rng Range, ok bool) {
	return c.blockID, c.blockRange, c.hasBlock
}

// Neighbors returns adjacent symbol names. Retained for forward
// compatibility; nothing populates it today.
func (c Chunk) Neighbors() []string {
	out := make([]string, len(c.neighbors))
	copy(out, c.neighbors)
	return out
}

// Meta returns a copy of the plugin-contributed metadata.
func (c Chunk) Meta() map[string]any {
	if len(c.meta) == 0 {
		return nil
	}
	out := make(map[string]any, len(c.meta))
	for k, v := range c.meta {
		out[k] = v
	}
	return out
}

// MetaValue returns one metadata value.
func (c Chunk) MetaValue(key string) (any, bool) {
	v, ok := c.meta[key]
	return v, ok
}

// LogicalID returns the revision-independent identity of this chunk.
func (c Chunk) LogicalID() string {
	return LogicalID(c.repoID, c.path, c.symbol)
}

// PointID returns the deterministic vector-store id for this revision.
func (c Chunk) PointID() string {
	return PointID(c.LogicalID(), c.contentHash)
}

// WithBlock returns a copy annotated with its enclosing definition.
func (c Chunk) WithBlock(blockID string, blockRange Range) Chunk {
	c.blockID = blockID
	c.blockRange = blockRange
	c.hasBlock = true
	return c
}

// WithMetaValue returns a copy with one metadata key set.
func (c Chunk) WithMetaValue(key string, value any) Chunk {
	meta := make(map[string]any, len(c.meta)+1)
	for k, v := range c.meta {
		meta[k] = v
	}
	meta[key] = value
	c.meta = meta
	return c
}

// WithRange returns a copy at a different position.
func (c Chunk) WithRange(rng Range) Chunk {
	c.rng = rng
	return c
}
