package index

import (
	"encoding/json"

	"github.com/gitrag/gitrag/domain/chunk"
)

// Payload is the record attached to one vector-store point. Well-known keys
// are fixed fields; plugin-contributed fields live in the enrichment section
// and the open StackMeta map. All filterable fields are first-class keys so
// the store can index them.
type Payload struct {
	// identity
	PointID   string `json:"point_id"`
	LogicalID string `json:"logical_id"`
	Repo      string `json:"repo"`
	Path      string `json:"path"`
	Symbol    string `json:"symbol"`
	Language  string `json:"language"`

	// versioning
	Branch      string `json:"branch"`
	CommitSHA   string `json:"commit_sha"`
	ContentHash string `json:"content_hash"`
	SigHash     string `json:"sig_hash"`
	IsLatest    bool   `json:"is_latest"`

	// position
	Lines          [2]int  `json:"lines"`
	ByteRange      [2]int  `json:"byte_range"`
	BlockID        string  `json:"block_id,omitempty"`
	BlockLines     *[2]int `json:"block_lines,omitempty"`
	BlockByteRange *[2]int `json:"block_byte_range,omitempty"`

	Neighbors []string `json:"neighbors,omitempty"`

	// enrichment
	StackType     string         `json:"stack_type,omitempty"`
	ComponentType string         `json:"component_type,omitempty"`
	ScreenName    string         `json:"screen_name,omitempty"`
	LayoutFile    string         `json:"layout_file,omitempty"`
	NavGraphID    string         `json:"nav_graph_id,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Edges         []Edge         `json:"edges,omitempty"`
	StackMeta     map[string]any `json:"stack_meta,omitempty"`
	StackText     string         `json:"stack_text,omitempty"`
}

// NewPayload builds the base payload for a chunk at one revision. Plugin
// enrichment is layered on afterwards.
func NewPayload(c chunk.Chunk, repo, branch, commitSHA string) Payload {
	p := Payload{
		PointID:     c.PointID(),
		LogicalID:   c.LogicalID(),
		Repo:        repo,
		Path:        c.Path(),
		Symbol:      c.Symbol(),
		Language:    c.Language(),
		Branch:      branch,
		CommitSHA:   commitSHA,
		ContentHash: c.ContentHash(),
		SigHash:     c.SigHash(),
		IsLatest:    true,
		Lines:       [2]int{c.Range().StartLine(), c.Range().EndLine()},
		ByteRange:   [2]int{c.Range().ByteStart(), c.Range().ByteEnd()},
	}
	if id, rng, ok := c.Block(); ok {
		p.BlockID = id
		p.BlockLines = &[2]int{rng.StartLine(), rng.EndLine()}
		p.BlockByteRange = &[2]int{rng.ByteStart(), rng.ByteEnd()}
	}
	return p
}

// ToMap flattens the payload into the generic key-value form the vector
// store consumes.
func (p Payload) ToMap() (map[string]any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PayloadFromMap rebuilds a Payload from a stored point's key-value payload.
// Unknown keys are dropped.
func PayloadFromMap(m map[string]any) (Payload, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return Payload{}, err
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}
