package search

import "github.com/gitrag/gitrag/domain/index"

// Hit is one search result: the stored point plus optional block/focus text
// hydrated from the working tree.
type Hit struct {
	id        string
	score     float32
	payload   index.Payload
	blockText string
	focusText string
}

// NewHit creates a Hit without hydrated texts.
func NewHit(id string, score float32, payload index.Payload) Hit {
	return Hit{id: id, score: score, payload: payload}
}

// ID returns the point id.
func (h Hit) ID() string { return h.id }

// Score returns the similarity score.
func (h Hit) Score() float32 { return h.score }

// Payload returns the stored payload.
func (h Hit) Payload() index.Payload { return h.payload }

// BlockText returns the enclosing block's source text, or "".
func (h Hit) BlockText() string { return h.blockText }

// FocusText returns the chunk's own source text, or "".
func (h Hit) FocusText() string { return h.focusText }

// WithTexts returns a copy carrying hydrated block and focus texts.
func (h Hit) WithTexts(blockText, focusText string) Hit {
	h.blockText = blockText
	h.focusText = focusText
	return h
}
