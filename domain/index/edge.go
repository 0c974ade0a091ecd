// Package index provides the vector-store data model: point payloads,
// structural edges, indexing-run state, and the progress event protocol.
package index

import (
	"encoding/json"
	"path"
	"strings"
)

// EdgeType identifies a structural relationship from a chunk to another
// named entity. Closed set shared across stack plugins.
type EdgeType string

const (
	EdgeBindsLayout    EdgeType = "BINDS_LAYOUT"
	EdgeNavDestination EdgeType = "NAV_DESTINATION"
	EdgeNavAction      EdgeType = "NAV_ACTION"
	EdgeNavigatesTo    EdgeType = "NAVIGATES_TO"
	EdgeUsesViewModel  EdgeType = "USES_VIEWMODEL"
	EdgeCallsAPI       EdgeType = "CALLS_API"
)

// Edge is a typed, directed relationship stored in a point payload. The
// target is always a normalized string; resolution back to a chunk happens
// by lookup at query time, never by stored pointer.
type Edge struct {
	Type   EdgeType       `json:"type"`
	Target string         `json:"target"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// NewEdge creates an Edge without metadata.
func NewEdge(edgeType EdgeType, target string) Edge {
	return Edge{Type: edgeType, Target: target}
}

// NewEdgeWithMeta creates an Edge carrying metadata.
func NewEdgeWithMeta(edgeType EdgeType, target string, meta map[string]any) Edge {
	return Edge{Type: edgeType, Target: target, Meta: meta}
}

// NormalizeID normalizes id-like targets: drops a namespace prefix up to the
// first slash, strips leading @/+ markers, lower-cases. Returns "" when
// nothing survives.
func NormalizeID(value string) string {
	cleaned := value
	if i := strings.Index(cleaned, "/"); i >= 0 {
		cleaned = cleaned[i+1:]
	}
	cleaned = strings.TrimLeft(cleaned, "@+")
	return strings.ToLower(cleaned)
}

// NormalizeLayoutTarget rewrites a layout reference to its repo-relative
// canonical form layout/<basename>.xml.
func NormalizeLayoutTarget(name string) string {
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if ext := path.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return "layout/" + base + ".xml"
}

// DedupeEdges drops duplicate edges, keyed by type, target, and canonical
// meta content. Order of first occurrence is preserved.
func DedupeEdges(edges []Edge) []Edge {
	seen := make(map[string]bool, len(edges))
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		metaKey := ""
		if e.Meta != nil {
			// json.Marshal sorts map keys, so equal metas share a key.
			b, err := json.Marshal(e.Meta)
			if err == nil {
				metaKey = string(b)
			}
		}
		key := string(e.Type) + "\x00" + e.Target + "\x00" + metaKey
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// MergeEdges concatenates edge lists and deduplicates the result.
func MergeEdges(lists ...[]Edge) []Edge {
	var merged []Edge
	for _, l := range lists {
		merged = append(merged, l...)
	}
	return DedupeEdges(merged)
}
