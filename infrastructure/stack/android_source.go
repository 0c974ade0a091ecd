package stack

import (
	"regexp"
	"strings"

	"github.com/gitrag/gitrag/domain/index"
)

// Regex heuristics over Kotlin/Java source. Intentionally shallow: they
// trade precision for zero build-system knowledge.
var (
	layoutRefRe     = regexp.MustCompile(`R\.layout\.(\w+)`)
	navigateRe      = regexp.MustCompile(`navigate\(\s*R\.id\.(\w+)`)
	startActivityRe = regexp.MustCompile(`startActivity\([^)]*?(\w+)::class\.java`)
	intentClassRe   = regexp.MustCompile(`new\s+Intent\([^)]*?,\s*(\w+)\.class`)
	apiCallRe       = regexp.MustCompile(`\b(\w+(?:Api|Service))\.(\w+)\s*\(`)
)

// sourceEdges extracts structural edges from Kotlin/Java source text.
func sourceEdges(src string) []index.Edge {
	var edges []index.Edge

	for _, m := range layoutRefRe.FindAllStringSubmatch(src, -1) {
		edges = append(edges, index.NewEdge(index.EdgeBindsLayout, index.NormalizeLayoutTarget(m[1])))
	}
	for _, m := range navigateRe.FindAllStringSubmatch(src, -1) {
		edges = append(edges, index.NewEdge(index.EdgeNavigatesTo, index.NormalizeID(m[1])))
	}
	for _, m := range startActivityRe.FindAllStringSubmatch(src, -1) {
		edges = append(edges, index.NewEdge(index.EdgeNavigatesTo, index.NormalizeID(m[1])))
	}
	for _, m := range intentClassRe.FindAllStringSubmatch(src, -1) {
		edges = append(edges, index.NewEdge(index.EdgeNavigatesTo, index.NormalizeID(m[1])))
	}
	for _, m := range apiCallRe.FindAllStringSubmatch(src, -1) {
		target := strings.ToLower(m[1] + "." + m[2])
		edges = append(edges, index.NewEdge(index.EdgeCallsAPI, target))
	}

	return index.DedupeEdges(edges)
}

// layoutEdges turns data-binding viewmodel types into USES_VIEWMODEL edges.
// The target stays a fully qualified class name, not a normalized id.
func layoutEdges(info layoutInfo) []index.Edge {
	var edges []index.Edge
	for _, vm := range info.viewModels {
		edges = append(edges, index.NewEdge(index.EdgeUsesViewModel, vm))
	}
	return index.DedupeEdges(edges)
}

// navEdges turns a navigation graph into NAV_DESTINATION and NAV_ACTION
// edges. The start destination carries start metadata.
func navEdges(info navInfo) []index.Edge {
	var edges []index.Edge
	start := index.NormalizeID(info.start)

	for _, dest := range info.destinations {
		target := index.NormalizeID(dest)
		if target == "" {
			continue
		}
		if target == start {
			edges = append(edges, index.NewEdgeWithMeta(index.EdgeNavDestination, target, map[string]any{"start": true}))
		} else {
			edges = append(edges, index.NewEdge(index.EdgeNavDestination, target))
		}
	}

	for _, action := range info.actions {
		target := index.NormalizeID(action.destination)
		if target == "" {
			continue
		}
		if id := index.NormalizeID(action.id); id != "" {
			edges = append(edges, index.NewEdgeWithMeta(index.EdgeNavAction, target, map[string]any{"action_id": id}))
		} else {
			edges = append(edges, index.NewEdge(index.EdgeNavAction, target))
		}
	}

	return index.DedupeEdges(edges)
}
