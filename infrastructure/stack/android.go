// Package stack hosts technology-stack plugins that enrich chunking and
// payloads. The Android plugin reads manifest, layout and navigation XML
// plus Kotlin/Java source heuristics.
package stack

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/gitrag/gitrag/domain/chunk"
	"github.com/gitrag/gitrag/domain/index"
)

// StackTypeAndroid is the stack type that activates the Android plugins.
const StackTypeAndroid = "android_app"

// Android XML kinds.
const (
	kindManifest = "manifest"
	kindLayout   = "layout"
	kindNavGraph = "navgraph"
)

func androidXMLKind(p string) (string, bool) {
	if strings.ToLower(path.Ext(p)) != ".xml" {
		return "", false
	}
	switch {
	case strings.HasSuffix(p, "AndroidManifest.xml"):
		return kindManifest, true
	case strings.Contains(p, "/res/layout/"):
		return kindLayout, true
	case strings.Contains(p, "/res/navigation/"):
		return kindNavGraph, true
	}
	return "", false
}

func baseName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// AndroidChunkPlugin adds one synthetic summary chunk per Android
// manifest/layout/navigation XML file.
type AndroidChunkPlugin struct{}

// NewAndroidChunkPlugin creates the Android chunk plugin.
func NewAndroidChunkPlugin() *AndroidChunkPlugin {
	return &AndroidChunkPlugin{}
}

// Supports claims Android resource XML when the stack type matches (or is
// unset). Pure function of its inputs.
func (p *AndroidChunkPlugin) Supports(filePath string, stackType string) bool {
	if stackType != "" && stackType != StackTypeAndroid {
		return false
	}
	_, ok := androidXMLKind(filePath)
	return ok
}

// Preprocess keeps the XML as-is; the hook is reserved for normalization.
func (p *AndroidChunkPlugin) Preprocess(src string, _ string, _ string) (string, error) {
	return src, nil
}

// Postprocess keeps the chunk list unchanged.
func (p *AndroidChunkPlugin) Postprocess(chunks []chunk.Chunk, _ string, _ string) ([]chunk.Chunk, error) {
	return chunks, nil
}

// ExtraChunks emits a lightweight summary chunk for the XML file, so a
// screen or graph is retrievable as a whole even when the raw XML windows
// poorly. The structural edges of the file travel in the chunk meta so the
// payload plugin can attach them without re-parsing a summary.
func (p *AndroidChunkPlugin) ExtraChunks(src string, filePath string, repoID string) ([]chunk.Chunk, error) {
	kind, ok := androidXMLKind(filePath)
	if !ok {
		return nil, nil
	}

	name, summary, edges, ok := summarizeXML(src, filePath, kind)
	if !ok {
		return nil, nil
	}

	symbol := fmt.Sprintf("android:%s:%s", kind, name)
	lines := strings.Count(summary, "\n") + 1
	rng := chunk.NewRange(1, lines, 0, len(summary))

	ch := chunk.NewChunk(repoID, filePath, symbol, "xml", summary, chunk.GenericSigHash(symbol), rng)
	if len(edges) > 0 {
		ch = ch.WithMetaValue(metaKeyEdges, edges)
	}
	return []chunk.Chunk{ch}, nil
}

// metaKeyEdges carries pre-extracted edges from the chunk plugin to the
// payload plugin.
const metaKeyEdges = "android_edges"

func summarizeXML(src string, filePath string, kind string) (name string, summary string, edges []index.Edge, ok bool) {
	switch kind {
	case kindManifest:
		info, parsed := parseManifest(src)
		if !parsed {
			return "", "", nil, false
		}
		name = info.appName
		if name == "" {
			name = "app"
		}
		lines := []string{fmt.Sprintf("<%s ... />", info.rootTag)}
		for _, c := range info.components {
			line := c.kind + ": " + c.name
			if len(c.actions) > 0 {
				line += " [" + strings.Join(c.actions, ", ") + "]"
			}
			lines = append(lines, line)
		}
		return name, strings.Join(lines, "\n"), nil, true

	case kindLayout:
		info, parsed := parseLayout(src)
		if !parsed {
			return "", "", nil, false
		}
		lines := []string{fmt.Sprintf("<%s ... />", info.rootTag)}
		if len(info.viewIDs) > 0 {
			lines = append(lines, "views: "+strings.Join(info.viewIDs, ", "))
		}
		if len(info.fragments) > 0 {
			lines = append(lines, "fragments: "+strings.Join(info.fragments, ", "))
		}
		return baseName(filePath), strings.Join(lines, "\n"), layoutEdges(info), true

	case kindNavGraph:
		info, parsed := parseNav(src)
		if !parsed {
			return "", "", nil, false
		}
		lines := []string{fmt.Sprintf("<%s ... />", info.rootTag)}
		if len(info.destinations) > 0 {
			lines = append(lines, "destinations: "+strings.Join(info.destinations, ", "))
		}
		return baseName(filePath), strings.Join(lines, "\n"), navEdges(info), true
	}
	return "", "", nil, false
}

// AndroidPayloadPlugin derives component type, screen name, tags and
// structural edges for Android chunks.
type AndroidPayloadPlugin struct {
	stackType string
}

// NewAndroidPayloadPlugin creates the Android payload plugin.
func NewAndroidPayloadPlugin() *AndroidPayloadPlugin {
	return &AndroidPayloadPlugin{stackType: StackTypeAndroid}
}

// Supports claims every chunk of an Android repository.
func (p *AndroidPayloadPlugin) Supports(_ string, stackType string) bool {
	return stackType == p.stackType
}

// Enrich layers Android metadata onto the base payload.
func (p *AndroidPayloadPlugin) Enrich(c chunk.Chunk, payload *index.Payload) error {
	payload.StackType = p.stackType

	filePath := c.Path()
	var tags []string
	var edges []index.Edge

	if kind, ok := androidXMLKind(filePath); ok {
		switch kind {
		case kindManifest:
			payload.ComponentType = "manifest"
			tags = append(tags, "manifest")
			if info, parsed := parseManifest(c.Content()); parsed && len(info.components) > 0 {
				payload.StackMeta = withMetaKey(payload.StackMeta, "components", componentMeta(info))
			}
		case kindLayout:
			layoutName := baseName(filePath)
			payload.LayoutFile = layoutName
			if payload.ScreenName == "" {
				payload.ScreenName = layoutName
			}
			tags = append(tags, "layout")
			if info, parsed := parseLayout(c.Content()); parsed {
				edges = append(edges, layoutEdges(info)...)
				if len(info.viewIDs) > 0 {
					payload.StackMeta = withMetaKey(payload.StackMeta, "view_ids", normalizeAll(info.viewIDs))
				}
				if len(info.fragments) > 0 {
					payload.StackMeta = withMetaKey(payload.StackMeta, "fragments", info.fragments)
				}
			}
		case kindNavGraph:
			payload.NavGraphID = baseName(filePath)
			tags = append(tags, "navgraph")
			if info, parsed := parseNav(c.Content()); parsed {
				edges = append(edges, navEdges(info)...)
			}
		}
	}

	if isKotlinOrJava(filePath) {
		edges = append(edges, sourceEdges(c.Content())...)
	}

	if v, ok := c.MetaValue(metaKeyEdges); ok {
		if carried, ok := v.([]index.Edge); ok {
			edges = append(edges, carried...)
		}
	}

	symbol := strings.ToLower(c.Symbol())
	if name, ok := strings.CutPrefix(symbol, "class:"); ok {
		if strings.HasSuffix(name, "activity") && payload.ComponentType == "" {
			payload.ComponentType = "activity"
		}
		if strings.HasSuffix(name, "fragment") && payload.ComponentType == "" {
			payload.ComponentType = "fragment"
		}
		if payload.ScreenName == "" {
			payload.ScreenName = name
		}
	}

	if strings.HasPrefix(c.Symbol(), "android:") {
		payload.StackText = c.Content()
	}

	if len(tags) > 0 {
		payload.Tags = sortedSet(append(payload.Tags, tags...))
	}
	if len(edges) > 0 {
		payload.Edges = index.MergeEdges(payload.Edges, edges)
	}
	return nil
}

func isKotlinOrJava(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".kt", ".kts", ".java":
		return true
	}
	return false
}

func componentMeta(info manifestInfo) []map[string]any {
	out := make([]map[string]any, 0, len(info.components))
	for _, c := range info.components {
		m := map[string]any{"type": c.kind, "name": c.name}
		if len(c.actions) > 0 {
			m["actions"] = c.actions
		}
		out = append(out, m)
	}
	return out
}

func normalizeAll(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n := index.NormalizeID(id); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func withMetaKey(meta map[string]any, key string, value any) map[string]any {
	if meta == nil {
		meta = make(map[string]any)
	}
	meta[key] = value
	return meta
}

func sortedSet(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
