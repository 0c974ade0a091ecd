package stack

import (
	"encoding/xml"
	"strings"
)

// layoutInfo is what the plugin reads out of a layout XML file.
type layoutInfo struct {
	rootTag    string
	viewIDs    []string
	fragments  []string
	viewModels []string
}

// navAction is one <action> element of a navigation graph.
type navAction struct {
	id          string
	destination string
}

// navInfo is what the plugin reads out of a navigation graph.
type navInfo struct {
	rootTag      string
	graphID      string
	start        string
	destinations []string
	actions      []navAction
}

// manifestComponent is one declared application component.
type manifestComponent struct {
	kind    string
	name    string
	actions []string
}

// manifestInfo is what the plugin reads out of AndroidManifest.xml.
type manifestInfo struct {
	rootTag    string
	appName    string
	components []manifestComponent
}

// attrLocal returns the first attribute with the given local name,
// regardless of namespace prefix.
func attrLocal(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func newXMLDecoder(src string) *xml.Decoder {
	d := xml.NewDecoder(strings.NewReader(src))
	// Resource XML is not strictly namespace-well-formed in the wild.
	d.Strict = false
	return d
}

// parseLayout extracts view ids, embedded fragments and data-binding
// viewmodel types. Returns false when the source is not parseable XML.
func parseLayout(src string) (layoutInfo, bool) {
	d := newXMLDecoder(src)
	var info layoutInfo
	sawRoot := false

	for {
		tok, err := d.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			info.rootTag = se.Name.Local
			sawRoot = true
		}

		switch se.Name.Local {
		case "variable":
			if typ := attrLocal(se, "type"); strings.Contains(typ, ".") {
				info.viewModels = append(info.viewModels, typ)
			}
		case "fragment":
			if name := attrLocal(se, "name"); name != "" {
				info.fragments = append(info.fragments, name)
			}
		}
		if id := attrLocal(se, "id"); id != "" {
			info.viewIDs = append(info.viewIDs, id)
		}
	}
	return info, sawRoot
}

// parseNav extracts the graph id, start destination, direct-child
// destinations and all actions of a navigation graph.
func parseNav(src string) (navInfo, bool) {
	d := newXMLDecoder(src)
	var info navInfo
	depth := 0
	sawRoot := false

	for {
		tok, err := d.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				info.rootTag = se.Name.Local
				info.graphID = attrLocal(se, "id")
				info.start = attrLocal(se, "startDestination")
				sawRoot = true
				continue
			}
			if se.Name.Local == "action" {
				info.actions = append(info.actions, navAction{
					id:          attrLocal(se, "id"),
					destination: attrLocal(se, "destination"),
				})
				continue
			}
			if depth == 2 {
				if id := attrLocal(se, "id"); id != "" {
					info.destinations = append(info.destinations, id)
				}
			}
		case xml.EndElement:
			depth--
		}
	}
	return info, sawRoot
}

// componentKinds are the manifest elements that declare app components.
var componentKinds = map[string]struct{}{
	"activity": {}, "service": {}, "receiver": {}, "provider": {},
}

// parseManifest extracts the application name and declared components with
// their intent-filter actions.
func parseManifest(src string) (manifestInfo, bool) {
	d := newXMLDecoder(src)
	var info manifestInfo
	sawRoot := false
	current := -1

	for {
		tok, err := d.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if !sawRoot {
				info.rootTag = se.Name.Local
				sawRoot = true
			}
			switch {
			case se.Name.Local == "application":
				info.appName = attrLocal(se, "name")
			case isComponentKind(se.Name.Local):
				info.components = append(info.components, manifestComponent{
					kind: se.Name.Local,
					name: attrLocal(se, "name"),
				})
				current = len(info.components) - 1
			case se.Name.Local == "action" && current >= 0:
				if name := attrLocal(se, "name"); name != "" {
					info.components[current].actions = append(info.components[current].actions, name)
				}
			}
		case xml.EndElement:
			if isComponentKind(se.Name.Local) {
				current = -1
			}
		}
	}
	return info, sawRoot
}

func isComponentKind(local string) bool {
	_, ok := componentKinds[local]
	return ok
}
