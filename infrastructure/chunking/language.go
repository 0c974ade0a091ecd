package chunking

import (
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// GenericLanguage is the language tag of line-window chunks.
const GenericLanguage = "generic"

// syntaxLanguage binds a language name to its grammar and the node types
// that yield one chunk each.
type syntaxLanguage struct {
	name     string
	grammar  func() *sitter.Language
	defNodes map[string]struct{}
}

func nodeSet(types ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

var extToSyntax = map[string]syntaxLanguage{
	".py": {"python", python.GetLanguage,
		nodeSet("class_definition", "function_definition", "decorated_definition")},
	".js": {"javascript", javascript.GetLanguage,
		nodeSet("function_declaration", "method_definition", "class_declaration")},
	".jsx": {"javascript", javascript.GetLanguage,
		nodeSet("function_declaration", "method_definition", "class_declaration")},
	".ts": {"typescript", typescript.GetLanguage,
		nodeSet("function_declaration", "method_definition", "class_declaration")},
	".tsx": {"typescript", tsx.GetLanguage,
		nodeSet("function_declaration", "method_definition", "class_declaration")},
	".java": {"java", java.GetLanguage,
		nodeSet("class_declaration", "interface_declaration", "method_declaration")},
	".go": {"go", golang.GetLanguage,
		nodeSet("function_declaration", "method_declaration", "type_declaration")},
	".c": {"c", c.GetLanguage,
		nodeSet("function_definition")},
	".h": {"c", c.GetLanguage,
		nodeSet("function_definition")},
	".cc": {"cpp", cpp.GetLanguage,
		nodeSet("function_definition", "class_specifier")},
	".cpp": {"cpp", cpp.GetLanguage,
		nodeSet("function_definition", "class_specifier")},
	".hpp": {"cpp", cpp.GetLanguage,
		nodeSet("function_definition", "class_specifier")},
	".rs": {"rust", rust.GetLanguage,
		nodeSet("function_item", "impl_item", "trait_item", "struct_item", "enum_item")},
	".kt": {"kotlin", kotlin.GetLanguage,
		nodeSet("class_declaration", "object_declaration", "function_declaration")},
	".kts": {"kotlin", kotlin.GetLanguage,
		nodeSet("class_declaration", "object_declaration", "function_declaration")},
}

// skipExtensions are never chunked at all (binary spreadsheet formats that
// survive the text sniff).
var skipExtensions = map[string]struct{}{
	".xlsx": {}, ".xls": {}, ".xlsm": {}, ".xlsb": {},
}

// blockNodeTypes are the ancestor node types recorded as a chunk's
// enclosing block.
var blockNodeTypes = nodeSet(
	"class_declaration", "impl_item", "trait_item", "struct_item",
	"enum_item", "function_definition", "class_definition",
)

// classNodeTypes force the class: symbol prefix even when the node type
// does not contain the word "class".
var classNodeTypes = nodeSet(
	"struct_item", "enum_item", "trait_item", "class_definition", "object_declaration",
)

// LanguageForPath returns the syntax language name for a path, or
// GenericLanguage when no grammar covers its extension.
func LanguageForPath(path string) string {
	if lang, ok := extToSyntax[strings.ToLower(filepath.Ext(path))]; ok {
		return lang.name
	}
	return GenericLanguage
}

func syntaxForPath(path string) (syntaxLanguage, bool) {
	lang, ok := extToSyntax[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

func shouldSkip(path string) bool {
	_, ok := skipExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func isClassNode(nodeType string) bool {
	if strings.Contains(nodeType, "class") {
		return true
	}
	_, ok := classNodeTypes[nodeType]
	return ok
}

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// namedFields are the child field names tried when naming a definition.
var namedFields = map[string]struct{}{
	"name": {}, "declarator": {}, "type": {}, "trait": {}, "item": {},
}

// firstIdentifier names a definition node from its direct children: first
// a child in a naming field, then a bare identifier child. Returns "" when
// the node carries no name.
func firstIdentifier(node *sitter.Node, src []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}

		if _, ok := namedFields[node.FieldNameForChild(i)]; ok {
			if name := identRe.FindString(nodeText(child, src)); name != "" {
				return name
			}
		}
		switch child.Type() {
		case "identifier", "type_identifier", "scoped_identifier":
			if name := identRe.FindString(nodeText(child, src)); name != "" {
				return name
			}
		}
	}
	return ""
}

func nodeText(node *sitter.Node, src []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if start >= uint32(len(src)) || end > uint32(len(src)) || start >= end {
		return ""
	}
	return string(src[start:end])
}
