package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Symbol prefixes. Syntax-anchored chunks use class:/func: and survive pure
// relocation; line-anchored chunks use range: and shift with their window.
const (
	classPrefix = "class:"
	funcPrefix  = "func:"
	rangePrefix = "range:"
)

// ClassSymbol returns the symbol for a class-like definition.
func ClassSymbol(name string) string { return classPrefix + name }

// FuncSymbol returns the symbol for a function or method definition.
func FuncSymbol(name string) string { return funcPrefix + name }

// RangeSymbol returns the line-window fallback symbol, zero-padded so the
// logical id compares equal to itself at the same lines.
func RangeSymbol(startLine, endLine int) string {
	return fmt.Sprintf("%s%04d-%04d", rangePrefix, startLine, endLine)
}

// SyntaxAnchored reports whether the symbol came from a parse-tree definition.
func SyntaxAnchored(symbol string) bool {
	return strings.HasPrefix(symbol, classPrefix) || strings.HasPrefix(symbol, funcPrefix)
}

// LineAnchored reports whether the symbol is a line-window fallback.
func LineAnchored(symbol string) bool { return strings.HasPrefix(symbol, rangePrefix) }

// BlockID identifies a chunk's enclosing definition.
func BlockID(nodeType, name string) string {
	return "block:" + nodeType + ":" + name
}

// SigHash returns the signature hash for a named definition: the hash of
// "type:name" so renames change identity but body edits do not.
func SigHash(nodeType, name string) string {
	return hashHex(nodeType + ":" + name)
}

// GenericSigHash returns the signature hash for a line-window symbol.
func GenericSigHash(symbol string) string { return hashHex(symbol) }

// ContentHash returns the hex SHA256 of chunk content.
func ContentHash(content string) string { return hashHex(content) }

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
