// Package chunking turns source files into retrieval chunks: syntax-aware
// definition chunks through tree-sitter with a line-window fallback, plus a
// plugin pipeline for stack-specific files.
package chunking

import (
	"context"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gitrag/gitrag/domain/chunk"
	"github.com/gitrag/gitrag/internal/config"
)

// Chunker extracts chunks from one repository's files.
type Chunker struct {
	maxContentChars int
	chunkLines      int
	plugins         []ChunkPlugin
	logger          *slog.Logger
}

// NewChunker creates a Chunker from chunking configuration.
func NewChunker(cfg config.ChunkingConfig, logger *slog.Logger, plugins ...ChunkPlugin) *Chunker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chunker{
		maxContentChars: chunk.MaxContentChars(cfg.ChunkTokens(), cfg.CharsPerToken()),
		chunkLines:      cfg.ChunkLines(),
		plugins:         plugins,
		logger:          logger,
	}
}

// Chunks is the chunking entry point. Plugins that claim the file may
// rewrite the source before chunking, rewrite the chunk list after, and
// append extra chunks; a failing plugin is logged and skipped. Files with a
// skip-listed extension yield nothing.
func (c *Chunker) Chunks(ctx context.Context, src, path, repoID, stackType string) []chunk.Chunk {
	if shouldSkip(path) {
		c.logger.Info("skipping unsupported binary file type", slog.String("path", path))
		return nil
	}

	preSrc := src
	for _, plugin := range c.plugins {
		if !plugin.Supports(path, stackType) {
			continue
		}
		rewritten, err := plugin.Preprocess(preSrc, path, repoID)
		if err != nil {
			c.logger.Error("chunk plugin preprocess failed",
				slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		preSrc = rewritten
	}

	var chunks []chunk.Chunk
	if lang, ok := syntaxForPath(path); ok {
		chunks = c.syntaxChunks(ctx, preSrc, path, repoID, lang)
	} else {
		chunks = c.genericChunks(preSrc, path, repoID)
	}

	for _, plugin := range c.plugins {
		if !plugin.Supports(path, stackType) {
			continue
		}
		rewritten, err := plugin.Postprocess(chunks, path, repoID)
		if err != nil {
			c.logger.Error("chunk plugin postprocess failed",
				slog.String("path", path), slog.String("error", err.Error()))
		} else {
			chunks = rewritten
		}

		extra, err := plugin.ExtraChunks(preSrc, path, repoID)
		if err != nil {
			c.logger.Error("chunk plugin extra chunks failed",
				slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		chunks = append(chunks, extra...)
	}

	return chunks
}

// syntaxChunks parses the source and emits one chunk per definition node.
// Parse failure or a file with no definitions falls back to the generic
// line-window chunker.
func (c *Chunker) syntaxChunks(ctx context.Context, src, path, repoID string, lang syntaxLanguage) []chunk.Chunk {
	parser := sitter.NewParser()
	parser.SetLanguage(lang.grammar())

	b := []byte(src)
	tree, err := parser.ParseCtx(ctx, nil, b)
	if err != nil {
		c.logger.Error("tree-sitter parse failed, falling back to line windows",
			slog.String("path", path), slog.String("error", err.Error()))
		return c.genericChunks(src, path, repoID)
	}
	defer tree.Close()

	var out []chunk.Chunk
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if _, ok := lang.defNodes[n.Type()]; ok {
			out = append(out, c.definitionChunk(n, b, path, repoID, lang.name)...)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if child := n.Child(i); child != nil {
				walk(child)
			}
		}
	}
	walk(tree.RootNode())

	if len(out) == 0 {
		return c.genericChunks(src, path, repoID)
	}
	return out
}

func (c *Chunker) definitionChunk(n *sitter.Node, src []byte, path, repoID, language string) []chunk.Chunk {
	text := nodeText(n, src)
	if text == "" {
		return nil
	}

	name := firstIdentifier(n, src)
	if name == "" {
		name = n.Type()
	}

	symbol := chunk.FuncSymbol(name)
	if isClassNode(n.Type()) {
		symbol = chunk.ClassSymbol(name)
	}

	rng := chunk.NewRange(
		int(n.StartPoint().Row)+1,
		int(n.EndPoint().Row)+1,
		int(n.StartByte()),
		int(n.EndByte()),
	)

	ch := chunk.NewChunk(repoID, path, symbol, language, text, chunk.SigHash(n.Type(), name), rng)

	if blk := enclosingBlock(n); blk != nil {
		blockName := firstIdentifier(blk, src)
		if blockName == "" {
			blockName = blk.Type()
		}
		blockRange := chunk.NewRange(
			int(blk.StartPoint().Row)+1,
			int(blk.EndPoint().Row)+1,
			int(blk.StartByte()),
			int(blk.EndByte()),
		)
		ch = ch.WithBlock(chunk.BlockID(blk.Type(), blockName), blockRange)
	}

	if len(text) > c.maxContentChars {
		parts := chunk.SplitOversize(ch, c.maxContentChars)
		if len(parts) > 1 {
			c.logger.Warn("split oversize definition",
				slog.String("path", path),
				slog.String("symbol", symbol),
				slog.Int("parts", len(parts)))
		}
		return parts
	}
	return []chunk.Chunk{ch}
}

// enclosingBlock walks up to the nearest ancestor that groups definitions
// (class bodies, impl blocks and the like).
func enclosingBlock(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if _, ok := blockNodeTypes[p.Type()]; ok {
			return p
		}
	}
	return nil
}

// genericChunks windows the file into fixed line spans with range: symbols.
func (c *Chunker) genericChunks(src, path, repoID string) []chunk.Chunk {
	lines := splitAfterLines(src)
	if len(lines) == 0 {
		return nil
	}

	var out []chunk.Chunk
	lineNo := 1
	byteOffset := 0
	for i := 0; i < len(lines); i += c.chunkLines {
		end := i + c.chunkLines
		if end > len(lines) {
			end = len(lines)
		}
		segment := lines[i:end]
		text := strings.Join(segment, "")

		start := lineNo
		last := lineNo + len(segment) - 1
		symbol := chunk.RangeSymbol(start, last)
		rng := chunk.NewRange(start, last, byteOffset, byteOffset+len(text))

		ch := chunk.NewChunk(repoID, path, symbol, GenericLanguage, text, chunk.GenericSigHash(symbol), rng)
		if len(text) > c.maxContentChars {
			out = append(out, chunk.SplitOversize(ch, c.maxContentChars)...)
		} else {
			out = append(out, ch)
		}

		lineNo += len(segment)
		byteOffset += len(text)
	}
	return out
}

// splitAfterLines splits keeping line terminators, like bufio scanning
// would not: the final element has no trailing newline when the source
// lacks one, and a trailing newline does not produce an empty element.
func splitAfterLines(src string) []string {
	if src == "" {
		return nil
	}
	lines := strings.SplitAfter(src, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
