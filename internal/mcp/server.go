// Package mcp exposes code search and indexing over the Model Context
// Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gitrag/gitrag/application/service"
	"github.com/gitrag/gitrag/domain/index"
	"github.com/gitrag/gitrag/domain/repository"
	"github.com/gitrag/gitrag/domain/search"
)

const serverName = "gitrag-mcp"
const serverVersion = "1.0.0"

// defaultSearchK is the result count when the tool call omits k.
const defaultSearchK = 8

// Backend resolves the per-repository services the tools run against.
// Satisfied by *gitrag.Client.
type Backend interface {
	Retriever(ctx context.Context, repoID string) (*service.Retriever, error)
	Indexer(ctx context.Context, repoID string) (*service.Indexer, repository.Record, error)
	EnsureRecord(ctx context.Context, repoID string) (repository.Record, error)
}

// Server wraps the MCP server with the gitrag tools.
type Server struct {
	mcpServer *server.MCPServer
	backend   Backend
	logger    *slog.Logger
}

// NewServer creates an MCP server backed by the given client.
func NewServer(backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{backend: backend, logger: logger}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)
	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	searchTool := mcp.NewTool("search_code",
		mcp.WithDescription("Search the indexed codebase for the k most semantically relevant code chunks"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text describing what to look for"),
		),
		mcp.WithNumber("k",
			mcp.Description("Number of top results to return (default: 8)"),
		),
		mcp.WithString("repo",
			mcp.Description("Restrict the search to one repository id"),
		),
	)
	mcpServer.AddTool(searchTool, s.handleSearchCode)

	indexTool := mcp.NewTool("index_repository",
		mcp.WithDescription("Index a repository: full rebuild or incremental update since the last indexed commit"),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository id under the workspace"),
		),
		mcp.WithString("mode",
			mcp.Description("Index mode: full or update (default: update)"),
		),
	)
	mcpServer.AddTool(indexTool, s.handleIndexRepository)

	statusTool := mcp.NewTool("repository_status",
		mcp.WithDescription("Report a repository's last indexing run and indexed commit"),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository id under the workspace"),
		),
	)
	mcpServer.AddTool(statusTool, s.handleRepositoryStatus)
}

func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}
	k := request.GetInt("k", defaultSearchK)
	repo := request.GetString("repo", "")

	retriever, err := s.backend.Retriever(ctx, repo)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	opts := []search.QueryOption{search.WithLimit(k)}
	if repo != "" {
		opts = append(opts, search.WithRepo(repo))
	}
	hits, err := retriever.Search(ctx, search.NewQuery(query, opts...))
	if err != nil {
		s.logger.Error("mcp search failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatHits(hits)), nil
}

// formatHits renders one block per hit: repo/path#symbol:start-end, the
// symbol, the score, and the snippet text, separated by a dashed rule.
func formatHits(hits []search.Hit) string {
	if len(hits) == 0 {
		return "No results found."
	}

	var b strings.Builder
	for _, hit := range hits {
		p := hit.Payload()
		fmt.Fprintf(&b, "%s/%s#%s:%d-%d\n", p.Repo, p.Path, p.Symbol, p.Lines[0], p.Lines[1])
		fmt.Fprintf(&b, "%s\nscore=%.4f\n\n", p.Symbol, hit.Score())
		snippet := hit.FocusText()
		if snippet == "" {
			snippet = hit.BlockText()
		}
		b.WriteString(snippet)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", 60))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Server) handleIndexRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := request.RequireString("repo")
	if err != nil {
		return mcp.NewToolResultError("repo is required"), nil
	}
	mode := request.GetString("mode", "update")
	if mode != "full" && mode != "update" {
		return mcp.NewToolResultError(fmt.Sprintf("invalid mode %q: expected full or update", mode)), nil
	}

	indexer, _, err := s.backend.Indexer(ctx, repo)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	var events <-chan index.Event
	if mode == "full" {
		events = indexer.FullIndex(ctx)
	} else {
		events = indexer.Update(ctx)
	}

	var last index.Event
	processed := 0
	for event := range events {
		if event.Status == index.StatusProcessing {
			processed++
		}
		last = event
	}

	if last.Status == index.StatusError {
		return mcp.NewToolResultError(last.Message), nil
	}
	summary := fmt.Sprintf("%s (%d files, commit %s)", last.Message, processed, last.LastCommit)
	return mcp.NewToolResultText(summary), nil
}

func (s *Server) handleRepositoryStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := request.RequireString("repo")
	if err != nil {
		return mcp.NewToolResultError("repo is required"), nil
	}

	record, err := s.backend.EnsureRecord(ctx, repo)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status lookup failed: %v", err)), nil
	}

	run := record.Run()
	status := map[string]any{
		"repo_id":                    record.RepoID(),
		"last_indexed_commit":        record.LastIndexedCommit(),
		"archived":                   record.Archived(),
		"last_index_mode":            string(run.Mode()),
		"last_index_status":          string(run.State()),
		"last_index_error":           run.ErrorMessage(),
		"last_index_total_files":     run.TotalFiles(),
		"last_index_processed_files": run.ProcessedFiles(),
		"last_index_current_file":    run.CurrentFile(),
	}
	data, err := json.Marshal(status)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// MCPServer returns the underlying MCP server for HTTP mounting.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
