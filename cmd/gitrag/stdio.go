package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitrag/gitrag"
	"github.com/gitrag/gitrag/internal/log"
	"github.com/gitrag/gitrag/internal/mcp"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This allows AI assistants to search and index the configured repositories.
Configuration is loaded from environment variables and the .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol; logs go to stderr.
	logger := log.NewLoggerWithWriter(os.Stderr, cfg.LogFormat(), cfg.LogLevel())
	slogger := logger.Slog()

	slogger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("repos_dir", cfg.ReposDir()),
	)

	client, err := gitrag.New(
		gitrag.WithConfig(cfg),
		gitrag.WithLogger(slogger),
	)
	if err != nil {
		return fmt.Errorf("create gitrag client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close gitrag client", slog.Any("error", err))
		}
	}()

	return mcp.NewServer(client, slogger).ServeStdio()
}
