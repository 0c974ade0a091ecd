package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitrag/gitrag"
	"github.com/gitrag/gitrag/infrastructure/api"
	"github.com/gitrag/gitrag/internal/config"
	"github.com/gitrag/gitrag/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                   Server host to bind to (default: 0.0.0.0)
  PORT                   Server port to listen on (default: 8000)
  REPOS_DIR              Directory containing the git repositories to index
  DATA_DIR               Data directory (default: .gitrag)
  DB_URL                 Registry database URL (default: sqlite:///{data_dir}/gitrag.db)
  APP_ENV                Environment name used in collection names (default: dev)
  LOG_LEVEL              Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT             Log format: pretty, json (default: pretty)
  ALLOW_DATA_RESET       Enable the destructive /admin/reset endpoint (default: false)

  QDRANT_HOST            Qdrant host (default: localhost)
  QDRANT_PORT            Qdrant gRPC port (default: 6334)
  EMBEDDING_DIM          Vector dimension; probed from the provider when unset

  EMBEDDING_BASE_URL     Embedding provider base URL (e.g. https://api.openai.com/v1)
  EMBEDDING_MODEL        Embedding model (default: text-embedding-3-large)
  EMBEDDING_API_KEY      Embedding provider API key`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8000)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	logger := log.Configure(cfg)
	slogger := logger.Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting gitrag", attrs...)

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

	apiServer := api.NewAPIServer(client)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slogger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(ctx); err != nil {
			slogger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	if err := apiServer.ListenAndServe(cfg.Addr()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
