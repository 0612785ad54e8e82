package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cinemind/cinemind/application/service"
	"github.com/cinemind/cinemind/infrastructure/api"
	"github.com/cinemind/cinemind/infrastructure/tmdb"
	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the recommendation HTTP API",
		Long: `Start the HTTP API over a clustered catalog.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                     Server host to bind to (default: 0.0.0.0)
  PORT                     Server port to listen on (default: 8080)
  DATA_DIR                 Data directory (default: ~/.cinemind)
  LOG_LEVEL                Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT               Log format: pretty, json (default: pretty)

  TMDB_API_KEY             TMDB API key, required for serving
  TMDB_BASE_URL            TMDB API base URL override
  TMDB_CACHE_TTL_HOURS     Metadata cache lifetime (default: 24)

  CHOICES                  Movies offered per choice round (default: 5)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// Flags take precedence over env vars.
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	tm := cfg.TMDB()
	if !tm.IsConfigured() {
		return fmt.Errorf("serving needs movie metadata, set TMDB_API_KEY")
	}

	client := tmdb.NewClient(tm.APIKey(), slogger)
	if tm.BaseURL() != "" {
		client = client.WithBaseURL(tm.BaseURL())
	}
	metadata := tmdb.NewCachedClient(client, tm.CacheTTL())

	recommender, err := service.LoadRecommender(
		cfg.ClusteredCatalogPath(),
		metadata,
		rand.NewSource(time.Now().UnixNano()),
		slogger,
	)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting cinemind", attrs...)

	apiServer := api.NewAPIServer(recommender, version, cfg.ChoiceCount(), slogger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slogger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
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
