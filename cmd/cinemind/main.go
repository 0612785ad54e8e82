// Package main is the entry point for the cinemind CLI.
package main

import (
	"fmt"
	"os"

	"github.com/cinemind/cinemind/internal/config"
	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cinemind",
		Short: "Cinemind movie recommendation pipeline",
		Long: `Cinemind enriches movie synopses with an LLM, clusters them by
embedding similarity and serves cluster-based recommendations over HTTP.

The pipeline runs in stages: enrich rewrites synopses, train embeds and
clusters the catalog, serve answers recommendation requests.`,
	}

	cmd.AddCommand(enrichCmd())
	cmd.AddCommand(trainCmd())
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
