package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/cinemind/cinemind/application/service"
	"github.com/cinemind/cinemind/infrastructure/enricher"
	"github.com/cinemind/cinemind/infrastructure/provider"
	"github.com/cinemind/cinemind/internal/log"
)

func enrichCmd() *cobra.Command {
	var (
		envFile string
		input   string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Rewrite catalog synopses with an LLM",
		Long: `Rewrite every synopsis in the raw catalog with an LLM and write the
enriched catalog next to it. Movies whose rewrite fails keep their original
synopsis.

Requires OPENAI_API_KEY. Requests are paced one per second unless
ENRICH_INTERVAL_SECONDS says otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrich(envFile, input, output)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&input, "input", "", "Raw catalog CSV (default: {data_dir}/all_movies.csv)")
	cmd.Flags().StringVar(&output, "output", "", "Enriched catalog CSV (default: {data_dir}/all_movies_enriched.csv)")

	return cmd
}

func runEnrich(envFile, input, output string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	chat := cfg.ChatEndpoint()
	if chat == nil || !chat.IsConfigured() {
		return fmt.Errorf("enrichment needs an LLM, set OPENAI_API_KEY")
	}

	providerCfg := provider.OpenAIConfig{
		APIKey:        chat.APIKey(),
		BaseURL:       chat.BaseURL(),
		ChatModel:     chat.Model(),
		Timeout:       chat.Timeout(),
		MaxRetries:    chat.MaxRetries(),
		InitialDelay:  chat.InitialDelay(),
		BackoffFactor: chat.BackoffFactor(),
	}
	if cfg.HTTPCacheEnabled() {
		providerCfg.Transport = provider.NewCachingTransport(cfg.HTTPCacheDir(), nil)
	}

	llm, err := provider.NewOpenAIProvider(providerCfg)
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}
	defer func() {
		if err := llm.Close(); err != nil {
			slogger.Error("failed to close LLM provider", "error", err)
		}
	}()

	synopsisEnricher := enricher.NewSynopsisEnricher(llm, slogger).
		WithLimiter(rate.NewLimiter(rate.Every(cfg.EnrichInterval()), 1)).
		WithMaxTokens(chat.MaxTokens())

	in := input
	if in == "" {
		in = cfg.RawCatalogPath()
	}
	out := output
	if out == "" {
		out = cfg.EnrichedCatalogPath()
	}

	svc := service.NewEnrichment(synopsisEnricher, in, out, slogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}
	return nil
}
