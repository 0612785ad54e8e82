package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cinemind/cinemind/application/service"
	"github.com/cinemind/cinemind/infrastructure/cluster"
	"github.com/cinemind/cinemind/infrastructure/provider"
	"github.com/cinemind/cinemind/internal/config"
	"github.com/cinemind/cinemind/internal/log"
)

func trainCmd() *cobra.Command {
	var (
		envFile  string
		input    string
		output   string
		clusters int
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Embed the enriched catalog and cluster it",
		Long: `Embed every enriched synopsis, run K-Means over the vectors and write
the clustered catalog plus the trained model.

Embeddings come from OPENAI_API_KEY when set, otherwise from a local ONNX
model at LOCAL_EMBEDDING_PATH.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(envFile, input, output, clusters)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&input, "input", "", "Enriched catalog CSV (default: {data_dir}/all_movies_enriched.csv)")
	cmd.Flags().StringVar(&output, "output", "", "Clustered catalog CSV (default: {data_dir}/all_movies_clustered.csv)")
	cmd.Flags().IntVar(&clusters, "clusters", 0, "Number of clusters (default: CLUSTERS env var or 5)")

	return cmd
}

func runTrain(envFile, input, output string, clusters int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	embedder, closeEmbedder, err := buildEmbedder(cfg, slogger)
	if err != nil {
		return err
	}
	defer closeEmbedder()

	cc := cfg.Cluster()
	trainCfg := cluster.TrainConfig{
		K:        cc.Count(),
		Seed:     cc.Seed(),
		Restarts: cc.Restarts(),
	}
	if clusters > 0 {
		trainCfg.K = clusters
	}

	in := input
	if in == "" {
		in = cfg.EnrichedCatalogPath()
	}
	out := output
	if out == "" {
		out = cfg.ClusteredCatalogPath()
	}

	svc := service.NewTraining(embedder, trainCfg, in, out, cfg.ModelPath(), slogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	return nil
}

// buildEmbedder prefers the hosted embedding endpoint and falls back to the
// local ONNX model.
func buildEmbedder(cfg config.AppConfig, slogger *slog.Logger) (provider.Embedder, func(), error) {
	if emb := cfg.EmbeddingEndpoint(); emb != nil && emb.IsConfigured() {
		providerCfg := provider.OpenAIConfig{
			APIKey:         emb.APIKey(),
			BaseURL:        emb.BaseURL(),
			EmbeddingModel: emb.Model(),
			Timeout:        emb.Timeout(),
			MaxRetries:     emb.MaxRetries(),
			InitialDelay:   emb.InitialDelay(),
			BackoffFactor:  emb.BackoffFactor(),
		}
		if cfg.HTTPCacheEnabled() {
			providerCfg.Transport = provider.NewCachingTransport(cfg.HTTPCacheDir(), nil)
		}
		p, err := provider.NewOpenAIProvider(providerCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create embedding provider: %w", err)
		}
		return p, func() {
			if err := p.Close(); err != nil {
				slogger.Error("failed to close embedding provider", "error", err)
			}
		}, nil
	}

	if path := cfg.LocalEmbeddingPath(); path != "" {
		local := provider.NewLocalEmbedding(path)
		return local, func() {
			if err := local.Close(); err != nil {
				slogger.Error("failed to close local embedder", "error", err)
			}
		}, nil
	}

	return nil, nil, fmt.Errorf("training needs embeddings, set OPENAI_API_KEY or LOCAL_EMBEDDING_PATH")
}
