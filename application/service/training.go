package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/cinemind/cinemind/infrastructure/cluster"
	"github.com/cinemind/cinemind/infrastructure/dataset"
	"github.com/cinemind/cinemind/infrastructure/provider"
)

// embedBatchSize keeps embedding requests comfortably under provider input
// limits.
const embedBatchSize = 32

// Training runs the clustering stage: it embeds every enriched synopsis,
// fits K-Means over the vectors, and writes the labeled catalog plus the
// centroid model.
type Training struct {
	embedder     provider.Embedder
	cfg          cluster.TrainConfig
	enrichedPath string
	outPath      string
	modelPath    string
	log          *slog.Logger
}

// NewTraining creates the training stage.
func NewTraining(embedder provider.Embedder, cfg cluster.TrainConfig, enrichedPath, outPath, modelPath string, log *slog.Logger) *Training {
	return &Training{
		embedder:     embedder,
		cfg:          cfg,
		enrichedPath: enrichedPath,
		outPath:      outPath,
		modelPath:    modelPath,
		log:          log,
	}
}

// Run executes the stage. For a fixed catalog and embedder the run is
// deterministic, so retraining without changes reproduces the same labels.
func (s *Training) Run(ctx context.Context) error {
	movies, stage, err := dataset.Load(s.enrichedPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("enriched catalog %s does not exist, run cinemind enrich first", s.enrichedPath)
		}
		return fmt.Errorf("load enriched catalog: %w", err)
	}
	if stage < dataset.StageEnriched {
		return fmt.Errorf("catalog %s has no enriched synopses, run cinemind enrich first", s.enrichedPath)
	}
	s.log.Info("loaded catalog", "path", s.enrichedPath, "movies", len(movies), "embedder", s.embedder.Name())

	texts := make([]string, len(movies))
	for i, m := range movies {
		texts[i] = m.DisplaySynopsis()
	}

	vectors, err := s.embedAll(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed synopses: %w", err)
	}

	model, labels, err := cluster.Train(vectors, s.cfg)
	if err != nil {
		return fmt.Errorf("train clusters: %w", err)
	}
	s.log.Info("trained model", "k", model.K, "dimensions", model.Dimensions, "inertia", model.Inertia)

	for i := range movies {
		movies[i].Cluster = labels[i]
	}

	if err := dataset.Save(s.outPath, movies, dataset.StageClustered); err != nil {
		return fmt.Errorf("save labeled catalog: %w", err)
	}
	if err := model.Save(s.modelPath); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	s.log.Info("wrote labeled catalog", "path", s.outPath, "model", s.modelPath)
	return nil
}

// batchCapped is implemented by embedders with a hard per-call input limit.
type batchCapped interface {
	Capacity() int
}

// embedAll embeds texts in batches, preserving input order.
func (s *Training) embedAll(ctx context.Context, texts []string) ([][]float64, error) {
	batch := embedBatchSize
	if c, ok := s.embedder.(batchCapped); ok && c.Capacity() > 0 && c.Capacity() < batch {
		batch = c.Capacity()
	}

	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += batch {
		end := min(start+batch, len(texts))

		resp, err := s.embedder.Embed(ctx, provider.NewEmbeddingRequest(texts[start:end]))
		if err != nil {
			return nil, fmt.Errorf("batch starting at %d: %w", start, err)
		}
		embeddings := resp.Embeddings()
		if len(embeddings) != end-start {
			return nil, fmt.Errorf("batch starting at %d: got %d embeddings for %d texts", start, len(embeddings), end-start)
		}
		vectors = append(vectors, embeddings...)

		s.log.Info("embedded synopses", "progress", fmt.Sprintf("[%d/%d]", end, len(texts)))
	}
	return vectors, nil
}
