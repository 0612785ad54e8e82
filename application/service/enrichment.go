// Package service wires the pipeline stages together: enrichment, training,
// and recommendation serving.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cinemind/cinemind/infrastructure/dataset"
	"github.com/cinemind/cinemind/infrastructure/enricher"
)

// Enrichment runs the synopsis rewriting stage: it reads the raw catalog,
// rewrites each synopsis, and writes the enriched catalog for training.
type Enrichment struct {
	enricher *enricher.SynopsisEnricher
	rawPath  string
	outPath  string
	log      *slog.Logger
}

// NewEnrichment creates the enrichment stage.
func NewEnrichment(e *enricher.SynopsisEnricher, rawPath, outPath string, log *slog.Logger) *Enrichment {
	return &Enrichment{
		enricher: e,
		rawPath:  rawPath,
		outPath:  outPath,
		log:      log,
	}
}

// Run executes the stage. Movies whose rewrite fails keep their original
// synopsis, so the output always has one enriched row per input row.
func (s *Enrichment) Run(ctx context.Context) error {
	movies, stage, err := dataset.Load(s.rawPath)
	if err != nil {
		return fmt.Errorf("load raw catalog: %w", err)
	}
	s.log.Info("loaded catalog", "path", s.rawPath, "stage", stage.String(), "movies", len(movies))

	enriched, err := s.enricher.EnrichAll(ctx, movies)
	if err != nil {
		return fmt.Errorf("enrich catalog: %w", err)
	}

	if err := dataset.Save(s.outPath, enriched, dataset.StageEnriched); err != nil {
		return fmt.Errorf("save enriched catalog: %w", err)
	}
	s.log.Info("wrote enriched catalog", "path", s.outPath, "movies", len(enriched))
	return nil
}
