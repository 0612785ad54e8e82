// Package enricher rewrites movie synopses with a text generation provider.
package enricher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/cinemind/cinemind/domain/movie"
	"github.com/cinemind/cinemind/infrastructure/provider"
)

// systemPrompt instructs the model to rewrite a synopsis in movie trailer
// style. It is written in Portuguese because the catalog and the audience
// are Brazilian.
const systemPrompt = `Você é um roteirista de Hollywood especializado em sinopses de filmes.
Reescreva a sinopse a seguir de forma mais envolvente e cinematográfica,
mantendo o enredo e o desfecho originais. Use linguagem de trailer de cinema,
em no máximo 4 frases. Retorne APENAS o texto reescrito, sem comentários.`

const userPrefix = "Sinopse original: "

// Generation defaults. The interval paces requests at roughly one per second
// to stay inside free-tier rate limits.
const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 512

	progressTitleLen = 30
)

// SynopsisEnricher rewrites synopses one movie at a time, pacing requests
// with a rate limiter.
type SynopsisEnricher struct {
	generator   provider.TextGenerator
	limiter     *rate.Limiter
	maxTokens   int
	temperature float64
	log         *slog.Logger
}

// NewSynopsisEnricher creates a SynopsisEnricher with the default
// temperature and pacing.
func NewSynopsisEnricher(generator provider.TextGenerator, log *slog.Logger) *SynopsisEnricher {
	return &SynopsisEnricher{
		generator:   generator,
		limiter:     rate.NewLimiter(rate.Limit(1), 1),
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		log:         log,
	}
}

// WithLimiter replaces the request pacing limiter.
func (e *SynopsisEnricher) WithLimiter(l *rate.Limiter) *SynopsisEnricher {
	e.limiter = l
	return e
}

// WithTemperature sets the sampling temperature.
func (e *SynopsisEnricher) WithTemperature(t float64) *SynopsisEnricher {
	e.temperature = t
	return e
}

// WithMaxTokens caps the completion length per request.
func (e *SynopsisEnricher) WithMaxTokens(n int) *SynopsisEnricher {
	if n > 0 {
		e.maxTokens = n
	}
	return e
}

// Enrich rewrites a single synopsis. The caller decides what to do when the
// provider fails.
func (e *SynopsisEnricher) Enrich(ctx context.Context, synopsis string) (string, error) {
	messages := []provider.Message{
		provider.SystemMessage(systemPrompt),
		provider.UserMessage(userPrefix + synopsis),
	}

	req := provider.NewChatCompletionRequest(messages).
		WithMaxTokens(e.maxTokens).
		WithTemperature(e.temperature)

	resp, err := e.generator.ChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	// Models pad replies with stray newlines; keep the CSV clean.
	return strings.TrimSpace(resp.Content()), nil
}

// EnrichAll rewrites the synopsis of every movie, in order, and returns the
// movies with SynopsisEnriched set. A provider failure on one movie falls
// back to its original synopsis and the batch continues; only context
// cancellation aborts the run. Requests are paced by the limiter.
func (e *SynopsisEnricher) EnrichAll(ctx context.Context, movies []movie.Movie) ([]movie.Movie, error) {
	enriched := make([]movie.Movie, len(movies))
	copy(enriched, movies)

	for i := range enriched {
		if err := e.limiter.Wait(ctx); err != nil {
			return enriched, err
		}

		m := &enriched[i]
		e.log.Info("enriching synopsis",
			"progress", progress(i, len(enriched)),
			"title", truncate(m.TitlePT, progressTitleLen))

		text, err := e.Enrich(ctx, m.Synopsis)
		if err != nil {
			if ctx.Err() != nil {
				return enriched, ctx.Err()
			}
			e.log.Warn("enrichment failed, keeping original synopsis",
				"title", truncate(m.TitlePT, progressTitleLen),
				"error", err)
			m.SynopsisEnriched = m.Synopsis
			continue
		}
		m.SynopsisEnriched = text
	}

	return enriched, nil
}

func progress(i, n int) string {
	return fmt.Sprintf("[%d/%d]", i+1, n)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
