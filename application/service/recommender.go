package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/cinemind/cinemind/domain/movie"
	"github.com/cinemind/cinemind/domain/recommend"
	"github.com/cinemind/cinemind/infrastructure/dataset"
	"github.com/cinemind/cinemind/infrastructure/tmdb"
)

// MovieCard is a movie ready for presentation: catalog fields plus whatever
// TMDB metadata resolved.
type MovieCard struct {
	ID       int           `json:"id"`
	TitlePT  string        `json:"title_pt"`
	TitleEN  string        `json:"title_en"`
	Genre    string        `json:"genre"`
	Year     int           `json:"year"`
	Rating   float64       `json:"rating"`
	Synopsis string        `json:"synopsis"`
	Metadata tmdb.Metadata `json:"metadata"`
}

// Recommendation is the response to a blind pick: the choice revealed, plus
// ranked movies from the same cluster.
type Recommendation struct {
	Chosen  MovieCard   `json:"chosen"`
	Cluster int         `json:"cluster"`
	Movies  []MovieCard `json:"movies"`
}

// Recommender serves blind choices and cluster-constrained recommendations
// over a labeled catalog.
type Recommender struct {
	catalog  *movie.Catalog
	metadata tmdb.MetadataSource
	log      *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRecommender creates a Recommender over a labeled catalog. Choice
// sampling is seeded from src so runs differ; tests pass a fixed source.
func NewRecommender(catalog *movie.Catalog, metadata tmdb.MetadataSource, src rand.Source, log *slog.Logger) *Recommender {
	return &Recommender{
		catalog:  catalog,
		metadata: metadata,
		log:      log,
		rng:      rand.New(src),
	}
}

// Choices returns n random blind options, identified only by id and
// synopsis so the pick is about the story, not the title.
func (s *Recommender) Choices(n int) []recommend.Choice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recommend.SampleChoices(s.catalog, n, s.rng)
}

// Recommend reveals the chosen movie and returns up to limit movies from
// its cluster, best rated first. An unknown id returns movie.ErrNotFound
// so the caller can tell the user to pick again.
func (s *Recommender) Recommend(ctx context.Context, chosenID, limit int) (Recommendation, error) {
	chosen, err := s.catalog.ByID(chosenID)
	if err != nil {
		return Recommendation{}, err
	}

	ranked := recommend.Recommend(s.catalog, chosenID, chosen.Cluster, limit)

	rec := Recommendation{
		Chosen:  s.card(ctx, chosen),
		Cluster: chosen.Cluster,
		Movies:  make([]MovieCard, 0, len(ranked)),
	}
	for _, m := range ranked {
		rec.Movies = append(rec.Movies, s.card(ctx, m))
	}
	return rec, nil
}

// Movie returns a single presentation card.
func (s *Recommender) Movie(ctx context.Context, id int) (MovieCard, error) {
	m, err := s.catalog.ByID(id)
	if err != nil {
		return MovieCard{}, err
	}
	return s.card(ctx, m), nil
}

// Catalog exposes the underlying catalog, for startup reporting.
func (s *Recommender) Catalog() *movie.Catalog {
	return s.catalog
}

func (s *Recommender) card(ctx context.Context, m movie.Movie) MovieCard {
	meta, err := s.metadata.FullMovieData(ctx, m.TitleEN, m.Year)
	if err != nil {
		// Presentation survives without posters and trailers.
		s.log.Warn("metadata lookup failed", "title", m.TitleEN, "error", err)
		meta = tmdb.Metadata{}
	}
	return MovieCard{
		ID:       m.ID,
		TitlePT:  m.TitlePT,
		TitleEN:  m.TitleEN,
		Genre:    m.Genre,
		Year:     m.Year,
		Rating:   m.Rating,
		Synopsis: m.DisplaySynopsis(),
		Metadata: meta,
	}
}

// LoadRecommender builds a Recommender from a labeled catalog file.
func LoadRecommender(path string, metadata tmdb.MetadataSource, src rand.Source, log *slog.Logger) (*Recommender, error) {
	movies, stage, err := dataset.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("labeled catalog %s does not exist, run cinemind train first", path)
		}
		return nil, fmt.Errorf("load labeled catalog: %w", err)
	}
	if stage != dataset.StageClustered {
		return nil, fmt.Errorf("catalog %s has no cluster labels, run cinemind train first", path)
	}

	catalog, err := movie.NewCatalog(movies)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	log.Info("loaded labeled catalog", "path", path, "movies", catalog.Len(), "clusters", len(catalog.ClusterCounts()))
	return NewRecommender(catalog, metadata, src, log), nil
}
