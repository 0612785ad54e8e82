package service_test

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/cinemind/cinemind/application/service"
	"github.com/cinemind/cinemind/domain/movie"
	"github.com/cinemind/cinemind/infrastructure/cluster"
	"github.com/cinemind/cinemind/infrastructure/dataset"
	"github.com/cinemind/cinemind/infrastructure/enricher"
	"github.com/cinemind/cinemind/infrastructure/provider"
	"github.com/cinemind/cinemind/infrastructure/tmdb"
)

// fakeGenerator rewrites every synopsis the same way.
type fakeGenerator struct{}

func (fakeGenerator) ChatCompletion(_ context.Context, req provider.ChatCompletionRequest) (provider.ChatCompletionResponse, error) {
	msgs := req.Messages()
	return provider.NewChatCompletionResponse("trailer: "+msgs[1].Content(), "stop", provider.NewUsage(0, 0, 0)), nil
}

// fakeEmbedder places texts on a line so clustering is trivial: texts
// containing "crime" land far from the rest.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	texts := req.Texts()
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		x := 0.0
		for _, r := range text {
			x += float64(r % 13)
		}
		vectors[i] = []float64{x / float64(len(text)+1), float64(len(text) % 7)}
	}
	return provider.NewEmbeddingResponse(vectors, provider.NewUsage(0, 0, 0)), nil
}

func (fakeEmbedder) Name() string { return "fake" }
func (fakeEmbedder) Close() error { return nil }

func writeRawCatalog(t *testing.T, dir string, n int) string {
	t.Helper()
	movies := make([]movie.Movie, n)
	for i := range movies {
		movies[i] = movie.Movie{
			ID:       i,
			TitlePT:  fmt.Sprintf("Filme %d", i),
			TitleEN:  fmt.Sprintf("Movie %d", i),
			Genre:    "Drama",
			Year:     2000 + i,
			Rating:   7.0 + float64(i%3),
			Synopsis: fmt.Sprintf("sinopse número %d com algum texto variado %s", i, string(rune('a'+i%26))),
			Cluster:  movie.UnlabeledCluster,
		}
	}
	path := filepath.Join(dir, dataset.RawFile)
	require.NoError(t, dataset.Save(path, movies, dataset.StageRaw))
	return path
}

func TestEnrichment_Run(t *testing.T) {
	dir := t.TempDir()
	rawPath := writeRawCatalog(t, dir, 4)
	outPath := filepath.Join(dir, dataset.EnrichedFile)

	e := enricher.NewSynopsisEnricher(fakeGenerator{}, slog.Default()).
		WithLimiter(rate.NewLimiter(rate.Inf, 1))
	stage := service.NewEnrichment(e, rawPath, outPath, slog.Default())
	require.NoError(t, stage.Run(context.Background()))

	movies, detected, err := dataset.Load(outPath)
	require.NoError(t, err)
	assert.Equal(t, dataset.StageEnriched, detected)
	require.Len(t, movies, 4)
	for _, m := range movies {
		assert.True(t, m.Enriched())
		assert.Contains(t, m.SynopsisEnriched, "trailer: ")
	}
}

func TestEnrichment_Run_MissingInput(t *testing.T) {
	dir := t.TempDir()
	e := enricher.NewSynopsisEnricher(fakeGenerator{}, slog.Default())
	stage := service.NewEnrichment(e, filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.csv"), slog.Default())
	assert.Error(t, stage.Run(context.Background()))
}

func TestTraining_Run(t *testing.T) {
	dir := t.TempDir()
	rawPath := writeRawCatalog(t, dir, 12)

	// Promote the raw file to enriched so training accepts it.
	movies, _, err := dataset.Load(rawPath)
	require.NoError(t, err)
	for i := range movies {
		movies[i].SynopsisEnriched = "reescrita " + movies[i].Synopsis
	}
	enrichedPath := filepath.Join(dir, dataset.EnrichedFile)
	require.NoError(t, dataset.Save(enrichedPath, movies, dataset.StageEnriched))

	outPath := filepath.Join(dir, dataset.ClusteredFile)
	modelPath := filepath.Join(dir, dataset.ModelFile)

	cfg := cluster.NewTrainConfig()
	cfg.K = 3
	stage := service.NewTraining(fakeEmbedder{}, cfg, enrichedPath, outPath, modelPath, slog.Default())
	require.NoError(t, stage.Run(context.Background()))

	labeled, detected, err := dataset.Load(outPath)
	require.NoError(t, err)
	assert.Equal(t, dataset.StageClustered, detected)
	require.Len(t, labeled, 12)
	for _, m := range labeled {
		assert.True(t, m.Labeled())
		assert.GreaterOrEqual(t, m.Cluster, 0)
		assert.Less(t, m.Cluster, 3)
	}

	model, err := cluster.LoadModel(modelPath)
	require.NoError(t, err)
	assert.Equal(t, 3, model.K)
	assert.Equal(t, 2, model.Dimensions)
}

func TestTraining_Run_IsDeterministic(t *testing.T) {
	dir := t.TempDir()
	rawPath := writeRawCatalog(t, dir, 10)
	movies, _, err := dataset.Load(rawPath)
	require.NoError(t, err)
	for i := range movies {
		movies[i].SynopsisEnriched = movies[i].Synopsis
	}
	enrichedPath := filepath.Join(dir, dataset.EnrichedFile)
	require.NoError(t, dataset.Save(enrichedPath, movies, dataset.StageEnriched))

	cfg := cluster.NewTrainConfig()
	cfg.K = 2

	run := func(suffix string) []movie.Movie {
		outPath := filepath.Join(dir, "out"+suffix+".csv")
		modelPath := filepath.Join(dir, "model"+suffix+".json")
		stage := service.NewTraining(fakeEmbedder{}, cfg, enrichedPath, outPath, modelPath, slog.Default())
		require.NoError(t, stage.Run(context.Background()))
		labeled, _, err := dataset.Load(outPath)
		require.NoError(t, err)
		return labeled
	}

	assert.Equal(t, run("a"), run("b"))
}

func TestTraining_Run_RejectsRawInput(t *testing.T) {
	dir := t.TempDir()
	rawPath := writeRawCatalog(t, dir, 3)

	stage := service.NewTraining(fakeEmbedder{}, cluster.NewTrainConfig(),
		rawPath, filepath.Join(dir, "out.csv"), filepath.Join(dir, "model.json"), slog.Default())
	err := stage.Run(context.Background())
	assert.ErrorContains(t, err, "run cinemind enrich first")
}

func TestTraining_Run_MissingInputNamesProducingCommand(t *testing.T) {
	dir := t.TempDir()

	stage := service.NewTraining(fakeEmbedder{}, cluster.NewTrainConfig(),
		filepath.Join(dir, dataset.EnrichedFile),
		filepath.Join(dir, "out.csv"), filepath.Join(dir, "model.json"), slog.Default())
	err := stage.Run(context.Background())
	assert.ErrorContains(t, err, "run cinemind enrich first")
}

// staticMetadata is a MetadataSource stub.
type staticMetadata struct{ meta tmdb.Metadata }

func (s *staticMetadata) FullMovieData(context.Context, string, int) (tmdb.Metadata, error) {
	return s.meta, nil
}

func TestLoadRecommender(t *testing.T) {
	dir := t.TempDir()
	movies := []movie.Movie{
		{ID: 0, TitlePT: "A", TitleEN: "A", Genre: "Drama", Year: 2000, Rating: 7, Synopsis: "sa", SynopsisEnriched: "ea", Cluster: 0},
		{ID: 1, TitlePT: "B", TitleEN: "B", Genre: "Drama", Year: 2001, Rating: 8, Synopsis: "sb", SynopsisEnriched: "eb", Cluster: 1},
	}
	path := filepath.Join(dir, dataset.ClusteredFile)
	require.NoError(t, dataset.Save(path, movies, dataset.StageClustered))

	rec, err := service.LoadRecommender(path, &staticMetadata{}, rand.NewSource(1), slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Catalog().Len())
}

func TestLoadRecommender_RejectsUnlabeled(t *testing.T) {
	dir := t.TempDir()
	path := writeRawCatalog(t, dir, 2)

	_, err := service.LoadRecommender(path, &staticMetadata{}, rand.NewSource(1), slog.Default())
	assert.ErrorContains(t, err, "run cinemind train first")
}

func TestLoadRecommender_MissingInputNamesProducingCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, dataset.ClusteredFile)

	_, err := service.LoadRecommender(path, &staticMetadata{}, rand.NewSource(1), slog.Default())
	assert.ErrorContains(t, err, "run cinemind train first")
}

func TestRecommender_Recommend(t *testing.T) {
	catalog, err := movie.NewCatalog([]movie.Movie{
		{ID: 0, TitleEN: "Chosen", Cluster: 0, Rating: 7.0, Year: 2010, Synopsis: "s0"},
		{ID: 1, TitleEN: "Best", Cluster: 0, Rating: 9.0, Year: 2015, Synopsis: "s1"},
		{ID: 2, TitleEN: "Other", Cluster: 1, Rating: 9.9, Year: 2020, Synopsis: "s2"},
	})
	require.NoError(t, err)

	rec := service.NewRecommender(catalog,
		&staticMetadata{meta: tmdb.Metadata{PosterURL: "poster"}},
		rand.NewSource(1), slog.Default())

	got, err := rec.Recommend(context.Background(), 0, 5)
	require.NoError(t, err)
	assert.Equal(t, "Chosen", got.Chosen.TitleEN)
	assert.Equal(t, "poster", got.Chosen.Metadata.PosterURL)
	require.Len(t, got.Movies, 1)
	assert.Equal(t, "Best", got.Movies[0].TitleEN)

	_, err = rec.Recommend(context.Background(), 42, 5)
	assert.ErrorIs(t, err, movie.ErrNotFound)
}

func TestRecommender_Movie_MetadataFailureIsSoft(t *testing.T) {
	catalog, err := movie.NewCatalog([]movie.Movie{
		{ID: 0, TitleEN: "Solo", Cluster: 0, Synopsis: "s"},
	})
	require.NoError(t, err)

	rec := service.NewRecommender(catalog, failingMetadata{}, rand.NewSource(1), slog.Default())
	card, err := rec.Movie(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, tmdb.Metadata{}, card.Metadata)
}

type failingMetadata struct{}

func (failingMetadata) FullMovieData(context.Context, string, int) (tmdb.Metadata, error) {
	return tmdb.Metadata{}, os.ErrDeadlineExceeded
}
