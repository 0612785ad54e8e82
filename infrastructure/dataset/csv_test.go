package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinemind/cinemind/domain/movie"
	"github.com/cinemind/cinemind/infrastructure/dataset"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_RawStage(t *testing.T) {
	path := writeFile(t, `title_pt;title_en;genre;year;rating;sinopse
Um Sonho de Liberdade;1. The Shawshank Redemption;Drama;1994;9.3;Dois homens presos se aproximam.
O Poderoso Chefão;2. The Godfather;Crime;1972;9.2;O patriarca transfere o controle.
`)

	movies, stage, err := dataset.Load(path)
	require.NoError(t, err)
	assert.Equal(t, dataset.StageRaw, stage)
	require.Len(t, movies, 2)

	assert.Equal(t, 0, movies[0].ID)
	assert.Equal(t, "Um Sonho de Liberdade", movies[0].TitlePT)
	assert.Equal(t, "The Shawshank Redemption", movies[0].TitleEN, "rank prefix should be stripped")
	assert.Equal(t, 1994, movies[0].Year)
	assert.Equal(t, 9.3, movies[0].Rating)
	assert.Equal(t, movie.UnlabeledCluster, movies[0].Cluster)

	assert.Equal(t, 1, movies[1].ID)
	assert.Equal(t, "The Godfather", movies[1].TitleEN)
}

func TestLoad_StageDetection(t *testing.T) {
	enriched := writeFile(t, `title_pt;title_en;genre;year;rating;sinopse;sinopse_enriched
A;B;Drama;2000;7.5;original;reescrita
`)
	movies, stage, err := dataset.Load(enriched)
	require.NoError(t, err)
	assert.Equal(t, dataset.StageEnriched, stage)
	assert.Equal(t, "reescrita", movies[0].SynopsisEnriched)
	assert.Equal(t, movie.UnlabeledCluster, movies[0].Cluster)

	clustered := writeFile(t, `title_pt;title_en;genre;year;rating;sinopse;sinopse_enriched;Cluster
A;B;Drama;2000;7.5;original;reescrita;3
`)
	movies, stage, err = dataset.Load(clustered)
	require.NoError(t, err)
	assert.Equal(t, dataset.StageClustered, stage)
	assert.Equal(t, 3, movies[0].Cluster)
}

func TestLoad_Errors(t *testing.T) {
	_, _, err := dataset.Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, _, err = dataset.Load(writeFile(t, `title_pt;genre;year;rating;sinopse
A;Drama;2000;7.5;texto
`))
	assert.ErrorContains(t, err, "missing column")

	_, _, err = dataset.Load(writeFile(t, `title_pt;title_en;genre;year;rating;sinopse
A;B;Drama;not-a-year;7.5;texto
`))
	assert.ErrorContains(t, err, "invalid year")
}

func TestLoad_CommaDecimalRating(t *testing.T) {
	path := writeFile(t, `title_pt;title_en;genre;year;rating;sinopse
A;B;Drama;2000;"8,7";texto
`)
	movies, _, err := dataset.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8.7, movies[0].Rating)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	movies := []movie.Movie{
		{ID: 0, TitlePT: "Cidade de Deus", TitleEN: "City of God", Genre: "Crime", Year: 2002, Rating: 8.6, Synopsis: "Buscapé cresce na favela.", SynopsisEnriched: "Num lugar onde a violência dita as regras.", Cluster: 2},
		{ID: 1, TitlePT: "Central do Brasil", TitleEN: "Central Station", Genre: "Drama", Year: 1998, Rating: 8.0, Synopsis: "Dora escreve cartas; com ponto e vírgula.", SynopsisEnriched: "Uma jornada pelo sertão.", Cluster: 0},
	}

	path := filepath.Join(t.TempDir(), "out", "all_movies_clustered.csv")
	require.NoError(t, dataset.Save(path, movies, dataset.StageClustered))

	loaded, stage, err := dataset.Load(path)
	require.NoError(t, err)
	assert.Equal(t, dataset.StageClustered, stage)
	assert.Equal(t, movies, loaded, "row order and fields survive, including delimiter characters in text")
}
