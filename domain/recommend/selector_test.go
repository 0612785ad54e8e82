package recommend_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinemind/cinemind/domain/movie"
	"github.com/cinemind/cinemind/domain/recommend"
)

func mustCatalog(t *testing.T, movies []movie.Movie) *movie.Catalog {
	t.Helper()
	catalog, err := movie.NewCatalog(movies)
	require.NoError(t, err)
	return catalog
}

func ids(movies []movie.Movie) []int {
	out := make([]int, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}

func TestRecommend_RanksClusterByRatingThenYear(t *testing.T) {
	// Six records across two clusters. The chosen movie sits in cluster 0
	// with four other members.
	catalog := mustCatalog(t, []movie.Movie{
		{ID: 0, Cluster: 0, Rating: 7.0, Year: 2010},
		{ID: 1, Cluster: 0, Rating: 8.1, Year: 2020},
		{ID: 2, Cluster: 0, Rating: 7.9, Year: 2021},
		{ID: 3, Cluster: 1, Rating: 9.9, Year: 2022},
		{ID: 4, Cluster: 0, Rating: 8.1, Year: 2019},
		{ID: 5, Cluster: 0, Rating: 6.0, Year: 2023},
	})

	got := recommend.Recommend(catalog, 0, 0, 5)
	require.Len(t, got, 4)

	// Rating descending first, year descending on ties. The 9.9 movie is in
	// the other cluster and must not appear.
	assert.Equal(t, []int{1, 4, 2, 5}, ids(got))
	for i := 1; i < len(got); i++ {
		a, b := got[i-1], got[i]
		assert.True(t, a.Rating > b.Rating || (a.Rating == b.Rating && a.Year >= b.Year))
	}
}

func TestRecommend_ExcludesChosen(t *testing.T) {
	catalog := mustCatalog(t, []movie.Movie{
		{ID: 0, Cluster: 2, Rating: 9.0},
		{ID: 1, Cluster: 2, Rating: 8.0},
	})

	got := recommend.Recommend(catalog, 0, 2, 5)
	assert.Equal(t, []int{1}, ids(got))
}

func TestRecommend_TrueTiesKeepDatasetOrder(t *testing.T) {
	catalog := mustCatalog(t, []movie.Movie{
		{ID: 0, Cluster: 0, Rating: 8.0, Year: 2000},
		{ID: 1, Cluster: 0, Rating: 8.0, Year: 2000},
		{ID: 2, Cluster: 0, Rating: 8.0, Year: 2000},
	})

	got := recommend.Recommend(catalog, 99, 0, 5)
	assert.Equal(t, []int{0, 1, 2}, ids(got))
}

func TestRecommend_LimitAndEmpty(t *testing.T) {
	catalog := mustCatalog(t, []movie.Movie{
		{ID: 0, Cluster: 0, Rating: 9.0},
		{ID: 1, Cluster: 0, Rating: 8.0},
		{ID: 2, Cluster: 0, Rating: 7.0},
	})

	assert.Len(t, recommend.Recommend(catalog, 99, 0, 2), 2)
	assert.Len(t, recommend.Recommend(catalog, 99, 0, 10), 3, "fewer than limit is not an error")
	assert.Empty(t, recommend.Recommend(catalog, 99, 5, 5), "unknown cluster yields an empty set")

	// A singleton cluster where the single member was chosen.
	solo := mustCatalog(t, []movie.Movie{{ID: 0, Cluster: 3}})
	assert.Empty(t, recommend.Recommend(solo, 0, 3, 5))
}

func TestRecommend_DefaultLimit(t *testing.T) {
	var movies []movie.Movie
	for i := 0; i < 10; i++ {
		movies = append(movies, movie.Movie{ID: i, Cluster: 0, Rating: float64(i)})
	}
	catalog := mustCatalog(t, movies)

	got := recommend.Recommend(catalog, 99, 0, 0)
	assert.Len(t, got, recommend.DefaultLimit)
}

func TestSampleChoices(t *testing.T) {
	catalog := mustCatalog(t, []movie.Movie{
		{ID: 0, Synopsis: "a"},
		{ID: 1, Synopsis: "b", SynopsisEnriched: "b reescrita"},
		{ID: 2, Synopsis: "c"},
		{ID: 3, Synopsis: "d"},
	})

	rng := rand.New(rand.NewSource(1))
	choices := recommend.SampleChoices(catalog, 3, rng)
	require.Len(t, choices, 3)

	seen := make(map[int]bool)
	for _, c := range choices {
		assert.False(t, seen[c.ID], "no choice repeats")
		seen[c.ID] = true
		assert.NotEmpty(t, c.Synopsis)
	}
}

func TestSampleChoices_UsesEnrichedSynopsis(t *testing.T) {
	catalog := mustCatalog(t, []movie.Movie{
		{ID: 0, Synopsis: "original", SynopsisEnriched: "reescrita"},
	})

	choices := recommend.SampleChoices(catalog, 1, rand.New(rand.NewSource(1)))
	require.Len(t, choices, 1)
	assert.Equal(t, "reescrita", choices[0].Synopsis)
}

func TestSampleChoices_Bounds(t *testing.T) {
	catalog := mustCatalog(t, []movie.Movie{{ID: 0}, {ID: 1}})
	rng := rand.New(rand.NewSource(1))

	assert.Len(t, recommend.SampleChoices(catalog, 5, rng), 2, "n beyond catalog size returns everything")
	assert.Empty(t, recommend.SampleChoices(catalog, 0, rng))
}
