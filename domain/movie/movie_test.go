package movie_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinemind/cinemind/domain/movie"
)

func TestMovie_DisplaySynopsis(t *testing.T) {
	m := movie.Movie{Synopsis: "original"}
	assert.Equal(t, "original", m.DisplaySynopsis())

	m.SynopsisEnriched = "reescrita"
	assert.Equal(t, "reescrita", m.DisplaySynopsis())
}

func TestMovie_StageFlags(t *testing.T) {
	m := movie.Movie{Cluster: movie.UnlabeledCluster}
	assert.False(t, m.Enriched())
	assert.False(t, m.Labeled())

	m.SynopsisEnriched = "texto"
	m.Cluster = 0
	assert.True(t, m.Enriched())
	assert.True(t, m.Labeled(), "cluster 0 is a real label")
}

func TestNewCatalog_RejectsDuplicateIDs(t *testing.T) {
	_, err := movie.NewCatalog([]movie.Movie{{ID: 1}, {ID: 1}})
	assert.ErrorContains(t, err, "duplicate movie id 1")
}

func TestCatalog_ByID(t *testing.T) {
	catalog, err := movie.NewCatalog([]movie.Movie{
		{ID: 0, TitleEN: "First"},
		{ID: 1, TitleEN: "Second"},
	})
	require.NoError(t, err)

	m, err := catalog.ByID(1)
	require.NoError(t, err)
	assert.Equal(t, "Second", m.TitleEN)

	_, err = catalog.ByID(99)
	assert.ErrorIs(t, err, movie.ErrNotFound)
}

func TestCatalog_IsSnapshot(t *testing.T) {
	source := []movie.Movie{{ID: 0, TitleEN: "Original"}}
	catalog, err := movie.NewCatalog(source)
	require.NoError(t, err)

	source[0].TitleEN = "Mutated"
	m, err := catalog.ByID(0)
	require.NoError(t, err)
	assert.Equal(t, "Original", m.TitleEN)

	all := catalog.All()
	all[0].TitleEN = "Mutated again"
	m, _ = catalog.ByID(0)
	assert.Equal(t, "Original", m.TitleEN)
}

func TestCatalog_InCluster(t *testing.T) {
	catalog, err := movie.NewCatalog([]movie.Movie{
		{ID: 0, Cluster: 1},
		{ID: 1, Cluster: 0},
		{ID: 2, Cluster: 1},
	})
	require.NoError(t, err)

	got := catalog.InCluster(1)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ID, "dataset order is preserved")
	assert.Equal(t, 2, got[1].ID)

	assert.Empty(t, catalog.InCluster(7))
	assert.Equal(t, map[int]int{0: 1, 1: 2}, catalog.ClusterCounts())
}
