// Package movie defines the core catalog types shared by every pipeline stage.
package movie

import (
	"errors"
	"fmt"
)

// UnlabeledCluster marks a record that has not been through the training stage.
const UnlabeledCluster = -1

// ErrNotFound indicates the requested movie is not in the catalog.
var ErrNotFound = errors.New("movie not found")

// Movie is one row of the dataset. ID is the record's position in the raw
// file and stays stable across the enrich and train stages so that derived
// columns can always be joined back.
type Movie struct {
	ID               int
	TitlePT          string
	TitleEN          string
	Genre            string
	Year             int
	Rating           float64
	Synopsis         string
	SynopsisEnriched string
	Cluster          int
}

// Enriched reports whether the enrichment stage has populated this record.
func (m Movie) Enriched() bool {
	return m.SynopsisEnriched != ""
}

// Labeled reports whether the training stage has assigned a cluster.
func (m Movie) Labeled() bool {
	return m.Cluster != UnlabeledCluster
}

// DisplaySynopsis returns the enriched synopsis when present, falling back
// to the original text.
func (m Movie) DisplaySynopsis() string {
	if m.SynopsisEnriched != "" {
		return m.SynopsisEnriched
	}
	return m.Synopsis
}

// Catalog is an immutable snapshot of one dataset generation. Stages never
// mutate a catalog in place; re-running a stage produces a new snapshot, so
// concurrent readers need no locking.
type Catalog struct {
	movies []Movie
	byID   map[int]int
}

// NewCatalog builds a catalog from the given records. Record order is
// preserved; it is the tie-break order for the recommendation selector.
func NewCatalog(movies []Movie) (*Catalog, error) {
	byID := make(map[int]int, len(movies))
	for i, m := range movies {
		if _, dup := byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate movie id %d", m.ID)
		}
		byID[m.ID] = i
	}
	snapshot := make([]Movie, len(movies))
	copy(snapshot, movies)
	return &Catalog{movies: snapshot, byID: byID}, nil
}

// Len returns the number of records in the catalog.
func (c *Catalog) Len() int {
	return len(c.movies)
}

// All returns the records in dataset order. The returned slice is a copy.
func (c *Catalog) All() []Movie {
	out := make([]Movie, len(c.movies))
	copy(out, c.movies)
	return out
}

// ByID returns the record with the given id.
func (c *Catalog) ByID(id int) (Movie, error) {
	idx, ok := c.byID[id]
	if !ok {
		return Movie{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return c.movies[idx], nil
}

// InCluster returns the records carrying the given cluster label, in dataset
// order.
func (c *Catalog) InCluster(label int) []Movie {
	var out []Movie
	for _, m := range c.movies {
		if m.Cluster == label {
			out = append(out, m)
		}
	}
	return out
}

// ClusterCounts returns the number of records per cluster label.
func (c *Catalog) ClusterCounts() map[int]int {
	counts := make(map[int]int)
	for _, m := range c.movies {
		counts[m.Cluster]++
	}
	return counts
}
