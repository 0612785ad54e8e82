// Package recommend implements the cluster-constrained selection logic: ranked
// same-cluster recommendations and blind random choice sampling.
package recommend

import (
	"math/rand"
	"sort"

	"github.com/cinemind/cinemind/domain/movie"
)

// DefaultLimit is the number of recommendations returned when the caller does
// not specify one.
const DefaultLimit = 5

// Choice is one blind option offered to the user. The title is deliberately
// withheld; the user picks on synopsis alone.
type Choice struct {
	ID       int    `json:"id"`
	Synopsis string `json:"synopsis"`
}

// Recommend returns up to limit records from the given cluster, excluding the
// chosen record itself, ordered by rating descending then year descending.
// Records tied on both keys keep their dataset order. An empty result is not
// an error.
func Recommend(catalog *movie.Catalog, chosenID, cluster, limit int) []movie.Movie {
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates := catalog.InCluster(cluster)
	eligible := candidates[:0]
	for _, m := range candidates {
		if m.ID != chosenID {
			eligible = append(eligible, m)
		}
	}

	// Stable sort keeps dataset order among true ties.
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Rating != eligible[j].Rating {
			return eligible[i].Rating > eligible[j].Rating
		}
		return eligible[i].Year > eligible[j].Year
	})

	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible
}

// SampleChoices draws n records uniformly at random without replacement from
// the full catalog, independent of cluster. If n exceeds the catalog size,
// every record is returned. No state is kept between calls.
func SampleChoices(catalog *movie.Catalog, n int, rng *rand.Rand) []Choice {
	movies := catalog.All()
	if n > len(movies) {
		n = len(movies)
	}
	if n <= 0 {
		return nil
	}

	rng.Shuffle(len(movies), func(i, j int) {
		movies[i], movies[j] = movies[j], movies[i]
	})

	choices := make([]Choice, n)
	for i, m := range movies[:n] {
		choices[i] = Choice{ID: m.ID, Synopsis: m.DisplaySynopsis()}
	}
	return choices
}
