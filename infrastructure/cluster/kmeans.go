// Package cluster implements K-Means training over embedding vectors and the
// persisted centroid model used to label them.
package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Training defaults, chosen for reproducible runs over a few hundred
// synopses.
const (
	DefaultClusters = 5
	DefaultSeed     = 42
	DefaultRestarts = 10

	maxIterations = 300
	tolerance     = 1e-6
)

// TrainConfig controls a K-Means training run.
type TrainConfig struct {
	K        int
	Seed     int64
	Restarts int
}

// NewTrainConfig returns a TrainConfig with the defaults applied.
func NewTrainConfig() TrainConfig {
	return TrainConfig{
		K:        DefaultClusters,
		Seed:     DefaultSeed,
		Restarts: DefaultRestarts,
	}
}

// Train runs K-Means over the given vectors and returns the trained model
// plus one label per input vector, in input order. The run is deterministic
// for a fixed input, K, and seed: Restarts independent k-means++ seedings are
// drawn from a single seeded RNG and the partition with the lowest inertia
// (within-cluster sum of squared distances) wins.
//
// Labels are arbitrary identifiers in [0, K): nothing ties a label value to
// a semantic theme across separate training runs.
func Train(vectors [][]float64, cfg TrainConfig) (*Model, []int, error) {
	if len(vectors) == 0 {
		return nil, nil, fmt.Errorf("train: no vectors")
	}
	if cfg.K <= 0 {
		return nil, nil, fmt.Errorf("train: cluster count %d must be positive", cfg.K)
	}
	if cfg.K > len(vectors) {
		return nil, nil, fmt.Errorf("train: cluster count %d exceeds %d vectors", cfg.K, len(vectors))
	}
	if cfg.Restarts <= 0 {
		cfg.Restarts = 1
	}

	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dims {
			return nil, nil, fmt.Errorf("train: vector %d has %d dimensions, want %d", i, len(v), dims)
		}
	}

	data := mat.NewDense(len(vectors), dims, nil)
	for i, v := range vectors {
		data.SetRow(i, v)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	bestInertia := math.Inf(1)
	var bestCentroids *mat.Dense
	var bestLabels []int

	for restart := 0; restart < cfg.Restarts; restart++ {
		centroids := seedCentroids(data, cfg.K, rng)
		labels := lloyd(data, centroids)
		in := inertia(data, centroids, labels)

		if in < bestInertia {
			bestInertia = in
			bestCentroids = centroids
			bestLabels = labels
		}
	}

	model := &Model{
		K:          cfg.K,
		Seed:       cfg.Seed,
		Dimensions: dims,
		Inertia:    bestInertia,
		Centroids:  centroidRows(bestCentroids),
	}
	return model, bestLabels, nil
}

// seedCentroids picks K initial centroids with k-means++: the first uniformly
// at random, each subsequent one with probability proportional to its squared
// distance from the nearest centroid chosen so far.
func seedCentroids(data *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	centroids := mat.NewDense(k, d, nil)

	centroids.SetRow(0, data.RawRowView(rng.Intn(n)))

	weights := make([]float64, n)
	for i := 1; i < k; i++ {
		total := 0.0
		for j := 0; j < n; j++ {
			point := data.RawRowView(j)
			nearest := math.Inf(1)
			for c := 0; c < i; c++ {
				if dist := squaredDistance(point, centroids.RawRowView(c)); dist < nearest {
					nearest = dist
				}
			}
			weights[j] = nearest
			total += nearest
		}

		if total == 0 {
			// All points coincide with existing centroids.
			centroids.SetRow(i, data.RawRowView(rng.Intn(n)))
			continue
		}

		target := rng.Float64() * total
		cumulative := 0.0
		chosen := n - 1
		for j, w := range weights {
			cumulative += w
			if cumulative >= target {
				chosen = j
				break
			}
		}
		centroids.SetRow(i, data.RawRowView(chosen))
	}

	return centroids
}

// lloyd iterates assignment and centroid updates until assignments stop
// changing, the centroids move less than the tolerance, or the iteration cap
// is hit. It returns the final assignment.
func lloyd(data *mat.Dense, centroids *mat.Dense) []int {
	n, _ := data.Dims()
	k, d := centroids.Dims()

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i := 0; i < n; i++ {
			best := nearestCentroid(data.RawRowView(i), centroids)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		next := mat.NewDense(k, d, nil)
		counts := make([]int, k)
		for i := 0; i < n; i++ {
			c := labels[i]
			counts[c]++
			row := data.RawRowView(i)
			for j := 0; j < d; j++ {
				next.Set(c, j, next.At(c, j)+row[j])
			}
		}

		shift := 0.0
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Keep an empty cluster's centroid where it was.
				next.SetRow(c, centroids.RawRowView(c))
				continue
			}
			for j := 0; j < d; j++ {
				next.Set(c, j, next.At(c, j)/float64(counts[c]))
			}
			shift += squaredDistance(centroids.RawRowView(c), next.RawRowView(c))
		}

		centroids.Copy(next)
		if shift < tolerance {
			break
		}
	}

	return labels
}

// inertia computes the within-cluster sum of squared distances.
func inertia(data *mat.Dense, centroids *mat.Dense, labels []int) float64 {
	n, _ := data.Dims()
	total := 0.0
	for i := 0; i < n; i++ {
		total += squaredDistance(data.RawRowView(i), centroids.RawRowView(labels[i]))
	}
	return total
}

func nearestCentroid(point []float64, centroids *mat.Dense) int {
	k, _ := centroids.Dims()
	best := 0
	bestDist := math.Inf(1)
	for c := 0; c < k; c++ {
		if dist := squaredDistance(point, centroids.RawRowView(c)); dist < bestDist {
			bestDist = dist
			best = c
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func centroidRows(centroids *mat.Dense) [][]float64 {
	k, d := centroids.Dims()
	rows := make([][]float64, k)
	for i := 0; i < k; i++ {
		rows[i] = make([]float64, d)
		copy(rows[i], centroids.RawRowView(i))
	}
	return rows
}
