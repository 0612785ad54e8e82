package cluster

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Model is a trained K-Means model. It is persisted as JSON next to the
// labeled dataset so serving can assign new vectors without retraining.
type Model struct {
	K          int         `json:"k"`
	Seed       int64       `json:"seed"`
	Dimensions int         `json:"dimensions"`
	Inertia    float64     `json:"inertia"`
	Centroids  [][]float64 `json:"centroids"`
}

// Assign returns the index of the centroid nearest to the vector.
func (m *Model) Assign(vector []float64) (int, error) {
	if len(vector) != m.Dimensions {
		return 0, fmt.Errorf("assign: vector has %d dimensions, model expects %d", len(vector), m.Dimensions)
	}
	best := 0
	bestDist := squaredDistance(vector, m.Centroids[0])
	for c := 1; c < len(m.Centroids); c++ {
		if dist := squaredDistance(vector, m.Centroids[c]); dist < bestDist {
			bestDist = dist
			best = c
		}
	}
	return best, nil
}

// Save writes the model as JSON, creating parent directories as needed.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// LoadModel reads a previously saved model from disk.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if m.K <= 0 || len(m.Centroids) != m.K {
		return nil, fmt.Errorf("model at %s is inconsistent: k=%d with %d centroids", path, m.K, len(m.Centroids))
	}
	return &m, nil
}
