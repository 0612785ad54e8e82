package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

const hugotBatchMax = 10

// ortSingleton holds the process-wide ONNX Runtime session and pipeline.
// ORT allows one active session per process, so all LocalEmbedding instances
// share it. The mutex serializes both initialization and inference (ORT is
// not thread-safe).
var ortSingleton struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	mu       sync.Mutex
	ready    bool
}

// LocalEmbedding generates sentence embeddings on the local machine via the
// hugot runtime. It is the fallback embedder used when no embedding API is
// configured or reachable: degraded (slower, smaller model) but functional.
//
// modelDir must contain a subdirectory with an exported ONNX sentence
// embedding model (tokenizer.json plus model weights), e.g.
// all-MiniLM-L6-v2.
type LocalEmbedding struct {
	modelDir string
}

// NewLocalEmbedding creates a LocalEmbedding that looks for model files in
// modelDir.
func NewLocalEmbedding(modelDir string) *LocalEmbedding {
	return &LocalEmbedding{modelDir: modelDir}
}

// Available reports whether a usable model directory exists on disk.
func (l *LocalEmbedding) Available() bool {
	_, err := l.diskModelPath()
	return err == nil
}

// Name identifies the local model by its directory name.
func (l *LocalEmbedding) Name() string {
	path, err := l.diskModelPath()
	if err != nil {
		return "local"
	}
	return "local/" + filepath.Base(path)
}

func (l *LocalEmbedding) initialize() error {
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	if ortSingleton.ready {
		return nil
	}

	session, err := newHugotSession()
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}

	modelPath, err := l.diskModelPath()
	if err != nil {
		_ = session.Destroy()
		return err
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "sentence-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	ortSingleton.session = session
	ortSingleton.pipeline = pipeline
	ortSingleton.ready = true
	return nil
}

// diskModelPath looks for a model subdirectory containing tokenizer.json
// inside modelDir.
func (l *LocalEmbedding) diskModelPath() (string, error) {
	entries, err := os.ReadDir(l.modelDir)
	if err != nil {
		return "", fmt.Errorf("read model directory %s: %w", l.modelDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(l.modelDir, entry.Name())
		if _, statErr := os.Stat(filepath.Join(candidate, "tokenizer.json")); statErr == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no model subdirectory with tokenizer.json found in %s", l.modelDir)
}

// Capacity returns the maximum number of texts per Embed call.
func (l *LocalEmbedding) Capacity() int { return hugotBatchMax }

// Embed generates embeddings for the given texts using the local model.
// The number of texts must not exceed Capacity().
func (l *LocalEmbedding) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0, 0)), nil
	}

	if len(texts) > hugotBatchMax {
		return EmbeddingResponse{}, fmt.Errorf("embed: %d texts exceeds capacity %d", len(texts), hugotBatchMax)
	}

	if err := ctx.Err(); err != nil {
		return EmbeddingResponse{}, err
	}

	if err := l.initialize(); err != nil {
		return EmbeddingResponse{}, fmt.Errorf("initialize local embedder: %w", err)
	}

	// Hold the singleton mutex for inference.
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	result, err := ortSingleton.pipeline.RunPipeline(texts)
	if err != nil {
		return EmbeddingResponse{}, fmt.Errorf("run embedding pipeline: %w", err)
	}

	embeddings := make([][]float64, len(result.Embeddings))
	for i, vec32 := range result.Embeddings {
		vec64 := make([]float64, len(vec32))
		for j, v := range vec32 {
			vec64[j] = float64(v)
		}
		embeddings[i] = vec64
	}

	return NewEmbeddingResponse(embeddings, NewUsage(0, 0, 0)), nil
}

// Close is a no-op. The ONNX Runtime session is process-global and shared
// across all LocalEmbedding instances; it is cleaned up on process exit.
func (l *LocalEmbedding) Close() error {
	return nil
}

var _ Embedder = (*LocalEmbedding)(nil)
