package embedders

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/plandraft/docchunk/pkg/config"
	"github.com/plandraft/docchunk/pkg/errors"
	"github.com/plandraft/docchunk/pkg/types"
)

const defaultMockDimension = 384

// MockEmbedder is a deterministic embedder for tests and offline runs.
// The same text always produces the same unit-length vector.
type MockEmbedder struct {
	*BaseEmbedder
}

// NewMockEmbedder creates a new mock embedder
func NewMockEmbedder(cfg *config.EmbedderConfig) (*MockEmbedder, error) {
	modelName := "mock-embedder"
	dimension := defaultMockDimension

	if cfg != nil {
		if cfg.Model != "" {
			modelName = cfg.Model
		}
		if cfg.Dimension > 0 {
			dimension = cfg.Dimension
		}
	}

	base := NewBaseEmbedder(modelName, dimension)
	if cfg != nil {
		base.SetTimeout(cfg.Timeout)
	}

	return &MockEmbedder{BaseEmbedder: base}, nil
}

// Embed generates a deterministic embedding seeded by the text content
func (m *MockEmbedder) Embed(ctx context.Context, text string) (types.EmbeddingVector, error) {
	start := time.Now()
	defer func() {
		m.AddToTimer("embed_duration", time.Since(start))
		m.IncrementCounter("embed_calls")
	}()

	if text == "" {
		return nil, errors.NewEmbeddingError("empty text", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hasher := fnv.New64a()
	hasher.Write([]byte(m.PreprocessText(text)))
	state := hasher.Sum64()

	vector := make(types.EmbeddingVector, m.GetDimension())
	for i := range vector {
		state = state*6364136223846793005 + 1442695040888963407
		vector[i] = float32(int32(state>>33))/float32(1<<31) - 0.5
	}

	return m.NormalizeVector(vector), nil
}

// EmbedBatch generates deterministic embeddings for multiple texts
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]types.EmbeddingVector, error) {
	if len(texts) == 0 {
		return []types.EmbeddingVector{}, nil
	}

	embeddings := make([]types.EmbeddingVector, 0, len(texts))
	for i, text := range texts {
		embedding, err := m.Embed(ctx, text)
		if err != nil {
			return nil, errors.NewEmbeddingError("batch failed", err).WithDetail("offset", i)
		}
		embeddings = append(embeddings, embedding)
	}

	return embeddings, nil
}

// GetProviderName returns the provider identifier
func (m *MockEmbedder) GetProviderName() string {
	return string(types.BackendMock)
}

// HealthCheck always succeeds for the mock provider
func (m *MockEmbedder) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}
