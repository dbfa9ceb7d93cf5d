// Package embedders provides embedding backends for chunk enrichment
package embedders

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/plandraft/docchunk/pkg/errors"
	"github.com/plandraft/docchunk/pkg/interfaces"
	"github.com/plandraft/docchunk/pkg/types"
)

// EmbedderProvider is the interface all embedding backends implement
type EmbedderProvider interface {
	interfaces.Embedder

	// GetProviderName returns the provider identifier
	GetProviderName() string
	// HealthCheck verifies the backend is reachable
	HealthCheck(ctx context.Context) error
}

// BaseEmbedder provides common functionality for all embedder implementations
type BaseEmbedder struct {
	modelName string
	dimension int
	maxLength int
	timeout   time.Duration
	metrics   map[string]interface{}
	mu        sync.RWMutex
}

// NewBaseEmbedder creates a new base embedder instance
func NewBaseEmbedder(modelName string, dimension int) *BaseEmbedder {
	return &BaseEmbedder{
		modelName: modelName,
		dimension: dimension,
		maxLength: 8192,
		timeout:   30 * time.Second,
		metrics:   make(map[string]interface{}),
	}
}

// GetDimension returns the embedding dimension
func (b *BaseEmbedder) GetDimension() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dimension
}

// SetDimension sets the embedding dimension once it is known
func (b *BaseEmbedder) SetDimension(dimension int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dimension > 0 {
		b.dimension = dimension
	}
}

// GetModelName returns the model name
func (b *BaseEmbedder) GetModelName() string {
	return b.modelName
}

// SetMaxLength sets the maximum input length in characters
func (b *BaseEmbedder) SetMaxLength(maxLength int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if maxLength > 0 {
		b.maxLength = maxLength
	}
}

// GetMaxLength returns the maximum input length
func (b *BaseEmbedder) GetMaxLength() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.maxLength
}

// SetTimeout sets the request timeout
func (b *BaseEmbedder) SetTimeout(timeout time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if timeout > 0 {
		b.timeout = timeout
	}
}

// GetTimeout returns the request timeout
func (b *BaseEmbedder) GetTimeout() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.timeout
}

// PreprocessText normalizes whitespace and truncates overlong input
func (b *BaseEmbedder) PreprocessText(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Join(strings.Fields(text), " ")

	maxChars := b.GetMaxLength()
	if len(text) > maxChars {
		text = text[:maxChars]
		if lastSpace := strings.LastIndex(text, " "); lastSpace > maxChars*3/4 {
			text = text[:lastSpace]
		}
	}

	return text
}

// NormalizeVector normalizes an embedding vector to unit length
func (b *BaseEmbedder) NormalizeVector(vector types.EmbeddingVector) types.EmbeddingVector {
	var norm float32
	for _, val := range vector {
		norm += val * val
	}
	norm = float32(math.Sqrt(float64(norm)))

	if norm == 0 {
		return vector
	}

	normalized := make(types.EmbeddingVector, len(vector))
	for i, val := range vector {
		normalized[i] = val / norm
	}

	return normalized
}

// CosineSimilarity calculates cosine similarity between two vectors
func (b *BaseEmbedder) CosineSimilarity(a, vectorB types.EmbeddingVector) float32 {
	if len(a) != len(vectorB) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * vectorB[i]
		normA += a[i] * a[i]
		normB += vectorB[i] * vectorB[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// ValidateVector validates an embedding vector against the expected dimension
func (b *BaseEmbedder) ValidateVector(vector types.EmbeddingVector) error {
	if len(vector) == 0 {
		return errors.NewEmbeddingError("embedding vector is empty", nil)
	}

	if expected := b.GetDimension(); len(vector) != expected {
		return errors.NewDimensionMismatchError(expected, len(vector))
	}

	for i, val := range vector {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return errors.NewEmbeddingError(fmt.Sprintf("invalid value at index %d: %f", i, val), nil)
		}
	}

	return nil
}

// RecordMetrics records usage metrics
func (b *BaseEmbedder) RecordMetrics(metric string, value interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics[metric] = value
}

// GetMetrics returns a copy of the accumulated metrics
func (b *BaseEmbedder) GetMetrics() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	metrics := make(map[string]interface{}, len(b.metrics))
	for k, v := range b.metrics {
		metrics[k] = v
	}
	return metrics
}

// IncrementCounter increments a counter metric
func (b *BaseEmbedder) IncrementCounter(metric string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if count, ok := b.metrics[metric].(int); ok {
		b.metrics[metric] = count + 1
	} else {
		b.metrics[metric] = 1
	}
}

// AddToTimer adds a duration to a timer metric
func (b *BaseEmbedder) AddToTimer(metric string, duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if total, ok := b.metrics[metric].(time.Duration); ok {
		b.metrics[metric] = total + duration
	} else {
		b.metrics[metric] = duration
	}
}

// Close provides the default close implementation
func (b *BaseEmbedder) Close() error {
	return nil
}
