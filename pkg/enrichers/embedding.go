package enrichers

import (
	"context"
	"fmt"

	"github.com/plandraft/docchunk/pkg/chunkers"
	"github.com/plandraft/docchunk/pkg/errors"
	"github.com/plandraft/docchunk/pkg/interfaces"
	"github.com/plandraft/docchunk/pkg/logger"
)

const defaultEmbeddingBatchSize = 100

// EmbeddingEnricher writes embedding vectors onto chunks
type EmbeddingEnricher struct {
	embedder  interfaces.Embedder
	batchSize int
	logger    interfaces.Logger
}

// NewEmbeddingEnricher creates an embedding enricher
func NewEmbeddingEnricher(embedder interfaces.Embedder, batchSize int, log interfaces.Logger) (*EmbeddingEnricher, error) {
	if embedder == nil {
		return nil, errors.NewConfigError("embedder cannot be nil")
	}
	if batchSize <= 0 {
		batchSize = defaultEmbeddingBatchSize
	}
	if log == nil {
		log = logger.NewLogger()
	}

	return &EmbeddingEnricher{
		embedder:  embedder,
		batchSize: batchSize,
		logger:    log,
	}, nil
}

// EnrichEmbeddings walks the result in emission order and writes an
// embedding onto every chunk that does not have one yet. Chunks are
// embedded in batches; a failed batch is recorded and the walk continues
// with the next batch.
func (e *EmbeddingEnricher) EnrichEmbeddings(ctx context.Context, result *chunkers.ChunkResult) (int, int, error) {
	if result == nil || len(result.Order) == 0 {
		return 0, 0, nil
	}

	var pending []string
	skipped := 0
	for _, id := range result.Order {
		chunk, ok := result.Chunks[id]
		if !ok {
			continue
		}
		if len(chunk.Embeddings) > 0 || chunk.Content == "" {
			skipped++
			continue
		}
		pending = append(pending, id)
	}

	enriched := 0
	errs := errors.NewErrorList()

	for start := 0; start < len(pending); start += e.batchSize {
		end := start + e.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		if err := ctx.Err(); err != nil {
			errs.Add(errors.NewTimeoutError("embedding enrichment"))
			break
		}

		texts := make([]string, len(batch))
		for i, id := range batch {
			texts[i] = result.Chunks[id].Content
		}

		vectors, err := e.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			e.logger.Error("embedding batch failed", err, map[string]interface{}{
				"offset": start,
				"size":   len(batch),
			})
			errs.Add(errors.NewEmbeddingError(fmt.Sprintf("batch at offset %d failed", start), err))
			continue
		}
		if len(vectors) != len(batch) {
			errs.Add(errors.NewEmbeddingError(fmt.Sprintf(
				"batch at offset %d returned %d vectors for %d chunks", start, len(vectors), len(batch)), nil))
			continue
		}

		expected := e.embedder.GetDimension()
		for i, id := range batch {
			if expected > 0 && len(vectors[i]) != expected {
				errs.Add(errors.NewDimensionMismatchError(expected, len(vectors[i])))
				continue
			}
			result.Chunks[id].Embeddings = vectors[i]
			enriched++
		}
	}

	e.logger.Info("embedding enrichment finished", map[string]interface{}{
		"enriched": enriched,
		"skipped":  skipped,
		"failed":   len(errs.Errors),
	})

	return enriched, skipped, errs.ToError()
}
