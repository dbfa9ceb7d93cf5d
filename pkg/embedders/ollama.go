package embedders

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/plandraft/docchunk/pkg/config"
	"github.com/plandraft/docchunk/pkg/errors"
	"github.com/plandraft/docchunk/pkg/types"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaEmbedder implements embeddings via a local Ollama server
type OllamaEmbedder struct {
	*BaseEmbedder
	client  *resty.Client
	baseURL string
	config  *config.EmbedderConfig
}

// ollamaEmbeddingRequest is the request body for the Ollama embeddings API
type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// ollamaEmbeddingResponse is the response from the Ollama embeddings API
type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaEmbedder creates a new Ollama embedder.
// When no dimension is configured it is detected from the first embedding.
func NewOllamaEmbedder(cfg *config.EmbedderConfig) (*OllamaEmbedder, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("embedder config cannot be nil")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	base := NewBaseEmbedder(cfg.Model, cfg.Dimension)
	base.SetTimeout(cfg.Timeout)

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(base.GetTimeout()).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "docchunk/1.0")

	return &OllamaEmbedder{
		BaseEmbedder: base,
		client:       client,
		baseURL:      baseURL,
		config:       cfg,
	}, nil
}

// Embed generates an embedding for a single text
func (ol *OllamaEmbedder) Embed(ctx context.Context, text string) (types.EmbeddingVector, error) {
	start := time.Now()
	defer func() {
		ol.AddToTimer("embed_duration", time.Since(start))
		ol.IncrementCounter("embed_calls")
	}()

	if text == "" {
		return nil, errors.NewEmbeddingError("empty text", nil)
	}

	raw, err := ol.createEmbeddingWithBackoff(ctx, ol.PreprocessText(text))
	if err != nil {
		ol.IncrementCounter("embed_errors")
		return nil, err
	}

	result := make(types.EmbeddingVector, len(raw))
	for i, val := range raw {
		result[i] = float32(val)
	}

	if ol.GetDimension() == 0 {
		ol.SetDimension(len(result))
	}
	if err := ol.ValidateVector(result); err != nil {
		return nil, err
	}

	return result, nil
}

// EmbedBatch generates embeddings for multiple texts.
// The embeddings endpoint takes one prompt at a time, so texts are
// processed sequentially.
func (ol *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]types.EmbeddingVector, error) {
	start := time.Now()
	defer func() {
		ol.AddToTimer("embed_batch_duration", time.Since(start))
		ol.IncrementCounter("embed_batch_calls")
	}()

	if len(texts) == 0 {
		return []types.EmbeddingVector{}, nil
	}

	allEmbeddings := make([]types.EmbeddingVector, 0, len(texts))
	for i, text := range texts {
		embedding, err := ol.Embed(ctx, text)
		if err != nil {
			return nil, errors.NewEmbeddingError("batch failed", err).WithDetail("offset", i)
		}
		allEmbeddings = append(allEmbeddings, embedding)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}

	return allEmbeddings, nil
}

// createEmbeddingWithBackoff calls the embeddings API with exponential backoff
func (ol *OllamaEmbedder) createEmbeddingWithBackoff(ctx context.Context, text string) ([]float64, error) {
	var result []float64

	operation := func() error {
		embedding, err := ol.createEmbedding(ctx, text)
		if err != nil {
			ol.IncrementCounter("api_retries")
			return err
		}
		result = embedding
		return nil
	}

	retryConfig := backoff.NewExponentialBackOff()
	retryConfig.InitialInterval = time.Second
	retryConfig.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(retryConfig, ctx)); err != nil {
		return nil, errors.NewEmbeddingError("ollama embeddings request failed", err)
	}

	return result, nil
}

// createEmbedding makes a single embeddings API call
func (ol *OllamaEmbedder) createEmbedding(ctx context.Context, text string) ([]float64, error) {
	req := ollamaEmbeddingRequest{
		Model:  ol.GetModelName(),
		Prompt: text,
	}

	var embResp ollamaEmbeddingResponse
	response, err := ol.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&embResp).
		Post("/api/embeddings")
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s", response.StatusCode(), response.String())
	}
	if len(embResp.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	ol.IncrementCounter("api_calls")
	return embResp.Embedding, nil
}

// GetProviderName returns the provider identifier
func (ol *OllamaEmbedder) GetProviderName() string {
	return string(types.BackendOllama)
}

// HealthCheck verifies the Ollama server is reachable
func (ol *OllamaEmbedder) HealthCheck(ctx context.Context) error {
	response, err := ol.client.R().
		SetContext(ctx).
		Get("/api/tags")
	if err != nil {
		return errors.NewEmbeddingError("health check failed", err)
	}
	if response.StatusCode() != http.StatusOK {
		return errors.NewEmbeddingError(fmt.Sprintf("ollama returned status %d", response.StatusCode()), nil)
	}
	return nil
}
