package embedders

import (
	"context"
	"sync"
	"time"

	"github.com/avast/retry-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/plandraft/docchunk/pkg/config"
	"github.com/plandraft/docchunk/pkg/errors"
	"github.com/plandraft/docchunk/pkg/types"
)

// defaultRequestsPerMinute paces embedding API calls before retries apply
const defaultRequestsPerMinute = 100

// OpenAIEmbedder implements embeddings via the OpenAI API
type OpenAIEmbedder struct {
	*BaseEmbedder
	client    *openai.Client
	config    *config.EmbedderConfig
	batchSize int
	limiter   *RateLimiter
}

// RateLimiter implements simple token bucket rate limiting for API calls
type RateLimiter struct {
	tokens     int
	maxTokens  int
	lastRefill time.Time
	refillRate time.Duration
	mu         sync.Mutex
}

// NewRateLimiter creates a bucket of maxTokens refilled one token per refillRate
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		lastRefill: time.Now(),
		refillRate: refillRate,
	}
}

// Wait blocks until tokensNeeded tokens are available or the context is done
func (rl *RateLimiter) Wait(ctx context.Context, tokensNeeded int) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	refilled := int(now.Sub(rl.lastRefill) / rl.refillRate)
	if refilled > 0 {
		rl.tokens += refilled
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = now
	}

	if rl.tokens >= tokensNeeded {
		rl.tokens -= tokensNeeded
		return nil
	}

	waitTime := time.Duration(tokensNeeded-rl.tokens) * rl.refillRate
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(waitTime):
		rl.tokens = 0
		rl.lastRefill = time.Now()
		return nil
	}
}

// openaiDimensionFor returns the native dimension of a known OpenAI model
func openaiDimensionFor(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	default:
		return 1536
	}
}

// NewOpenAIEmbedder creates a new OpenAI embedder
func NewOpenAIEmbedder(cfg *config.EmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("embedder config cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError("openai api key is required")
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = openaiDimensionFor(cfg.Model)
	}

	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	base := NewBaseEmbedder(cfg.Model, dimension)
	base.SetTimeout(cfg.Timeout)

	embedder := &OpenAIEmbedder{
		BaseEmbedder: base,
		client:       openai.NewClientWithConfig(clientConfig),
		config:       cfg,
		batchSize:    batchSize,
		limiter:      NewRateLimiter(defaultRequestsPerMinute, time.Minute/defaultRequestsPerMinute),
	}

	return embedder, nil
}

// SetRateLimit replaces the limiter to allow maxRequests per duration
func (oai *OpenAIEmbedder) SetRateLimit(maxRequests int, duration time.Duration) {
	if maxRequests <= 0 {
		return
	}
	oai.limiter = NewRateLimiter(maxRequests, duration/time.Duration(maxRequests))
}

// Embed generates an embedding for a single text
func (oai *OpenAIEmbedder) Embed(ctx context.Context, text string) (types.EmbeddingVector, error) {
	start := time.Now()
	defer func() {
		oai.AddToTimer("embed_duration", time.Since(start))
		oai.IncrementCounter("embed_calls")
	}()

	if text == "" {
		return nil, errors.NewEmbeddingError("empty text", nil)
	}

	embeddings, err := oai.createEmbeddingsWithRetry(ctx, []string{oai.PreprocessText(text)})
	if err != nil {
		oai.IncrementCounter("embed_errors")
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, errors.NewEmbeddingError("no embeddings returned", nil)
	}

	result := embeddings[0]
	if err := oai.ValidateVector(result); err != nil {
		return nil, err
	}

	return result, nil
}

// EmbedBatch generates embeddings for multiple texts
func (oai *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]types.EmbeddingVector, error) {
	start := time.Now()
	defer func() {
		oai.AddToTimer("embed_batch_duration", time.Since(start))
		oai.IncrementCounter("embed_batch_calls")
	}()

	if len(texts) == 0 {
		return []types.EmbeddingVector{}, nil
	}

	processed := make([]string, len(texts))
	for i, text := range texts {
		processed[i] = oai.PreprocessText(text)
	}

	allEmbeddings := make([]types.EmbeddingVector, 0, len(processed))
	for i := 0; i < len(processed); i += oai.batchSize {
		end := i + oai.batchSize
		if end > len(processed) {
			end = len(processed)
		}

		batch, err := oai.createEmbeddingsWithRetry(ctx, processed[i:end])
		if err != nil {
			oai.IncrementCounter("embed_batch_errors")
			return nil, errors.NewEmbeddingError("batch failed", err).WithDetail("offset", i)
		}
		allEmbeddings = append(allEmbeddings, batch...)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}

	return allEmbeddings, nil
}

// createEmbeddingsWithRetry calls the embeddings API with retry logic
func (oai *OpenAIEmbedder) createEmbeddingsWithRetry(ctx context.Context, texts []string) ([]types.EmbeddingVector, error) {
	if err := oai.limiter.Wait(ctx, 1); err != nil {
		return nil, err
	}

	var result []types.EmbeddingVector

	err := retry.Do(
		func() error {
			resp, err := oai.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Input: texts,
				Model: openai.EmbeddingModel(oai.GetModelName()),
			})
			if err != nil {
				return err
			}
			if len(resp.Data) != len(texts) {
				return errors.NewEmbeddingError("unexpected embedding count", nil).
					WithDetail("expected", len(texts)).WithDetail("actual", len(resp.Data))
			}

			result = make([]types.EmbeddingVector, len(texts))
			for _, data := range resp.Data {
				result[data.Index] = types.EmbeddingVector(data.Embedding)
			}

			oai.RecordMetrics("total_tokens", resp.Usage.TotalTokens)
			oai.RecordMetrics("prompt_tokens", resp.Usage.PromptTokens)
			oai.IncrementCounter("api_calls")
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			oai.IncrementCounter("api_retries")
		}),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, errors.NewEmbeddingError("openai embeddings request failed", err)
	}

	return result, nil
}

// GetProviderName returns the provider identifier
func (oai *OpenAIEmbedder) GetProviderName() string {
	return string(types.BackendOpenAI)
}

// GetSupportedModels returns the known embedding models
func (oai *OpenAIEmbedder) GetSupportedModels() []string {
	return []string{
		"text-embedding-3-large",
		"text-embedding-3-small",
		"text-embedding-ada-002",
	}
}

// HealthCheck performs a round trip through the embeddings API
func (oai *OpenAIEmbedder) HealthCheck(ctx context.Context) error {
	if _, err := oai.Embed(ctx, "health check"); err != nil {
		return errors.NewEmbeddingError("health check failed", err)
	}
	return nil
}
