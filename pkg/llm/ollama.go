package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"

	"github.com/plandraft/docchunk/pkg/config"
	"github.com/plandraft/docchunk/pkg/errors"
	"github.com/plandraft/docchunk/pkg/types"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaLLM implements the LLM provider for a local Ollama server
type OllamaLLM struct {
	*BaseLLM
	client  *resty.Client
	baseURL string
	config  *config.LLMConfig
}

// ollamaChatRequest is the request body for the Ollama chat API
type ollamaChatRequest struct {
	Model     string                   `json:"model"`
	Messages  []map[string]interface{} `json:"messages"`
	Stream    bool                     `json:"stream"`
	Options   map[string]interface{}   `json:"options,omitempty"`
	KeepAlive string                   `json:"keep_alive,omitempty"`
}

// ollamaChatResponse is a single response object from the Ollama chat API
type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	TotalDuration   int64         `json:"total_duration,omitempty"`
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
	EvalCount       int           `json:"eval_count,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewOllamaLLM creates a new Ollama LLM instance
func NewOllamaLLM(cfg *config.LLMConfig) (*OllamaLLM, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("llm config cannot be nil")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	base := NewBaseLLM(cfg.Model)
	base.SetMaxTokens(cfg.MaxTokens)
	base.SetTemperature(cfg.Temperature)
	base.SetTopP(cfg.TopP)
	base.SetTimeout(cfg.Timeout)

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(base.GetTimeout()).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "docchunk/1.0")

	return &OllamaLLM{
		BaseLLM: base,
		client:  client,
		baseURL: baseURL,
		config:  cfg,
	}, nil
}

func (o *OllamaLLM) buildRequest(messages types.MessageList, stream bool) *ollamaChatRequest {
	return &ollamaChatRequest{
		Model:    o.GetModelName(),
		Messages: o.FormatMessages(messages),
		Stream:   stream,
		Options: map[string]interface{}{
			"num_predict": o.GetMaxTokens(),
			"temperature": o.GetTemperature(),
			"top_p":       o.GetTopP(),
		},
		KeepAlive: "5m",
	}
}

// Generate generates a response from the model
func (o *OllamaLLM) Generate(ctx context.Context, messages types.MessageList) (string, error) {
	if err := o.ValidateMessages(messages); err != nil {
		return "", errors.NewLLMError(fmt.Sprintf("invalid messages: %v", err))
	}

	req := o.buildRequest(messages, false)

	var chatResp ollamaChatResponse
	start := time.Now()

	err := retry.Do(
		func() error {
			response, err := o.client.R().
				SetContext(ctx).
				SetBody(req).
				SetResult(&chatResp).
				Post("/api/chat")
			if err != nil {
				return err
			}
			if response.StatusCode() != 200 {
				return fmt.Errorf("ollama returned status %d: %s", response.StatusCode(), response.String())
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
	)
	if err != nil {
		return "", errors.NewLLMAPIError("chat request failed", err)
	}

	o.RecordMetrics("last_request_duration", time.Since(start).String())
	o.RecordMetrics("prompt_eval_count", chatResp.PromptEvalCount)
	o.RecordMetrics("eval_count", chatResp.EvalCount)

	return chatResp.Message.Content, nil
}

// GenerateStream generates a streaming response from the model
func (o *OllamaLLM) GenerateStream(ctx context.Context, messages types.MessageList, out chan<- string) error {
	defer close(out)

	if err := o.ValidateMessages(messages); err != nil {
		return errors.NewLLMError(fmt.Sprintf("invalid messages: %v", err))
	}

	req := o.buildRequest(messages, true)

	response, err := o.client.R().
		SetContext(ctx).
		SetBody(req).
		SetDoNotParseResponse(true).
		Post("/api/chat")
	if err != nil {
		return errors.NewLLMAPIError("stream request failed", err)
	}
	defer response.RawBody().Close()

	if response.StatusCode() != 200 {
		return errors.NewLLMAPIError(fmt.Sprintf("ollama returned status %d", response.StatusCode()), nil)
	}

	scanner := bufio.NewScanner(response.RawBody())
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return errors.NewLLMAPIError("failed to decode stream chunk", err)
		}

		if chunk.Message.Content != "" {
			select {
			case out <- chunk.Message.Content:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if chunk.Done {
			o.RecordMetrics("prompt_eval_count", chunk.PromptEvalCount)
			o.RecordMetrics("eval_count", chunk.EvalCount)
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.NewLLMAPIError("stream read failed", err)
	}

	return nil
}

// GetProviderName returns the provider identifier
func (o *OllamaLLM) GetProviderName() string {
	return string(types.BackendOllama)
}

// HealthCheck verifies the Ollama server is reachable
func (o *OllamaLLM) HealthCheck(ctx context.Context) error {
	response, err := o.client.R().
		SetContext(ctx).
		Get("/api/tags")
	if err != nil {
		return errors.NewLLMAPIError("health check failed", err)
	}
	if response.StatusCode() != 200 {
		return errors.NewLLMAPIError(fmt.Sprintf("ollama returned status %d", response.StatusCode()), nil)
	}
	return nil
}
