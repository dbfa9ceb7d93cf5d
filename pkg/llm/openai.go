package llm

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/avast/retry-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/plandraft/docchunk/pkg/config"
	"github.com/plandraft/docchunk/pkg/errors"
	"github.com/plandraft/docchunk/pkg/types"
)

// OpenAILLM implements the LLM provider for OpenAI-compatible APIs
type OpenAILLM struct {
	*BaseLLM
	client *openai.Client
	config *config.LLMConfig
}

// NewOpenAILLM creates a new OpenAI LLM instance
func NewOpenAILLM(cfg *config.LLMConfig) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("llm config cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError("openai api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	base := NewBaseLLM(cfg.Model)
	base.SetMaxTokens(cfg.MaxTokens)
	base.SetTemperature(cfg.Temperature)
	base.SetTopP(cfg.TopP)
	base.SetTimeout(cfg.Timeout)

	return &OpenAILLM{
		BaseLLM: base,
		client:  openai.NewClientWithConfig(clientConfig),
		config:  cfg,
	}, nil
}

// Generate generates a response from the model
func (o *OpenAILLM) Generate(ctx context.Context, messages types.MessageList) (string, error) {
	if err := o.ValidateMessages(messages); err != nil {
		return "", errors.NewLLMError(fmt.Sprintf("invalid messages: %v", err))
	}

	openaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openaiMessages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       o.GetModelName(),
		Messages:    openaiMessages,
		MaxTokens:   o.GetMaxTokens(),
		Temperature: float32(o.GetTemperature()),
		TopP:        float32(o.GetTopP()),
		Stream:      false,
	}

	var resp openai.ChatCompletionResponse
	start := time.Now()

	err := retry.Do(
		func() error {
			var err error
			resp, err = o.client.CreateChatCompletion(ctx, req)
			return err
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
	)
	if err != nil {
		return "", errors.NewLLMAPIError("chat completion failed", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.NewLLMError("no response choices returned")
	}

	o.RecordMetrics("last_request_duration", time.Since(start).String())
	o.RecordMetrics("total_tokens", resp.Usage.TotalTokens)
	o.RecordMetrics("prompt_tokens", resp.Usage.PromptTokens)
	o.RecordMetrics("completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

// GenerateStream generates a streaming response from the model
func (o *OpenAILLM) GenerateStream(ctx context.Context, messages types.MessageList, out chan<- string) error {
	defer close(out)

	if err := o.ValidateMessages(messages); err != nil {
		return errors.NewLLMError(fmt.Sprintf("invalid messages: %v", err))
	}

	openaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openaiMessages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       o.GetModelName(),
		Messages:    openaiMessages,
		MaxTokens:   o.GetMaxTokens(),
		Temperature: float32(o.GetTemperature()),
		TopP:        float32(o.GetTopP()),
		Stream:      true,
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return errors.NewLLMAPIError("failed to create stream", err)
	}
	defer stream.Close()

	for {
		response, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.NewLLMAPIError("stream receive failed", err)
		}

		if len(response.Choices) == 0 {
			continue
		}

		select {
		case out <- response.Choices[0].Delta.Content:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// GetProviderName returns the provider identifier
func (o *OpenAILLM) GetProviderName() string {
	return string(types.BackendOpenAI)
}

// HealthCheck verifies the API is reachable
func (o *OpenAILLM) HealthCheck(ctx context.Context) error {
	_, err := o.client.ListModels(ctx)
	if err != nil {
		return errors.NewLLMAPIError("health check failed", err)
	}
	return nil
}
