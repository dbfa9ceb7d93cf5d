// Package llm provides LLM client implementations for summary enrichment
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/plandraft/docchunk/pkg/interfaces"
	"github.com/plandraft/docchunk/pkg/types"
)

// LLMProvider is the interface all LLM backends implement
type LLMProvider interface {
	interfaces.LLM

	// GetProviderName returns the provider identifier
	GetProviderName() string
	// HealthCheck verifies the backend is reachable
	HealthCheck(ctx context.Context) error
}

// BaseLLM provides common functionality for all LLM implementations
type BaseLLM struct {
	modelName   string
	maxTokens   int
	temperature float64
	topP        float64
	timeout     time.Duration
	metrics     map[string]interface{}
}

// NewBaseLLM creates a new base LLM instance
func NewBaseLLM(modelName string) *BaseLLM {
	return &BaseLLM{
		modelName:   modelName,
		maxTokens:   1024,
		temperature: 0.7,
		topP:        0.9,
		timeout:     30 * time.Second,
		metrics:     make(map[string]interface{}),
	}
}

// SetMaxTokens sets the maximum number of tokens
func (b *BaseLLM) SetMaxTokens(maxTokens int) {
	if maxTokens > 0 {
		b.maxTokens = maxTokens
	}
}

// SetTemperature sets the temperature for generation
func (b *BaseLLM) SetTemperature(temperature float64) {
	b.temperature = temperature
}

// SetTopP sets the top-p value for nucleus sampling
func (b *BaseLLM) SetTopP(topP float64) {
	if topP > 0 {
		b.topP = topP
	}
}

// SetTimeout sets the request timeout
func (b *BaseLLM) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		b.timeout = timeout
	}
}

// GetMaxTokens returns the maximum number of tokens
func (b *BaseLLM) GetMaxTokens() int {
	return b.maxTokens
}

// GetTemperature returns the temperature
func (b *BaseLLM) GetTemperature() float64 {
	return b.temperature
}

// GetTopP returns the top-p value
func (b *BaseLLM) GetTopP() float64 {
	return b.topP
}

// GetTimeout returns the request timeout
func (b *BaseLLM) GetTimeout() time.Duration {
	return b.timeout
}

// GetModelName returns the model name
func (b *BaseLLM) GetModelName() string {
	return b.modelName
}

// GetModelInfo returns model information
func (b *BaseLLM) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"model":       b.modelName,
		"max_tokens":  b.maxTokens,
		"temperature": b.temperature,
		"top_p":       b.topP,
		"timeout":     b.timeout.String(),
		"metrics":     b.metrics,
	}
}

// ValidateMessages validates the message list
func (b *BaseLLM) ValidateMessages(messages types.MessageList) error {
	if len(messages) == 0 {
		return fmt.Errorf("empty message list")
	}

	for i, msg := range messages {
		if msg.Role == "" {
			return fmt.Errorf("message %d: role is required", i)
		}
		if msg.Content == "" {
			return fmt.Errorf("message %d: content is required", i)
		}
		if msg.Role != types.MessageRoleUser &&
			msg.Role != types.MessageRoleAssistant &&
			msg.Role != types.MessageRoleSystem {
			return fmt.Errorf("message %d: invalid role %s", i, msg.Role)
		}
	}

	return nil
}

// FormatMessages formats messages for API consumption
func (b *BaseLLM) FormatMessages(messages types.MessageList) []map[string]interface{} {
	formatted := make([]map[string]interface{}, len(messages))
	for i, msg := range messages {
		formatted[i] = map[string]interface{}{
			"role":    string(msg.Role),
			"content": msg.Content,
		}
	}
	return formatted
}

// BuildPrompt flattens a message list into a single prompt string
func (b *BaseLLM) BuildPrompt(messages types.MessageList) string {
	var builder strings.Builder

	for _, msg := range messages {
		switch msg.Role {
		case types.MessageRoleSystem:
			builder.WriteString(fmt.Sprintf("System: %s\n", msg.Content))
		case types.MessageRoleUser:
			builder.WriteString(fmt.Sprintf("User: %s\n", msg.Content))
		case types.MessageRoleAssistant:
			builder.WriteString(fmt.Sprintf("Assistant: %s\n", msg.Content))
		}
	}

	return builder.String()
}

// RecordMetrics records usage metrics
func (b *BaseLLM) RecordMetrics(metric string, value interface{}) {
	b.metrics[metric] = value
}

// GetMetrics returns accumulated metrics
func (b *BaseLLM) GetMetrics() map[string]interface{} {
	return b.metrics
}

// Close provides the default close implementation
func (b *BaseLLM) Close() error {
	return nil
}
