package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/plandraft/docchunk/pkg/config"
	"github.com/plandraft/docchunk/pkg/errors"
	"github.com/plandraft/docchunk/pkg/types"
)

// mockResponseWords caps how many words of the input the mock echoes back
const mockResponseWords = 24

// MockLLM is a deterministic LLM provider for tests and offline runs.
// It echoes back the leading words of the last user message, or a fixed
// response when one is set.
type MockLLM struct {
	*BaseLLM
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

// NewMockLLM creates a new mock LLM instance
func NewMockLLM(cfg *config.LLMConfig) (*MockLLM, error) {
	modelName := "mock-model"
	if cfg != nil && cfg.Model != "" {
		modelName = cfg.Model
	}

	base := NewBaseLLM(modelName)
	if cfg != nil {
		base.SetMaxTokens(cfg.MaxTokens)
		base.SetTemperature(cfg.Temperature)
		base.SetTopP(cfg.TopP)
		base.SetTimeout(cfg.Timeout)
	}

	return &MockLLM{BaseLLM: base}, nil
}

// SetResponse forces a fixed response for subsequent calls
func (m *MockLLM) SetResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
}

// SetError forces an error for subsequent calls
func (m *MockLLM) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CallCount returns how many generate calls have been made
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockLLM) respond(messages types.MessageList) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if m.response != "" {
		return m.response, nil
	}

	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != types.MessageRoleUser {
			continue
		}
		words := strings.Fields(messages[i].Content)
		if len(words) > mockResponseWords {
			words = words[:mockResponseWords]
		}
		return strings.Join(words, " "), nil
	}

	return "", errors.NewLLMError("no user message to respond to")
}

// Generate generates a deterministic response
func (m *MockLLM) Generate(ctx context.Context, messages types.MessageList) (string, error) {
	if err := m.ValidateMessages(messages); err != nil {
		return "", errors.NewLLMError(err.Error())
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.respond(messages)
}

// GenerateStream streams the deterministic response word by word
func (m *MockLLM) GenerateStream(ctx context.Context, messages types.MessageList, out chan<- string) error {
	defer close(out)

	if err := m.ValidateMessages(messages); err != nil {
		return errors.NewLLMError(err.Error())
	}

	response, err := m.respond(messages)
	if err != nil {
		return err
	}

	words := strings.Fields(response)
	for i, word := range words {
		token := word
		if i < len(words)-1 {
			token += " "
		}
		select {
		case out <- token:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// GetProviderName returns the provider identifier
func (m *MockLLM) GetProviderName() string {
	return string(types.BackendMock)
}

// HealthCheck always succeeds for the mock provider
func (m *MockLLM) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}
