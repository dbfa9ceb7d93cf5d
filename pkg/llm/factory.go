package llm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/plandraft/docchunk/pkg/config"
	"github.com/plandraft/docchunk/pkg/errors"
	"github.com/plandraft/docchunk/pkg/types"
)

// ProviderConstructor builds an LLM provider from its configuration
type ProviderConstructor func(cfg *config.LLMConfig) (LLMProvider, error)

// LLMFactory creates LLM provider instances by backend name
type LLMFactory struct {
	mu        sync.RWMutex
	providers map[string]ProviderConstructor
}

// NewLLMFactory creates a factory with the built-in providers registered
func NewLLMFactory() *LLMFactory {
	factory := &LLMFactory{
		providers: make(map[string]ProviderConstructor),
	}

	factory.RegisterProvider(string(types.BackendOpenAI), func(cfg *config.LLMConfig) (LLMProvider, error) {
		return NewOpenAILLM(cfg)
	})
	factory.RegisterProvider(string(types.BackendOllama), func(cfg *config.LLMConfig) (LLMProvider, error) {
		return NewOllamaLLM(cfg)
	})
	factory.RegisterProvider(string(types.BackendMock), func(cfg *config.LLMConfig) (LLMProvider, error) {
		return NewMockLLM(cfg)
	})

	return factory
}

// RegisterProvider registers a provider constructor under a backend name
func (f *LLMFactory) RegisterProvider(name string, constructor ProviderConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[name] = constructor
}

// GetProvider returns the constructor registered under a backend name
func (f *LLMFactory) GetProvider(name string) (ProviderConstructor, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	constructor, ok := f.providers[name]
	return constructor, ok
}

// ListProviders returns the registered backend names in sorted order
func (f *LLMFactory) ListProviders() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateLLM creates an LLM provider from the configuration
func (f *LLMFactory) CreateLLM(cfg *config.LLMConfig) (LLMProvider, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("llm config cannot be nil")
	}
	if cfg.Model == "" {
		return nil, errors.NewConfigError("llm model is required")
	}

	constructor, ok := f.GetProvider(string(cfg.Backend))
	if !ok {
		return nil, errors.NewConfigError(fmt.Sprintf("unsupported llm backend: %s", cfg.Backend))
	}

	return constructor(cfg)
}

// NewLLM creates an LLM provider using the default factory
func NewLLM(cfg *config.LLMConfig) (LLMProvider, error) {
	return NewLLMFactory().CreateLLM(cfg)
}
