package embedders

import (
	"fmt"
	"sort"
	"sync"

	"github.com/plandraft/docchunk/pkg/config"
	"github.com/plandraft/docchunk/pkg/errors"
	"github.com/plandraft/docchunk/pkg/types"
)

// ProviderConstructor builds an embedder provider from its configuration
type ProviderConstructor func(cfg *config.EmbedderConfig) (EmbedderProvider, error)

// EmbedderFactory creates embedder instances by backend name
type EmbedderFactory struct {
	mu        sync.RWMutex
	providers map[string]ProviderConstructor
}

// NewEmbedderFactory creates a factory with the built-in providers registered
func NewEmbedderFactory() *EmbedderFactory {
	factory := &EmbedderFactory{
		providers: make(map[string]ProviderConstructor),
	}

	factory.RegisterProvider(string(types.BackendOpenAI), func(cfg *config.EmbedderConfig) (EmbedderProvider, error) {
		return NewOpenAIEmbedder(cfg)
	})
	factory.RegisterProvider(string(types.BackendOllama), func(cfg *config.EmbedderConfig) (EmbedderProvider, error) {
		return NewOllamaEmbedder(cfg)
	})
	factory.RegisterProvider(string(types.BackendMock), func(cfg *config.EmbedderConfig) (EmbedderProvider, error) {
		return NewMockEmbedder(cfg)
	})

	return factory
}

// RegisterProvider registers a provider constructor under a backend name
func (f *EmbedderFactory) RegisterProvider(name string, constructor ProviderConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[name] = constructor
}

// GetProvider returns the constructor registered under a backend name
func (f *EmbedderFactory) GetProvider(name string) (ProviderConstructor, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	constructor, ok := f.providers[name]
	return constructor, ok
}

// ListProviders returns the registered backend names in sorted order
func (f *EmbedderFactory) ListProviders() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateEmbedder creates an embedder from the configuration
func (f *EmbedderFactory) CreateEmbedder(cfg *config.EmbedderConfig) (EmbedderProvider, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("embedder config cannot be nil")
	}
	if cfg.Model == "" {
		return nil, errors.NewConfigError("embedder model is required")
	}

	constructor, ok := f.GetProvider(string(cfg.Backend))
	if !ok {
		return nil, errors.NewConfigError(fmt.Sprintf("unsupported embedder backend: %s", cfg.Backend))
	}

	return constructor(cfg)
}

// NewEmbedder creates an embedder using the default factory
func NewEmbedder(cfg *config.EmbedderConfig) (EmbedderProvider, error) {
	return NewEmbedderFactory().CreateEmbedder(cfg)
}
