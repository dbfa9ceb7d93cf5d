package chunkers

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

// Supported tokenizer providers
const (
	TokenizerProviderTiktoken  = "tiktoken"
	TokenizerProviderHeuristic = "heuristic"
)

// DefaultEncoding is the tiktoken encoding used when none is configured
const DefaultEncoding = "cl100k_base"

// TokenizerProvider defines the interface for token counting implementations.
// Counting is pure in-memory work; providers are read-only after construction
// and safe for concurrent use.
type TokenizerProvider interface {
	// CountTokens returns the number of tokens in the text
	CountTokens(text string) (int, error)

	// CountTokensBatch returns token counts for multiple texts
	CountTokensBatch(texts []string) ([]int, error)

	// GetModelInfo returns information about the tokenizer model
	GetModelInfo() TokenizerModelInfo

	// Close releases any resources held by the tokenizer
	Close() error
}

// TokenizerModelInfo contains information about a tokenizer model
type TokenizerModelInfo struct {
	// Name of the model or encoding
	Name string `json:"name"`

	// Provider of the tokenizer
	Provider string `json:"provider"`

	// Encoding is the BPE encoding backing the counts
	Encoding string `json:"encoding"`
}

// TokenizerConfig contains configuration for tokenizers
type TokenizerConfig struct {
	// Provider specifies which tokenizer provider to use
	Provider string `json:"provider"`

	// EncodingName selects a tiktoken encoding directly
	EncodingName string `json:"encoding_name"`

	// ModelName resolves the encoding from a model name when set,
	// taking precedence over EncodingName
	ModelName string `json:"model_name,omitempty"`
}

// DefaultTokenizerConfig returns the default tokenizer configuration
func DefaultTokenizerConfig() *TokenizerConfig {
	return &TokenizerConfig{
		Provider:     TokenizerProviderTiktoken,
		EncodingName: DefaultEncoding,
	}
}

// TokenizerFactory creates tokenizer providers
type TokenizerFactory struct{}

// NewTokenizerFactory creates a new tokenizer factory
func NewTokenizerFactory() *TokenizerFactory {
	return &TokenizerFactory{}
}

// CreateTokenizer creates a tokenizer based on configuration
func (tf *TokenizerFactory) CreateTokenizer(config *TokenizerConfig) (TokenizerProvider, error) {
	if config == nil {
		config = DefaultTokenizerConfig()
	}

	switch config.Provider {
	case TokenizerProviderTiktoken:
		return NewTiktokenProvider(config)
	case TokenizerProviderHeuristic:
		return NewHeuristicProvider(config)
	default:
		return nil, fmt.Errorf("unsupported tokenizer provider: %s", config.Provider)
	}
}

// GetSupportedProviders returns a list of supported tokenizer providers
func (tf *TokenizerFactory) GetSupportedProviders() []string {
	return []string{TokenizerProviderTiktoken, TokenizerProviderHeuristic}
}

// ValidateConfig validates a tokenizer configuration
func (tf *TokenizerFactory) ValidateConfig(config *TokenizerConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if config.Provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}

	if config.Provider == TokenizerProviderTiktoken && config.EncodingName == "" && config.ModelName == "" {
		return fmt.Errorf("tiktoken provider requires an encoding name or a model name")
	}

	return nil
}

// TiktokenProvider counts tokens with the tiktoken BPE encodings
type TiktokenProvider struct {
	config    *TokenizerConfig
	modelInfo TokenizerModelInfo
	encoding  *tiktoken.Tiktoken
}

// NewTiktokenProvider creates a new tiktoken provider
func NewTiktokenProvider(config *TokenizerConfig) (*TiktokenProvider, error) {
	if config == nil {
		config = DefaultTokenizerConfig()
	}

	var (
		enc          *tiktoken.Tiktoken
		encodingName string
		err          error
	)

	if config.ModelName != "" {
		enc, err = tiktoken.EncodingForModel(config.ModelName)
		encodingName = encodingNameForModel(config.ModelName)
	} else {
		encodingName = config.EncodingName
		if encodingName == "" {
			encodingName = DefaultEncoding
		}
		enc, err = tiktoken.GetEncoding(encodingName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding: %w", err)
	}

	name := config.ModelName
	if name == "" {
		name = encodingName
	}

	return &TiktokenProvider{
		config: config,
		modelInfo: TokenizerModelInfo{
			Name:     name,
			Provider: TokenizerProviderTiktoken,
			Encoding: encodingName,
		},
		encoding: enc,
	}, nil
}

// CountTokens returns the number of tokens in the text
func (p *TiktokenProvider) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return len(p.encoding.Encode(text, nil, nil)), nil
}

// CountTokensBatch returns token counts for multiple texts
func (p *TiktokenProvider) CountTokensBatch(texts []string) ([]int, error) {
	counts := make([]int, len(texts))
	for i, text := range texts {
		count, err := p.CountTokens(text)
		if err != nil {
			return nil, fmt.Errorf("failed to count tokens for text %d: %w", i, err)
		}
		counts[i] = count
	}
	return counts, nil
}

// GetModelInfo returns information about the tokenizer model
func (p *TiktokenProvider) GetModelInfo() TokenizerModelInfo {
	return p.modelInfo
}

// Close releases any resources held by the tokenizer
func (p *TiktokenProvider) Close() error {
	return nil
}

// encodingNameForModel maps known model names to their BPE encodings
func encodingNameForModel(modelName string) string {
	switch {
	case strings.HasPrefix(modelName, "gpt-4o"), strings.HasPrefix(modelName, "o1"):
		return "o200k_base"
	case strings.HasPrefix(modelName, "gpt-4"), strings.HasPrefix(modelName, "gpt-3.5"),
		strings.HasPrefix(modelName, "text-embedding"):
		return "cl100k_base"
	default:
		return DefaultEncoding
	}
}

// HeuristicProvider estimates token counts from words and punctuation without
// loading a BPE vocabulary. Useful for tests and offline runs; counts track
// tiktoken within roughly 20% on English prose.
type HeuristicProvider struct {
	config    *TokenizerConfig
	modelInfo TokenizerModelInfo
}

// NewHeuristicProvider creates a new heuristic tokenizer provider
func NewHeuristicProvider(config *TokenizerConfig) (*HeuristicProvider, error) {
	if config == nil {
		config = DefaultTokenizerConfig()
	}

	return &HeuristicProvider{
		config: config,
		modelInfo: TokenizerModelInfo{
			Name:     TokenizerProviderHeuristic,
			Provider: TokenizerProviderHeuristic,
			Encoding: "none",
		},
	}, nil
}

// CountTokens estimates the number of tokens in the text
func (p *HeuristicProvider) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	tokenCount := len(strings.Fields(text))

	punctuationCount := 0
	for _, r := range text {
		if unicode.IsPunct(r) {
			punctuationCount++
		}
	}
	tokenCount += punctuationCount / 2

	// Long words tokenize into multiple subwords
	for _, word := range strings.Fields(text) {
		if len(word) > 6 {
			tokenCount += (len(word) - 6) / 3
		}
	}

	return tokenCount, nil
}

// CountTokensBatch returns token count estimates for multiple texts
func (p *HeuristicProvider) CountTokensBatch(texts []string) ([]int, error) {
	counts := make([]int, len(texts))
	for i, text := range texts {
		count, err := p.CountTokens(text)
		if err != nil {
			return nil, fmt.Errorf("failed to count tokens for text %d: %w", i, err)
		}
		counts[i] = count
	}
	return counts, nil
}

// GetModelInfo returns information about the tokenizer model
func (p *HeuristicProvider) GetModelInfo() TokenizerModelInfo {
	return p.modelInfo
}

// Close releases any resources held by the tokenizer
func (p *HeuristicProvider) Close() error {
	return nil
}
