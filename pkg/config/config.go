// Package config provides configuration management for docchunk
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/plandraft/docchunk/pkg/chunkers"
	"github.com/plandraft/docchunk/pkg/errors"
	"github.com/plandraft/docchunk/pkg/types"
)

// EnvPrefix is the prefix for environment variable overrides, so the key
// chunking.max_chunk_size maps to DOCCHUNK_CHUNKING_MAX_CHUNK_SIZE
const EnvPrefix = "DOCCHUNK"

var validate = validator.New()

// ChunkingConfig holds the size thresholds for hierarchical chunking
type ChunkingConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size" json:"max_chunk_size" mapstructure:"max_chunk_size" validate:"gt=0"`
	MinChunkSize int `yaml:"min_chunk_size" json:"min_chunk_size" mapstructure:"min_chunk_size" validate:"gte=0,ltfield=MaxChunkSize"`
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap" mapstructure:"chunk_overlap" validate:"gte=0,ltfield=MaxChunkSize"`
}

// TokenizerConfig selects the token counting backend
type TokenizerConfig struct {
	Provider     string `yaml:"provider" json:"provider" mapstructure:"provider" validate:"required,oneof=tiktoken heuristic"`
	EncodingName string `yaml:"encoding_name,omitempty" json:"encoding_name,omitempty" mapstructure:"encoding_name"`
	ModelName    string `yaml:"model_name,omitempty" json:"model_name,omitempty" mapstructure:"model_name"`
}

// LLMConfig represents LLM configuration
type LLMConfig struct {
	Backend     types.BackendType `yaml:"backend" json:"backend" mapstructure:"backend" validate:"required,oneof=openai ollama mock"`
	Model       string            `yaml:"model" json:"model" mapstructure:"model" validate:"required"`
	APIKey      string            `yaml:"api_key,omitempty" json:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string            `yaml:"base_url,omitempty" json:"base_url,omitempty" mapstructure:"base_url"`
	MaxTokens   int               `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty" mapstructure:"max_tokens"`
	Temperature float64           `yaml:"temperature,omitempty" json:"temperature,omitempty" mapstructure:"temperature"`
	TopP        float64           `yaml:"top_p,omitempty" json:"top_p,omitempty" mapstructure:"top_p"`
	Timeout     time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty" mapstructure:"timeout"`
}

// NewLLMConfig creates an LLM configuration with default generation settings
func NewLLMConfig() *LLMConfig {
	return &LLMConfig{
		Backend:     types.BackendOpenAI,
		Model:       "gpt-4o-mini",
		MaxTokens:   1024,
		Temperature: 0.7,
		TopP:        0.9,
		Timeout:     30 * time.Second,
	}
}

// EmbedderConfig represents embedder configuration
type EmbedderConfig struct {
	Backend   types.BackendType `yaml:"backend" json:"backend" mapstructure:"backend" validate:"required,oneof=openai ollama mock"`
	Model     string            `yaml:"model" json:"model" mapstructure:"model" validate:"required"`
	APIKey    string            `yaml:"api_key,omitempty" json:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string            `yaml:"base_url,omitempty" json:"base_url,omitempty" mapstructure:"base_url"`
	Dimension int               `yaml:"dimension,omitempty" json:"dimension,omitempty" mapstructure:"dimension"`
	BatchSize int               `yaml:"batch_size,omitempty" json:"batch_size,omitempty" mapstructure:"batch_size" validate:"gte=0"`
	Timeout   time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty" mapstructure:"timeout"`
}

// NewEmbedderConfig creates an embedder configuration with defaults
func NewEmbedderConfig() *EmbedderConfig {
	return &EmbedderConfig{
		Backend:   types.BackendOpenAI,
		Model:     "text-embedding-3-small",
		Dimension: 1536,
		BatchSize: 100,
		Timeout:   30 * time.Second,
	}
}

// EnrichmentConfig controls post-chunking enrichment passes
type EnrichmentConfig struct {
	// SummaryEnabled turns on summary generation for chunks
	SummaryEnabled bool `yaml:"summary_enabled" json:"summary_enabled" mapstructure:"summary_enabled"`

	// SummaryMode selects how summaries are produced: extract takes the
	// chunk's leading sentences, llm asks the configured model
	SummaryMode string `yaml:"summary_mode,omitempty" json:"summary_mode,omitempty" mapstructure:"summary_mode" validate:"omitempty,oneof=extract llm"`

	// SummaryMaxWords caps extractive summaries
	SummaryMaxWords int `yaml:"summary_max_words,omitempty" json:"summary_max_words,omitempty" mapstructure:"summary_max_words" validate:"gte=0"`

	// EmbeddingEnabled turns on embedding generation for chunks
	EmbeddingEnabled bool `yaml:"embedding_enabled" json:"embedding_enabled" mapstructure:"embedding_enabled"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level string `yaml:"level,omitempty" json:"level,omitempty" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Config is the root configuration for the chunking pipeline
type Config struct {
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking" mapstructure:"chunking"`
	Tokenizer  TokenizerConfig  `yaml:"tokenizer" json:"tokenizer" mapstructure:"tokenizer"`
	LLM        *LLMConfig       `yaml:"llm,omitempty" json:"llm,omitempty" mapstructure:"llm"`
	Embedder   *EmbedderConfig  `yaml:"embedder,omitempty" json:"embedder,omitempty" mapstructure:"embedder"`
	Enrichment EnrichmentConfig `yaml:"enrichment" json:"enrichment" mapstructure:"enrichment"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging" mapstructure:"logging"`
}

// Default returns the default configuration. LLM and embedder sections stay
// nil until enrichment needs them.
func Default() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			MaxChunkSize: 1000,
			MinChunkSize: 100,
			ChunkOverlap: 0,
		},
		Tokenizer: TokenizerConfig{
			Provider:     chunkers.TokenizerProviderTiktoken,
			EncodingName: chunkers.DefaultEncoding,
		},
		Enrichment: EnrichmentConfig{
			SummaryMode:     "extract",
			SummaryMaxWords: 50,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.NewConfigInvalidError(err.Error())
	}
	if c.Enrichment.SummaryEnabled && c.Enrichment.SummaryMode == "llm" && c.LLM == nil {
		return errors.NewConfigInvalidError("llm summary mode requires an llm section")
	}
	if c.Enrichment.EmbeddingEnabled && c.Embedder == nil {
		return errors.NewConfigInvalidError("embedding enrichment requires an embedder section")
	}
	return nil
}

// ToChunkerConfig converts the chunking section into chunker thresholds
func (c *Config) ToChunkerConfig() *chunkers.ChunkerConfig {
	return &chunkers.ChunkerConfig{
		MaxChunkSize: c.Chunking.MaxChunkSize,
		MinChunkSize: c.Chunking.MinChunkSize,
		ChunkOverlap: c.Chunking.ChunkOverlap,
	}
}

// ToTokenizerConfig converts the tokenizer section into a tokenizer config
func (c *Config) ToTokenizerConfig() *chunkers.TokenizerConfig {
	return &chunkers.TokenizerConfig{
		Provider:     c.Tokenizer.Provider,
		EncodingName: c.Tokenizer.EncodingName,
		ModelName:    c.Tokenizer.ModelName,
	}
}

// FromYAMLFile loads configuration from a YAML file, applying defaults for
// keys the file leaves out
func FromYAMLFile(path string) (*Config, error) {
	return fromFile(path, "yaml")
}

// FromJSONFile loads configuration from a JSON file
func FromJSONFile(path string) (*Config, error) {
	return fromFile(path, "json")
}

func fromFile(path, format string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewConfigNotFoundError(path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(format)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to read config file: %v", err))
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to parse config file: %v", err))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// FromEnv loads configuration from environment variables with the DOCCHUNK
// prefix, falling back to defaults for unset keys
func FromEnv() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to parse environment config: %v", err))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadDotEnv loads environment variables from .env files before FromEnv
// reads them. With no arguments a missing .env is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			return nil
		}
		paths = []string{".env"}
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.NewConfigError(fmt.Sprintf("failed to load env file: %v", err))
	}
	return nil
}

// setDefaults registers default values so partial configs and environment
// overrides merge onto a complete baseline
func setDefaults(v *viper.Viper) {
	defaults := Default()
	v.SetDefault("chunking.max_chunk_size", defaults.Chunking.MaxChunkSize)
	v.SetDefault("chunking.min_chunk_size", defaults.Chunking.MinChunkSize)
	v.SetDefault("chunking.chunk_overlap", defaults.Chunking.ChunkOverlap)
	v.SetDefault("tokenizer.provider", defaults.Tokenizer.Provider)
	v.SetDefault("tokenizer.encoding_name", defaults.Tokenizer.EncodingName)
	v.SetDefault("enrichment.summary_mode", defaults.Enrichment.SummaryMode)
	v.SetDefault("enrichment.summary_max_words", defaults.Enrichment.SummaryMaxWords)
	v.SetDefault("logging.level", defaults.Logging.Level)
}

// ToYAMLFile saves configuration to a YAML file
func (c *Config) ToYAMLFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewFileError(fmt.Sprintf("failed to create directory: %v", err))
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.NewConfigError(fmt.Sprintf("failed to marshal config: %v", err))
	}

	return os.WriteFile(path, data, 0644)
}

// ToJSONFile saves configuration to a JSON file
func (c *Config) ToJSONFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewFileError(fmt.Sprintf("failed to create directory: %v", err))
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.NewConfigError(fmt.Sprintf("failed to marshal config: %v", err))
	}

	return os.WriteFile(path, data, 0644)
}

// Manager owns a live configuration and can reload it when the backing file
// changes
type Manager struct {
	config *Config
	viper  *viper.Viper
	path   string
	mu     sync.RWMutex
}

// NewManager creates a configuration manager holding the defaults
func NewManager() *Manager {
	return &Manager{
		config: Default(),
		viper:  viper.New(),
	}
}

// Load reads configuration from a file into the manager
func (m *Manager) Load(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.NewConfigNotFoundError(path)
	}

	m.viper = viper.New()
	m.viper.SetConfigFile(path)
	setDefaults(m.viper)

	if err := m.viper.ReadInConfig(); err != nil {
		return errors.NewConfigError(fmt.Sprintf("failed to read config file: %v", err))
	}

	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return errors.NewConfigError(fmt.Sprintf("failed to parse config file: %v", err))
	}
	if err := config.Validate(); err != nil {
		return err
	}

	m.config = config
	m.path = path
	return nil
}

// Config returns the current configuration
func (m *Manager) Config() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Set overrides a single key and re-derives the configuration
func (m *Manager) Set(key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.viper.Set(key, value)

	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return errors.NewConfigError(fmt.Sprintf("failed to apply override: %v", err))
	}
	if err := config.Validate(); err != nil {
		return err
	}

	m.config = config
	return nil
}

// Save writes the current configuration to a file
func (m *Manager) Save(ctx context.Context, path string) error {
	m.mu.RLock()
	config := m.config
	m.mu.RUnlock()

	return config.ToYAMLFile(path)
}

// Watch reloads the configuration when the loaded file changes and hands the
// fresh configuration to the callback. Reloads that fail validation are
// dropped, keeping the last good configuration.
func (m *Manager) Watch(ctx context.Context, callback func(*Config)) error {
	m.mu.RLock()
	loaded := m.path != ""
	m.mu.RUnlock()
	if !loaded {
		return errors.NewConfigError("watch requires a loaded config file")
	}

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		config := &Config{}
		if err := m.viper.Unmarshal(config); err != nil {
			return
		}
		if err := config.Validate(); err != nil {
			return
		}

		m.mu.Lock()
		m.config = config
		m.mu.Unlock()

		if callback != nil {
			callback(config)
		}
	})
	m.viper.WatchConfig()

	return nil
}
