package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plandraft/docchunk/pkg/chunkers"
	"github.com/plandraft/docchunk/pkg/types"
)

func TestDefault(t *testing.T) {
	config := Default()
	require.NotNil(t, config)

	assert.Equal(t, 1000, config.Chunking.MaxChunkSize)
	assert.Equal(t, 100, config.Chunking.MinChunkSize)
	assert.Equal(t, 0, config.Chunking.ChunkOverlap)
	assert.Equal(t, chunkers.TokenizerProviderTiktoken, config.Tokenizer.Provider)
	assert.Equal(t, chunkers.DefaultEncoding, config.Tokenizer.EncodingName)
	assert.Equal(t, "extract", config.Enrichment.SummaryMode)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Nil(t, config.LLM)
	assert.Nil(t, config.Embedder)

	assert.NoError(t, config.Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Run("InvalidChunking", func(t *testing.T) {
		config := Default()
		config.Chunking.MinChunkSize = config.Chunking.MaxChunkSize
		assert.Error(t, config.Validate())

		config = Default()
		config.Chunking.MaxChunkSize = 0
		assert.Error(t, config.Validate())

		config = Default()
		config.Chunking.ChunkOverlap = config.Chunking.MaxChunkSize + 1
		assert.Error(t, config.Validate())
	})

	t.Run("InvalidTokenizerProvider", func(t *testing.T) {
		config := Default()
		config.Tokenizer.Provider = "unknown"
		assert.Error(t, config.Validate())
	})

	t.Run("LLMSummaryRequiresLLMSection", func(t *testing.T) {
		config := Default()
		config.Enrichment.SummaryEnabled = true
		config.Enrichment.SummaryMode = "llm"
		assert.Error(t, config.Validate())

		config.LLM = NewLLMConfig()
		assert.NoError(t, config.Validate())
	})

	t.Run("EmbeddingRequiresEmbedderSection", func(t *testing.T) {
		config := Default()
		config.Enrichment.EmbeddingEnabled = true
		assert.Error(t, config.Validate())

		config.Embedder = NewEmbedderConfig()
		assert.NoError(t, config.Validate())
	})

	t.Run("InvalidNestedBackend", func(t *testing.T) {
		config := Default()
		config.LLM = NewLLMConfig()
		config.LLM.Backend = "unsupported"
		assert.Error(t, config.Validate())
	})
}

func TestNewLLMConfig(t *testing.T) {
	config := NewLLMConfig()
	require.NotNil(t, config)

	assert.Equal(t, types.BackendOpenAI, config.Backend)
	assert.Equal(t, 1024, config.MaxTokens)
	assert.Equal(t, 0.7, config.Temperature)
	assert.Equal(t, 0.9, config.TopP)
	assert.Equal(t, 30*time.Second, config.Timeout)
}

func TestNewEmbedderConfig(t *testing.T) {
	config := NewEmbedderConfig()
	require.NotNil(t, config)

	assert.Equal(t, types.BackendOpenAI, config.Backend)
	assert.Equal(t, "text-embedding-3-small", config.Model)
	assert.Equal(t, 1536, config.Dimension)
	assert.Equal(t, 100, config.BatchSize)
}

func TestYAMLConfigOperations(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	t.Run("ToYAMLFile", func(t *testing.T) {
		config := Default()
		config.Chunking.MaxChunkSize = 800
		config.LLM = NewLLMConfig()
		config.LLM.Model = "gpt-4o"

		err := config.ToYAMLFile(configPath)
		require.NoError(t, err)
		assert.FileExists(t, configPath)
	})

	t.Run("FromYAMLFile", func(t *testing.T) {
		config, err := FromYAMLFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, 800, config.Chunking.MaxChunkSize)
		require.NotNil(t, config.LLM)
		assert.Equal(t, "gpt-4o", config.LLM.Model)
		assert.Equal(t, types.BackendOpenAI, config.LLM.Backend)
	})

	t.Run("FromYAMLFile_NonExistentFile", func(t *testing.T) {
		_, err := FromYAMLFile(filepath.Join(tempDir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("PartialFileGetsDefaults", func(t *testing.T) {
		partialPath := filepath.Join(tempDir, "partial.yaml")
		content := "chunking:\n  max_chunk_size: 400\n"
		require.NoError(t, os.WriteFile(partialPath, []byte(content), 0644))

		config, err := FromYAMLFile(partialPath)
		require.NoError(t, err)

		assert.Equal(t, 400, config.Chunking.MaxChunkSize)
		assert.Equal(t, 100, config.Chunking.MinChunkSize)
		assert.Equal(t, chunkers.TokenizerProviderTiktoken, config.Tokenizer.Provider)
	})

	t.Run("InvalidFileFailsValidation", func(t *testing.T) {
		invalidPath := filepath.Join(tempDir, "invalid.yaml")
		content := "chunking:\n  max_chunk_size: 100\n  min_chunk_size: 200\n"
		require.NoError(t, os.WriteFile(invalidPath, []byte(content), 0644))

		_, err := FromYAMLFile(invalidPath)
		assert.Error(t, err)
	})
}

func TestJSONConfigOperations(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	t.Run("ToJSONFile", func(t *testing.T) {
		config := Default()
		config.Chunking.ChunkOverlap = 50
		config.Embedder = NewEmbedderConfig()

		err := config.ToJSONFile(configPath)
		require.NoError(t, err)
		assert.FileExists(t, configPath)
	})

	t.Run("FromJSONFile", func(t *testing.T) {
		config, err := FromJSONFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, 50, config.Chunking.ChunkOverlap)
		require.NotNil(t, config.Embedder)
		assert.Equal(t, 1536, config.Embedder.Dimension)
	})
}

func TestFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		config, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, 1000, config.Chunking.MaxChunkSize)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("DOCCHUNK_CHUNKING_MAX_CHUNK_SIZE", "500")
		t.Setenv("DOCCHUNK_TOKENIZER_PROVIDER", "heuristic")

		config, err := FromEnv()
		require.NoError(t, err)

		assert.Equal(t, 500, config.Chunking.MaxChunkSize)
		assert.Equal(t, "heuristic", config.Tokenizer.Provider)
	})

	t.Run("InvalidOverride", func(t *testing.T) {
		t.Setenv("DOCCHUNK_CHUNKING_MAX_CHUNK_SIZE", "50")
		t.Setenv("DOCCHUNK_CHUNKING_MIN_CHUNK_SIZE", "90")

		_, err := FromEnv()
		assert.Error(t, err)
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("MissingDefaultFileIgnored", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv())
	})

	t.Run("MissingExplicitFileErrors", func(t *testing.T) {
		assert.Error(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
	})

	t.Run("LoadsVariables", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(envPath, []byte("DOCCHUNK_TEST_SENTINEL=loaded\n"), 0644))

		require.NoError(t, LoadDotEnv(envPath))
		defer os.Unsetenv("DOCCHUNK_TEST_SENTINEL")

		assert.Equal(t, "loaded", os.Getenv("DOCCHUNK_TEST_SENTINEL"))
	})
}

func TestConfigConverters(t *testing.T) {
	config := Default()
	config.Chunking.MaxChunkSize = 600
	config.Chunking.MinChunkSize = 60
	config.Chunking.ChunkOverlap = 30
	config.Tokenizer.ModelName = "gpt-4o"

	chunkerConfig := config.ToChunkerConfig()
	assert.Equal(t, 600, chunkerConfig.MaxChunkSize)
	assert.Equal(t, 60, chunkerConfig.MinChunkSize)
	assert.Equal(t, 30, chunkerConfig.ChunkOverlap)
	assert.NoError(t, chunkerConfig.Validate())

	tokenizerConfig := config.ToTokenizerConfig()
	assert.Equal(t, chunkers.TokenizerProviderTiktoken, tokenizerConfig.Provider)
	assert.Equal(t, chunkers.DefaultEncoding, tokenizerConfig.EncodingName)
	assert.Equal(t, "gpt-4o", tokenizerConfig.ModelName)
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("NewManagerHoldsDefaults", func(t *testing.T) {
		manager := NewManager()
		require.NotNil(t, manager.Config())
		assert.Equal(t, 1000, manager.Config().Chunking.MaxChunkSize)
	})

	t.Run("LoadAndSave", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "config.yaml")

		seed := Default()
		seed.Chunking.MaxChunkSize = 750
		require.NoError(t, seed.ToYAMLFile(configPath))

		manager := NewManager()
		require.NoError(t, manager.Load(ctx, configPath))
		assert.Equal(t, 750, manager.Config().Chunking.MaxChunkSize)

		savedPath := filepath.Join(tempDir, "saved.yaml")
		require.NoError(t, manager.Save(ctx, savedPath))

		reloaded, err := FromYAMLFile(savedPath)
		require.NoError(t, err)
		assert.Equal(t, 750, reloaded.Chunking.MaxChunkSize)
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		manager := NewManager()
		assert.Error(t, manager.Load(ctx, "/nonexistent/config.yaml"))
	})

	t.Run("SetOverride", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "config.yaml")
		require.NoError(t, Default().ToYAMLFile(configPath))

		manager := NewManager()
		require.NoError(t, manager.Load(ctx, configPath))

		require.NoError(t, manager.Set("chunking.max_chunk_size", 300))
		assert.Equal(t, 300, manager.Config().Chunking.MaxChunkSize)

		// An override that breaks validation is rejected
		assert.Error(t, manager.Set("chunking.min_chunk_size", 400))
	})

	t.Run("WatchRequiresLoadedFile", func(t *testing.T) {
		manager := NewManager()
		assert.Error(t, manager.Watch(ctx, func(*Config) {}))
	})
}
