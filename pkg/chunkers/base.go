// Package chunkers provides hierarchical document chunking bounded by token counts
package chunkers

import (
	"fmt"
	"time"

	"github.com/plandraft/docchunk/pkg/types"
)

// Reserved section labels. The business-plan documents this module was built
// for are Italian, and downstream stores match on these labels.
const (
	// PreambleSection labels content found before the first section heading
	PreambleSection = "Introduzione"

	// FallbackSection labels whole-document chunks produced when no
	// structure is detected
	FallbackSection = "Documento"
)

// Chunk is a contiguous span of document text tagged with its place in the
// section hierarchy
type Chunk struct {
	// ID is the process-unique chunk identifier
	ID string `json:"id"`

	// Content is the literal text span including its reconstructed heading line
	Content string `json:"content"`

	// Section is the top-level heading title this chunk belongs to
	Section string `json:"section"`

	// Subsection is the second-level heading title, empty for section and
	// document level chunks
	Subsection string `json:"subsection,omitempty"`

	// ParentID references the chunk one level up, empty at top level.
	// Subsection chunks carry the reserved section container id, which is a
	// correlation key rather than a guaranteed lookup: the container chunk
	// only materializes when the section preamble clears the minimum size.
	ParentID string `json:"parent_id,omitempty"`

	// Level is the hierarchy depth: 0 document/preamble, 1 section,
	// 2 subsection or paragraph fragment
	Level int `json:"level"`

	// Embeddings holds the chunk embedding once enrichment has run
	Embeddings types.EmbeddingVector `json:"embeddings,omitempty"`

	// Summary holds the chunk summary once enrichment has run
	Summary string `json:"summary,omitempty"`

	// CreatedAt is the chunk creation timestamp
	CreatedAt time.Time `json:"created_at"`
}

// ChunkTable indexes chunks by id
type ChunkTable map[string]*Chunk

// ChunkResult is the outcome of chunking one document
type ChunkResult struct {
	// Chunks indexes every emitted chunk by id
	Chunks ChunkTable `json:"chunks"`

	// Order lists chunk ids in emission order, which follows document order
	Order []string `json:"order"`

	// Structure maps each section title to its subsection titles
	Structure map[string][]string `json:"structure"`
}

// add records a freshly emitted chunk
func (r *ChunkResult) add(chunk *Chunk) {
	r.Chunks[chunk.ID] = chunk
	r.Order = append(r.Order, chunk.ID)
}

// InOrder returns the chunks in emission order
func (r *ChunkResult) InOrder() []*Chunk {
	chunks := make([]*Chunk, 0, len(r.Order))
	for _, id := range r.Order {
		if chunk, ok := r.Chunks[id]; ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// Len returns the number of chunks in the result
func (r *ChunkResult) Len() int {
	return len(r.Chunks)
}

// ChunkerConfig contains the size thresholds driving splitting decisions
type ChunkerConfig struct {
	// MaxChunkSize is the token budget no chunk should exceed, except a
	// single paragraph that is already larger on its own
	MaxChunkSize int `json:"max_chunk_size"`

	// MinChunkSize is the token threshold a section preamble must clear to
	// be emitted as its own chunk
	MinChunkSize int `json:"min_chunk_size"`

	// ChunkOverlap is the token budget of trailing context repeated at the
	// start of each continuation chunk during paragraph packing. Zero
	// disables overlap.
	ChunkOverlap int `json:"chunk_overlap"`
}

// DefaultChunkerConfig returns the default chunking configuration
func DefaultChunkerConfig() *ChunkerConfig {
	return &ChunkerConfig{
		MaxChunkSize: 1000,
		MinChunkSize: 100,
		ChunkOverlap: 0,
	}
}

// Validate checks the configuration for consistency
func (c *ChunkerConfig) Validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("max chunk size must be positive, got %d", c.MaxChunkSize)
	}
	if c.MinChunkSize < 0 {
		return fmt.Errorf("min chunk size cannot be negative, got %d", c.MinChunkSize)
	}
	if c.MinChunkSize >= c.MaxChunkSize {
		return fmt.Errorf("min chunk size (%d) must be smaller than max chunk size (%d)", c.MinChunkSize, c.MaxChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap cannot be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.MaxChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be smaller than max chunk size (%d)", c.ChunkOverlap, c.MaxChunkSize)
	}
	return nil
}

// ChunkingStats summarizes the size distribution of a chunking result
type ChunkingStats struct {
	TotalChunks     int         `json:"total_chunks"`
	ChunksByLevel   map[int]int `json:"chunks_by_level"`
	TotalTokens     int         `json:"total_tokens"`
	MinTokens       int         `json:"min_tokens"`
	MaxTokens       int         `json:"max_tokens"`
	AvgTokens       float64     `json:"avg_tokens"`
	OversizedChunks int         `json:"oversized_chunks"`
}

// CalculateStats computes size statistics for a chunking result. Chunks above
// maxChunkSize count as oversized; with hierarchical chunking those can only
// arise from single paragraphs that exceed the budget on their own.
func CalculateStats(result *ChunkResult, tokenizer TokenizerProvider, maxChunkSize int) (*ChunkingStats, error) {
	stats := &ChunkingStats{
		ChunksByLevel: make(map[int]int),
	}
	if result == nil || len(result.Order) == 0 {
		return stats, nil
	}

	for _, chunk := range result.InOrder() {
		tokens, err := tokenizer.CountTokens(chunk.Content)
		if err != nil {
			return nil, fmt.Errorf("token count failed for chunk %s: %w", chunk.ID, err)
		}

		stats.TotalChunks++
		stats.ChunksByLevel[chunk.Level]++
		stats.TotalTokens += tokens

		if stats.TotalChunks == 1 || tokens < stats.MinTokens {
			stats.MinTokens = tokens
		}
		if tokens > stats.MaxTokens {
			stats.MaxTokens = tokens
		}
		if maxChunkSize > 0 && tokens > maxChunkSize {
			stats.OversizedChunks++
		}
	}

	stats.AvgTokens = float64(stats.TotalTokens) / float64(stats.TotalChunks)
	return stats, nil
}
