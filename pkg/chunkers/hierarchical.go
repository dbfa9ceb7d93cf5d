package chunkers

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	sectionSplitRegex    = regexp.MustCompile(`(?m)^#\s+`)
	subsectionSplitRegex = regexp.MustCompile(`(?m)^##\s+`)
	paragraphSplitRegex  = regexp.MustCompile(`\n{2,}`)
)

// HierarchicalChunker splits markdown documents into a flat table of
// section and subsection chunks bounded by token counts. Sections that fit
// the budget become one chunk; oversized sections split into subsection
// chunks; oversized subsections fall back to greedy paragraph packing. A
// single paragraph is never divided, so one paragraph above the budget
// yields one oversized chunk.
//
// The chunker holds no cross-call state beyond the injected tokenizer and
// config, both read-only after construction, and is safe for concurrent use.
type HierarchicalChunker struct {
	tokenizer TokenizerProvider
	config    *ChunkerConfig
}

// NewHierarchicalChunker creates a hierarchical chunker with the given
// tokenizer as its sizing oracle
func NewHierarchicalChunker(tokenizer TokenizerProvider, config *ChunkerConfig) (*HierarchicalChunker, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("tokenizer cannot be nil")
	}
	if config == nil {
		config = DefaultChunkerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunker config: %w", err)
	}

	return &HierarchicalChunker{
		tokenizer: tokenizer,
		config:    config,
	}, nil
}

// Config returns the chunker configuration
func (hc *HierarchicalChunker) Config() *ChunkerConfig {
	return hc.config
}

// Tokenizer returns the injected tokenizer provider
func (hc *HierarchicalChunker) Tokenizer() TokenizerProvider {
	return hc.tokenizer
}

// ChunkDocument splits a document into hierarchy-tagged chunks. When
// structure is nil it is detected from the text; the result echoes it either
// way. Malformed heading syntax degrades into coarser chunks rather than
// failing, so the only error path is a tokenizer failure. Any non-empty
// document produces at least one chunk, and an empty document still yields a
// single empty fallback chunk.
func (hc *HierarchicalChunker) ChunkDocument(text string, structure map[string][]string) (*ChunkResult, error) {
	if structure == nil {
		structure = DetectSectionStructure(text)
	}

	result := &ChunkResult{
		Chunks: make(ChunkTable),
	}

	sections := sectionSplitRegex.Split(text, -1)

	// Text before the first section heading
	preamble := strings.TrimSpace(sections[0])
	sections = sections[1:]
	if preamble != "" {
		result.add(&Chunk{
			ID:        uuid.New().String(),
			Content:   preamble,
			Section:   PreambleSection,
			Level:     0,
			CreatedAt: time.Now(),
		})
	}

	for _, sectionContent := range sections {
		if err := hc.chunkSection(result, sectionContent); err != nil {
			return nil, err
		}
	}

	if len(result.Chunks) == 0 {
		result.add(&Chunk{
			ID:        uuid.New().String(),
			Content:   strings.TrimSpace(text),
			Section:   FallbackSection,
			Level:     0,
			CreatedAt: time.Now(),
		})
	}

	if len(structure) == 0 {
		structure = map[string][]string{FallbackSection: {}}
	}
	result.Structure = structure

	return result, nil
}

// chunkSection emits the chunks for one top-level section. The section id is
// reserved before the size decision: when the section fits, or when its
// pre-subsection content clears the minimum size, the emitted level-1 chunk
// takes that id, and subsection chunks reference it as parent either way.
func (hc *HierarchicalChunker) chunkSection(result *ChunkResult, raw string) error {
	title, body := splitHeadingPart(raw)
	sectionText := "# " + title + "\n\n" + body

	sectionID := uuid.New().String()

	tokens, err := hc.tokenizer.CountTokens(sectionText)
	if err != nil {
		return fmt.Errorf("token count failed for section %q: %w", title, err)
	}

	if tokens <= hc.config.MaxChunkSize {
		result.add(&Chunk{
			ID:        sectionID,
			Content:   sectionText,
			Section:   title,
			Level:     1,
			CreatedAt: time.Now(),
		})
		return nil
	}

	parts := subsectionSplitRegex.Split(body, -1)
	mainContent := strings.TrimSpace(parts[0])
	parts = parts[1:]

	if mainContent != "" {
		mainTokens, err := hc.tokenizer.CountTokens(mainContent)
		if err != nil {
			return fmt.Errorf("token count failed for section %q: %w", title, err)
		}
		if mainTokens > hc.config.MinChunkSize {
			result.add(&Chunk{
				ID:        sectionID,
				Content:   "# " + title + "\n\n" + mainContent,
				Section:   title,
				Level:     1,
				CreatedAt: time.Now(),
			})
		}
	}

	for _, subsectionContent := range parts {
		if err := hc.chunkSubsection(result, title, sectionID, subsectionContent); err != nil {
			return err
		}
	}

	return nil
}

// chunkSubsection emits one chunk for a subsection that fits the budget, or
// packs its paragraphs into several chunks when it does not
func (hc *HierarchicalChunker) chunkSubsection(result *ChunkResult, section, sectionID, raw string) error {
	title, body := splitHeadingPart(raw)
	subsectionText := "## " + title + "\n\n" + body

	tokens, err := hc.tokenizer.CountTokens(subsectionText)
	if err != nil {
		return fmt.Errorf("token count failed for subsection %q: %w", title, err)
	}

	if tokens <= hc.config.MaxChunkSize {
		result.add(&Chunk{
			ID:         uuid.New().String(),
			Content:    subsectionText,
			Section:    section,
			Subsection: title,
			ParentID:   sectionID,
			Level:      2,
			CreatedAt:  time.Now(),
		})
		return nil
	}

	return hc.packParagraphs(result, section, title, sectionID, subsectionText)
}

// packParagraphs splits text on blank-line boundaries and greedily packs
// consecutive paragraphs until the next one would overflow the budget. A
// paragraph is never split, so one larger than the budget becomes its own
// oversized chunk. With overlap configured, each continuation chunk is
// seeded with trailing paragraphs of its predecessor within the overlap
// token budget, provided the next paragraph still fits alongside them.
func (hc *HierarchicalChunker) packParagraphs(result *ChunkResult, section, subsection, sectionID, text string) error {
	paragraphs := paragraphSplitRegex.Split(text, -1)

	emit := func(content string) {
		result.add(&Chunk{
			ID:         uuid.New().String(),
			Content:    content,
			Section:    section,
			Subsection: subsection,
			ParentID:   sectionID,
			Level:      2,
			CreatedAt:  time.Now(),
		})
	}

	var packed []string
	for _, paragraph := range paragraphs {
		candidate := strings.Join(packed, "\n\n") + "\n\n" + paragraph
		tokens, err := hc.tokenizer.CountTokens(candidate)
		if err != nil {
			return fmt.Errorf("token count failed during paragraph packing: %w", err)
		}

		if tokens <= hc.config.MaxChunkSize {
			packed = append(packed, paragraph)
			continue
		}

		if len(packed) > 0 {
			emit(strings.Join(packed, "\n\n"))

			seed, err := hc.overlapTail(packed)
			if err != nil {
				return err
			}
			if len(seed) > 0 {
				seeded := append(seed, paragraph)
				seededTokens, err := hc.tokenizer.CountTokens(strings.Join(seeded, "\n\n"))
				if err != nil {
					return fmt.Errorf("token count failed during paragraph packing: %w", err)
				}
				if seededTokens <= hc.config.MaxChunkSize {
					packed = seeded
					continue
				}
			}
		}

		packed = []string{paragraph}
	}

	if len(packed) > 0 {
		emit(strings.Join(packed, "\n\n"))
	}

	return nil
}

// overlapTail collects trailing paragraphs of an emitted chunk that fit
// within the configured overlap token budget, in document order
func (hc *HierarchicalChunker) overlapTail(paragraphs []string) ([]string, error) {
	if hc.config.ChunkOverlap <= 0 || len(paragraphs) == 0 {
		return nil, nil
	}

	var tail []string
	used := 0
	for i := len(paragraphs) - 1; i >= 0; i-- {
		tokens, err := hc.tokenizer.CountTokens(paragraphs[i])
		if err != nil {
			return nil, fmt.Errorf("token count failed during overlap calculation: %w", err)
		}
		if used+tokens > hc.config.ChunkOverlap {
			break
		}
		tail = append([]string{paragraphs[i]}, tail...)
		used += tokens
	}

	return tail, nil
}

// splitHeadingPart separates the heading line from the body of a part
// produced by a heading split
func splitHeadingPart(raw string) (title, body string) {
	pieces := strings.SplitN(raw, "\n", 2)
	title = strings.TrimSpace(pieces[0])
	if len(pieces) > 1 {
		body = strings.TrimSpace(pieces[1])
	}
	return title, body
}
