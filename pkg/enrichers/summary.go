// Package enrichers adds summaries and embeddings to chunked documents.
// Enrichment is write-once: chunks that already carry a summary or an
// embedding are left untouched, so re-running an enricher is safe.
package enrichers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/plandraft/docchunk/pkg/chunkers"
	"github.com/plandraft/docchunk/pkg/config"
	"github.com/plandraft/docchunk/pkg/errors"
	"github.com/plandraft/docchunk/pkg/interfaces"
	"github.com/plandraft/docchunk/pkg/logger"
	"github.com/plandraft/docchunk/pkg/types"
)

const (
	// SummaryModeExtract takes the leading sentences of the chunk
	SummaryModeExtract = "extract"

	// SummaryModeLLM asks an LLM for the summary
	SummaryModeLLM = "llm"
)

// defaultSummaryTemplate is the prompt used in LLM summary mode
const defaultSummaryTemplate = `Summarize the following text into a concise overview that captures the main topics and key information:

{{.Content}}

Generate a summary that:
1. Captures the main themes and topics
2. Preserves important details
3. Is at most {{.MaxWords}} words

Summary:`

var sentenceRegex = regexp.MustCompile(`[^.!?\n]+[.!?]+`)

// SummaryEnricher writes summaries onto chunks
type SummaryEnricher struct {
	config   *config.EnrichmentConfig
	llm      interfaces.LLM
	logger   interfaces.Logger
	template string
}

// NewSummaryEnricher creates a summary enricher.
// An LLM provider is only required for llm mode.
func NewSummaryEnricher(cfg *config.EnrichmentConfig, llmProvider interfaces.LLM, log interfaces.Logger) (*SummaryEnricher, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("enrichment config cannot be nil")
	}

	mode := cfg.SummaryMode
	if mode == "" {
		mode = SummaryModeExtract
	}
	if mode != SummaryModeExtract && mode != SummaryModeLLM {
		return nil, errors.NewConfigError(fmt.Sprintf("unsupported summary mode: %s", mode))
	}
	if mode == SummaryModeLLM && llmProvider == nil {
		return nil, errors.NewConfigError("llm summary mode requires an llm provider")
	}

	if log == nil {
		log = logger.NewLogger()
	}

	return &SummaryEnricher{
		config:   cfg,
		llm:      llmProvider,
		logger:   log,
		template: defaultSummaryTemplate,
	}, nil
}

// SetTemplate overrides the LLM prompt template.
// The template may reference {{.Content}} and {{.MaxWords}}.
func (s *SummaryEnricher) SetTemplate(template string) {
	if template != "" {
		s.template = template
	}
}

// EnrichSummaries walks the result in emission order and writes a summary
// onto every chunk that does not have one yet. It returns how many chunks
// were enriched and how many were skipped; per-chunk failures are collected
// and returned as a single error without stopping the walk.
func (s *SummaryEnricher) EnrichSummaries(ctx context.Context, result *chunkers.ChunkResult) (int, int, error) {
	if result == nil || len(result.Order) == 0 {
		return 0, 0, nil
	}

	maxWords := s.config.SummaryMaxWords
	if maxWords <= 0 {
		maxWords = 50
	}

	enriched := 0
	skipped := 0
	errs := errors.NewErrorList()

	for _, id := range result.Order {
		chunk, ok := result.Chunks[id]
		if !ok {
			continue
		}
		if chunk.Summary != "" || chunk.Content == "" {
			skipped++
			continue
		}

		if err := ctx.Err(); err != nil {
			errs.Add(errors.NewTimeoutError("summary enrichment"))
			break
		}

		summary, err := s.summarize(ctx, chunk.Content, maxWords)
		if err != nil {
			s.logger.Error("summary generation failed", err, map[string]interface{}{
				"chunk_id": id,
			})
			errs.Add(errors.WrapError(err, types.ErrorTypeExternal, errors.ErrCodeLLMError,
				"summary failed for chunk "+id))
			continue
		}

		chunk.Summary = summary
		enriched++
	}

	s.logger.Info("summary enrichment finished", map[string]interface{}{
		"mode":     s.config.SummaryMode,
		"enriched": enriched,
		"skipped":  skipped,
		"failed":   len(errs.Errors),
	})

	return enriched, skipped, errs.ToError()
}

func (s *SummaryEnricher) summarize(ctx context.Context, content string, maxWords int) (string, error) {
	switch s.config.SummaryMode {
	case SummaryModeLLM:
		return s.llmSummary(ctx, content, maxWords)
	default:
		return s.extractiveSummary(content, maxWords), nil
	}
}

// extractiveSummary takes leading sentences until the word budget is spent
func (s *SummaryEnricher) extractiveSummary(content string, maxWords int) string {
	body := stripHeadings(content)
	sentences := sentenceRegex.FindAllString(body, -1)

	var parts []string
	used := 0
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 10 {
			continue
		}
		words := len(strings.Fields(sentence))
		if used > 0 && used+words > maxWords {
			break
		}
		parts = append(parts, sentence)
		used += words
		if used >= maxWords {
			break
		}
	}

	if len(parts) == 0 {
		return truncateWords(strings.TrimSpace(body), maxWords)
	}

	return truncateWords(strings.Join(parts, " "), maxWords)
}

// llmSummary asks the LLM for a summary and clamps it to the word budget
func (s *SummaryEnricher) llmSummary(ctx context.Context, content string, maxWords int) (string, error) {
	prompt := strings.ReplaceAll(s.template, "{{.Content}}", content)
	prompt = strings.ReplaceAll(prompt, "{{.MaxWords}}", fmt.Sprintf("%d", maxWords))

	messages := types.MessageList{
		{
			Role:    types.MessageRoleUser,
			Content: prompt,
		},
	}

	response, err := s.llm.Generate(ctx, messages)
	if err != nil {
		return "", err
	}

	return truncateWords(strings.TrimSpace(response), maxWords), nil
}

// stripHeadings drops markdown heading lines so summaries start at the prose
func stripHeadings(content string) string {
	lines := strings.Split(content, "\n")
	var kept []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// truncateWords cuts text to a word budget, marking the cut with an ellipsis
func truncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
