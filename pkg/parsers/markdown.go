package parsers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/plandraft/docchunk/pkg/errors"
)

// MarkdownParser parses Markdown documents. Content passes through with
// normalized line endings so heading boundaries survive for the chunker;
// YAML front matter is stripped into metadata.
type MarkdownParser struct{}

// NewMarkdownParser creates a new markdown parser
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse parses a Markdown document from a reader
func (mp *MarkdownParser) Parse(ctx context.Context, reader io.Reader, config *ParserConfig) (*ParsedDocument, error) {
	if config == nil {
		config = DefaultParserConfig()
	}
	startTime := time.Now()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewParseError("failed to read markdown content", err)
	}
	if config.MaxFileSize > 0 && int64(len(raw)) > config.MaxFileSize {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("input size %d bytes exceeds limit %d bytes", len(raw), config.MaxFileSize))
	}

	content := normalizeNewlines(string(raw))

	metadata := &DocumentMetadata{
		MimeType: "text/markdown",
		FileSize: int64(len(raw)),
	}

	content = stripFrontMatter(content, metadata, config.ExtractMetadata)

	metadata.WordCount = countWords(content)
	metadata.CharacterCount = len(content)

	headings := extractMarkdownHeadings(content)
	if metadata.Title == "" {
		for _, heading := range headings {
			if heading.Level == 1 {
				metadata.Title = heading.Text
				break
			}
		}
	}

	return &ParsedDocument{
		Content:         content,
		Metadata:        metadata,
		Headings:        headings,
		ParsedAt:        time.Now(),
		ParserType:      ParserTypeMarkdown,
		ParsingDuration: time.Since(startTime),
	}, nil
}

// ParseFile parses a Markdown document from a file path
func (mp *MarkdownParser) ParseFile(ctx context.Context, filePath string, config *ParserConfig) (*ParsedDocument, error) {
	if config == nil {
		config = DefaultParserConfig()
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, errors.NewFileNotFoundError(filePath)
	}
	if config.MaxFileSize > 0 && fileInfo.Size() > config.MaxFileSize {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("file size %d bytes exceeds limit %d bytes", fileInfo.Size(), config.MaxFileSize))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.NewFileError(fmt.Sprintf("failed to open file: %v", err))
	}
	defer file.Close()

	doc, err := mp.Parse(ctx, file, config)
	if err != nil {
		return nil, err
	}

	doc.Metadata.FileExtension = strings.ToLower(filepath.Ext(filePath))
	if doc.Metadata.Title == "" {
		doc.Metadata.Title = titleFromFilename(filePath)
	}
	return doc, nil
}

// ParseBytes parses a Markdown document from byte data
func (mp *MarkdownParser) ParseBytes(ctx context.Context, data []byte, filename string, config *ParserConfig) (*ParsedDocument, error) {
	doc, err := mp.Parse(ctx, bytes.NewReader(data), config)
	if err != nil {
		return nil, err
	}
	if filename != "" {
		doc.Metadata.FileExtension = strings.ToLower(filepath.Ext(filename))
		if doc.Metadata.Title == "" {
			doc.Metadata.Title = titleFromFilename(filename)
		}
	}
	return doc, nil
}

// SupportedExtensions returns the file extensions supported by this parser
func (mp *MarkdownParser) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".mdown"}
}

// GetParserType returns the type identifier for this parser
func (mp *MarkdownParser) GetParserType() ParserType {
	return ParserTypeMarkdown
}

var headingLineRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// extractMarkdownHeadings walks the goldmark AST and collects headings in
// document order, falling back to a line scan when the AST yields none
func extractMarkdownHeadings(content string) []Heading {
	md := goldmark.New()
	source := []byte(content)
	root := md.Parser().Parse(text.NewReader(source))

	var headings []Heading
	ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := node.(*ast.Heading); ok {
			headings = append(headings, Heading{
				Level: heading.Level,
				Text:  nodeText(heading, source),
			})
		}
		return ast.WalkContinue, nil
	})

	if len(headings) == 0 {
		headings = extractHeadingsFallback(content)
	}
	return headings
}

// extractHeadingsFallback scans for ATX heading lines with a regex
func extractHeadingsFallback(content string) []Heading {
	var headings []Heading
	for _, line := range strings.Split(content, "\n") {
		if match := headingLineRegex.FindStringSubmatch(strings.TrimSpace(line)); match != nil {
			headings = append(headings, Heading{
				Level: len(match[1]),
				Text:  strings.TrimSpace(match[2]),
			})
		}
	}
	return headings
}

// nodeText collects the text segments under an AST node
func nodeText(node ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if textNode, ok := n.(*ast.Text); ok {
			sb.Write(textNode.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// stripFrontMatter removes a leading YAML front matter block, copying title
// and author into the metadata when extraction is enabled
func stripFrontMatter(content string, metadata *DocumentMetadata, extract bool) string {
	if !strings.HasPrefix(content, "---\n") {
		return content
	}

	end := strings.Index(content[4:], "\n---")
	if end < 0 {
		return content
	}
	block := content[4 : 4+end]
	rest := content[4+end+len("\n---"):]
	rest = strings.TrimPrefix(rest, "\n")

	if extract {
		fields := make(map[string]interface{})
		if err := yaml.Unmarshal([]byte(block), &fields); err == nil {
			if title, ok := fields["title"].(string); ok {
				metadata.Title = title
			}
			if author, ok := fields["author"].(string); ok {
				metadata.Author = author
			}
			if len(fields) > 0 {
				metadata.Custom = fields
			}
		}
	}

	return strings.TrimPrefix(rest, "\n")
}

// titleFromFilename derives a readable title from a file name
func titleFromFilename(path string) string {
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.NewReplacer("_", " ", "-", " ").Replace(title)
	return strings.TrimSpace(title)
}
