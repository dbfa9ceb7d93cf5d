// Package parsers provides document parsing for the chunking pipeline.
// Parsers turn source files into markdown-shaped text that the hierarchical
// chunker can split on heading boundaries.
package parsers

import (
	"context"
	"io"
	"strings"
	"time"
)

// ParserType identifies a parser implementation
type ParserType string

const (
	// ParserTypeText for plain text files
	ParserTypeText ParserType = "text"

	// ParserTypeMarkdown for Markdown documents
	ParserTypeMarkdown ParserType = "markdown"

	// ParserTypePDF for PDF documents
	ParserTypePDF ParserType = "pdf"

	// ParserTypeHTML for HTML documents
	ParserTypeHTML ParserType = "html"
)

// SupportedParserTypes returns all supported parser types
func SupportedParserTypes() []ParserType {
	return []ParserType{
		ParserTypeText,
		ParserTypeMarkdown,
		ParserTypePDF,
		ParserTypeHTML,
	}
}

// IsValidParserType checks if a parser type is supported
func IsValidParserType(parserType ParserType) bool {
	for _, supported := range SupportedParserTypes() {
		if supported == parserType {
			return true
		}
	}
	return false
}

// DocumentMetadata contains metadata extracted from parsed documents
type DocumentMetadata struct {
	// Title of the document
	Title string `json:"title,omitempty"`

	// Author of the document
	Author string `json:"author,omitempty"`

	// MimeType is the MIME type of the document
	MimeType string `json:"mime_type,omitempty"`

	// FileExtension is the file extension
	FileExtension string `json:"file_extension,omitempty"`

	// FileSize is the size of the original input in bytes
	FileSize int64 `json:"file_size,omitempty"`

	// PageCount for multi-page documents
	PageCount int `json:"page_count,omitempty"`

	// WordCount is the approximate word count
	WordCount int `json:"word_count,omitempty"`

	// CharacterCount is the total character count
	CharacterCount int `json:"character_count,omitempty"`

	// Custom metadata fields
	Custom map[string]interface{} `json:"custom,omitempty"`
}

// Heading represents a document heading
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// ParsedDocument represents a parsed document ready for chunking
type ParsedDocument struct {
	// Content is the extracted text in markdown shape
	Content string `json:"content"`

	// Metadata contains document metadata
	Metadata *DocumentMetadata `json:"metadata"`

	// Headings contains the document headings in order of appearance
	Headings []Heading `json:"headings,omitempty"`

	// ParsedAt is when the document was parsed
	ParsedAt time.Time `json:"parsed_at"`

	// ParserType indicates which parser was used
	ParserType ParserType `json:"parser_type"`

	// ParsingDuration is how long parsing took
	ParsingDuration time.Duration `json:"parsing_duration"`
}

// SectionStructure maps the parsed headings into section to subsection
// titles, the shape the chunker consumes. Returns nil when the document has
// no top-level headings, so chunking falls back to its own detection.
func (d *ParsedDocument) SectionStructure() map[string][]string {
	var structure map[string][]string
	currentSection := ""

	for _, heading := range d.Headings {
		switch heading.Level {
		case 1:
			if structure == nil {
				structure = make(map[string][]string)
			}
			currentSection = heading.Text
			structure[currentSection] = []string{}
		case 2:
			if currentSection != "" {
				structure[currentSection] = append(structure[currentSection], heading.Text)
			}
		}
	}

	return structure
}

// ParserConfig represents configuration for document parsers
type ParserConfig struct {
	// ExtractMetadata indicates whether to extract document metadata
	ExtractMetadata bool `json:"extract_metadata"`

	// MaxFileSize is the maximum input size to process, in bytes
	MaxFileSize int64 `json:"max_file_size"`

	// Timeout for parsing operations
	Timeout time.Duration `json:"timeout"`
}

// DefaultParserConfig returns a sensible default configuration
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		ExtractMetadata: true,
		MaxFileSize:     50 * 1024 * 1024,
		Timeout:         30 * time.Second,
	}
}

// Parser defines the interface for document parsing implementations
type Parser interface {
	// Parse parses a document from a reader
	Parse(ctx context.Context, reader io.Reader, config *ParserConfig) (*ParsedDocument, error)

	// ParseFile parses a document from a file path
	ParseFile(ctx context.Context, filePath string, config *ParserConfig) (*ParsedDocument, error)

	// ParseBytes parses a document from byte data
	ParseBytes(ctx context.Context, data []byte, filename string, config *ParserConfig) (*ParsedDocument, error)

	// SupportedExtensions returns the file extensions supported by this parser
	SupportedExtensions() []string

	// GetParserType returns the type identifier for this parser
	GetParserType() ParserType
}

// countWords approximates the word count of a text
func countWords(text string) int {
	return len(strings.Fields(text))
}

// normalizeNewlines converts CRLF and CR line endings to LF so downstream
// heading and paragraph splits see one newline convention
func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
