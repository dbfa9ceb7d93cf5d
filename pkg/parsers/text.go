package parsers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/plandraft/docchunk/pkg/errors"
)

// TextParser parses plain text documents. Content passes through untouched
// apart from line ending normalization.
type TextParser struct{}

// NewTextParser creates a new text parser
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Parse parses a plain text document from a reader
func (tp *TextParser) Parse(ctx context.Context, reader io.Reader, config *ParserConfig) (*ParsedDocument, error) {
	if config == nil {
		config = DefaultParserConfig()
	}
	startTime := time.Now()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewParseError("failed to read text content", err)
	}
	if config.MaxFileSize > 0 && int64(len(raw)) > config.MaxFileSize {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("input size %d bytes exceeds limit %d bytes", len(raw), config.MaxFileSize))
	}

	content := normalizeNewlines(string(raw))

	metadata := &DocumentMetadata{
		MimeType:       "text/plain",
		FileSize:       int64(len(raw)),
		WordCount:      countWords(content),
		CharacterCount: len(content),
	}

	return &ParsedDocument{
		Content:         content,
		Metadata:        metadata,
		ParsedAt:        time.Now(),
		ParserType:      ParserTypeText,
		ParsingDuration: time.Since(startTime),
	}, nil
}

// ParseFile parses a plain text document from a file path
func (tp *TextParser) ParseFile(ctx context.Context, filePath string, config *ParserConfig) (*ParsedDocument, error) {
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

	doc, err := tp.Parse(ctx, file, config)
	if err != nil {
		return nil, err
	}

	doc.Metadata.FileExtension = strings.ToLower(filepath.Ext(filePath))
	doc.Metadata.Title = titleFromFilename(filePath)
	return doc, nil
}

// ParseBytes parses a plain text document from byte data
func (tp *TextParser) ParseBytes(ctx context.Context, data []byte, filename string, config *ParserConfig) (*ParsedDocument, error) {
	doc, err := tp.Parse(ctx, bytes.NewReader(data), config)
	if err != nil {
		return nil, err
	}
	if filename != "" {
		doc.Metadata.FileExtension = strings.ToLower(filepath.Ext(filename))
		doc.Metadata.Title = titleFromFilename(filename)
	}
	return doc, nil
}

// SupportedExtensions returns the file extensions supported by this parser
func (tp *TextParser) SupportedExtensions() []string {
	return []string{".txt", ".text", ".log"}
}

// GetParserType returns the type identifier for this parser
func (tp *TextParser) GetParserType() ParserType {
	return ParserTypeText
}
