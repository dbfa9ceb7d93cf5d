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

	"github.com/ledongthuc/pdf"

	"github.com/plandraft/docchunk/pkg/errors"
)

// PDFParser extracts text from PDF documents page by page. Pages become
// blank-line separated blocks so paragraph packing has boundaries to work
// with; PDFs carry no heading markup, so chunking falls back to its
// document-level path unless callers supply a structure.
type PDFParser struct{}

// NewPDFParser creates a new PDF parser
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse parses a PDF document from a reader
func (pp *PDFParser) Parse(ctx context.Context, reader io.Reader, config *ParserConfig) (*ParsedDocument, error) {
	if config == nil {
		config = DefaultParserConfig()
	}
	startTime := time.Now()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewParseError("failed to read pdf content", err)
	}
	if config.MaxFileSize > 0 && int64(len(raw)) > config.MaxFileSize {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("input size %d bytes exceeds limit %d bytes", len(raw), config.MaxFileSize))
	}

	content, metadata, err := extractPDF(raw, config.ExtractMetadata)
	if err != nil {
		return nil, err
	}
	metadata.FileSize = int64(len(raw))
	metadata.WordCount = countWords(content)
	metadata.CharacterCount = len(content)

	return &ParsedDocument{
		Content:         content,
		Metadata:        metadata,
		ParsedAt:        time.Now(),
		ParserType:      ParserTypePDF,
		ParsingDuration: time.Since(startTime),
	}, nil
}

// ParseFile parses a PDF document from a file path
func (pp *PDFParser) ParseFile(ctx context.Context, filePath string, config *ParserConfig) (*ParsedDocument, error) {
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

	doc, err := pp.Parse(ctx, file, config)
	if err != nil {
		return nil, err
	}

	doc.Metadata.FileExtension = strings.ToLower(filepath.Ext(filePath))
	if doc.Metadata.Title == "" {
		doc.Metadata.Title = titleFromFilename(filePath)
	}
	return doc, nil
}

// ParseBytes parses a PDF document from byte data
func (pp *PDFParser) ParseBytes(ctx context.Context, data []byte, filename string, config *ParserConfig) (*ParsedDocument, error) {
	doc, err := pp.Parse(ctx, bytes.NewReader(data), config)
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
func (pp *PDFParser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// GetParserType returns the type identifier for this parser
func (pp *PDFParser) GetParserType() ParserType {
	return ParserTypePDF
}

// extractPDF pulls page text and document info out of raw PDF bytes. The
// pdf library panics on malformed input, so the whole extraction runs under
// a recover.
func extractPDF(raw []byte, extractMetadata bool) (content string, metadata *DocumentMetadata, err error) {
	metadata = &DocumentMetadata{MimeType: "application/pdf"}

	defer func() {
		if r := recover(); r != nil {
			err = errors.NewParseError(fmt.Sprintf("malformed pdf: %v", r), nil)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", metadata, errors.NewParseError("failed to open pdf", err)
	}

	metadata.PageCount = pdfReader.NumPage()

	if extractMetadata {
		info := pdfReader.Trailer().Key("Info")
		if info.Kind() == pdf.Dict {
			if title := info.Key("Title").RawString(); title != "" {
				metadata.Title = strings.TrimSpace(title)
			}
			if author := info.Key("Author").RawString(); author != "" {
				metadata.Author = strings.TrimSpace(author)
			}
		}
	}

	var pages []string
	for i := 1; i <= pdfReader.NumPage(); i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, "\n\n"), metadata, nil
}
