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

	"github.com/PuerkitoBio/goquery"

	"github.com/plandraft/docchunk/pkg/errors"
)

// HTMLParser converts HTML documents into markdown-shaped text: headings
// become hash-prefixed lines and block elements become paragraphs, so the
// hierarchical chunker can split the result on its usual boundaries.
type HTMLParser struct{}

// NewHTMLParser creates a new HTML parser
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

// Parse parses an HTML document from a reader
func (hp *HTMLParser) Parse(ctx context.Context, reader io.Reader, config *ParserConfig) (*ParsedDocument, error) {
	if config == nil {
		config = DefaultParserConfig()
	}
	startTime := time.Now()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewParseError("failed to read html content", err)
	}
	if config.MaxFileSize > 0 && int64(len(raw)) > config.MaxFileSize {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("input size %d bytes exceeds limit %d bytes", len(raw), config.MaxFileSize))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.NewParseError("failed to parse html", err)
	}

	content, headings := htmlToMarkdown(doc)

	metadata := &DocumentMetadata{
		MimeType:       "text/html",
		FileSize:       int64(len(raw)),
		WordCount:      countWords(content),
		CharacterCount: len(content),
	}
	if config.ExtractMetadata {
		metadata.Title = strings.TrimSpace(doc.Find("title").First().Text())
		if author, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok {
			metadata.Author = strings.TrimSpace(author)
		}
	}

	return &ParsedDocument{
		Content:         content,
		Metadata:        metadata,
		Headings:        headings,
		ParsedAt:        time.Now(),
		ParserType:      ParserTypeHTML,
		ParsingDuration: time.Since(startTime),
	}, nil
}

// ParseFile parses an HTML document from a file path
func (hp *HTMLParser) ParseFile(ctx context.Context, filePath string, config *ParserConfig) (*ParsedDocument, error) {
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

	doc, err := hp.Parse(ctx, file, config)
	if err != nil {
		return nil, err
	}

	doc.Metadata.FileExtension = strings.ToLower(filepath.Ext(filePath))
	if doc.Metadata.Title == "" {
		doc.Metadata.Title = titleFromFilename(filePath)
	}
	return doc, nil
}

// ParseBytes parses an HTML document from byte data
func (hp *HTMLParser) ParseBytes(ctx context.Context, data []byte, filename string, config *ParserConfig) (*ParsedDocument, error) {
	doc, err := hp.Parse(ctx, bytes.NewReader(data), config)
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
func (hp *HTMLParser) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// GetParserType returns the type identifier for this parser
func (hp *HTMLParser) GetParserType() ParserType {
	return ParserTypeHTML
}

// htmlToMarkdown walks the block elements of an HTML document and renders
// them as markdown paragraphs, collecting headings along the way
func htmlToMarkdown(doc *goquery.Document) (string, []Heading) {
	var sb strings.Builder
	var headings []Heading

	doc.Find("script, style, noscript").Remove()

	doc.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote").Each(func(i int, s *goquery.Selection) {
		name := goquery.NodeName(s)

		// Skip paragraphs nested in list items, the item text covers them
		if name == "p" && s.ParentsFiltered("li").Length() > 0 {
			return
		}

		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}

		switch name {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(name[1] - '0')
			text = strings.Join(strings.Fields(text), " ")
			headings = append(headings, Heading{Level: level, Text: text})
			sb.WriteString(strings.Repeat("#", level) + " " + text + "\n\n")
		case "li":
			sb.WriteString("- " + strings.Join(strings.Fields(text), " ") + "\n\n")
		default:
			sb.WriteString(text + "\n\n")
		}
	})

	return strings.TrimSpace(sb.String()), headings
}
