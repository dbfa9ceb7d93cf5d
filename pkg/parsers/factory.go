package parsers

import (
	"path/filepath"
	"strings"

	"github.com/plandraft/docchunk/pkg/errors"
)

// ParserFactory creates parsers by type or by file extension
type ParserFactory struct{}

// NewParserFactory creates a new parser factory
func NewParserFactory() *ParserFactory {
	return &ParserFactory{}
}

// CreateParser creates a parser for the given type
func (pf *ParserFactory) CreateParser(parserType ParserType) (Parser, error) {
	switch parserType {
	case ParserTypeText:
		return NewTextParser(), nil
	case ParserTypeMarkdown:
		return NewMarkdownParser(), nil
	case ParserTypePDF:
		return NewPDFParser(), nil
	case ParserTypeHTML:
		return NewHTMLParser(), nil
	default:
		return nil, errors.NewUnsupportedFormatError(string(parserType))
	}
}

// CreateParserForFile creates a parser matching the file's extension
func (pf *ParserFactory) CreateParserForFile(filePath string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return nil, errors.NewUnsupportedFormatError("file without extension")
	}

	for _, parserType := range SupportedParserTypes() {
		parser, err := pf.CreateParser(parserType)
		if err != nil {
			continue
		}
		for _, supported := range parser.SupportedExtensions() {
			if supported == ext {
				return parser, nil
			}
		}
	}

	return nil, errors.NewUnsupportedFormatError(ext)
}

// SupportedExtensions returns every extension some parser can handle
func (pf *ParserFactory) SupportedExtensions() []string {
	var extensions []string
	for _, parserType := range SupportedParserTypes() {
		parser, err := pf.CreateParser(parserType)
		if err != nil {
			continue
		}
		extensions = append(extensions, parser.SupportedExtensions()...)
	}
	return extensions
}
