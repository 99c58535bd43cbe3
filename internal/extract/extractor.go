// Package extract reads raw transcript files into UTF-8 text.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidEncoding is returned for plain-text input that is not valid UTF-8.
var ErrInvalidEncoding = errors.New("input is not valid UTF-8")

// Extractor extracts plain text from transcript files.
type Extractor struct {
	replaceInvalid bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithReplaceInvalidUTF8 substitutes U+FFFD for undecodable bytes instead of
// returning ErrInvalidEncoding.
func WithReplaceInvalidUTF8(replace bool) Option {
	return func(e *Extractor) { e.replaceInvalid = replace }
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the file at path and returns its text content.
// Plain text is returned as-is apart from a leading byte order mark.
// PDF, DOCX, ODT and RTF are converted to text, one paragraph per line where
// the format records paragraphs.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".odt":
		return extractODT(content)
	case ".rtf":
		return extractRTF(content)
	default:
		// .txt and anything unrecognised are read as plain text
		return e.extractPlain(content)
	}
}

// MatchExtension reports whether path has one of exts (case-insensitive,
// leading dot included). An empty list matches nothing.
func MatchExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// OutputName returns the cleaned file name for an input file name: ".txt"
// names are kept, other formats get their extension replaced with ".txt".
func OutputName(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	if strings.EqualFold(ext, ".txt") {
		return base
	}
	return strings.TrimSuffix(base, ext) + ".txt"
}
