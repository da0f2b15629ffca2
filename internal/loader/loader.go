// Package loader turns files on disk into plain text for ingestion.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ziadkadry99/docvault/internal/apperr"
)

// DefaultFormats are the formats accepted when none are configured.
var DefaultFormats = []string{"pdf"}

// extractor reads the text content of one file.
type extractor func(path string) (string, error)

var extractors = map[string]extractor{
	"pdf": extractPDF,
	"txt": readText,
	"md":  readText,
}

// Loader gates documents by format and extracts their text.
type Loader struct {
	allowed map[string]bool
}

// New creates a Loader accepting the given formats (extensions without the
// dot, case-insensitive). An empty list means DefaultFormats.
func New(formats []string) *Loader {
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	allowed := make(map[string]bool, len(formats))
	for _, f := range formats {
		allowed[normalizeFormat(f)] = true
	}
	return &Loader{allowed: allowed}
}

// Format returns the lowercased extension of source without the dot.
func Format(source string) string {
	return normalizeFormat(filepath.Ext(source))
}

func normalizeFormat(f string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
}

// Check rejects sources whose format is not accepted.
func (l *Loader) Check(source string) error {
	format := Format(source)
	if !l.allowed[format] {
		return apperr.UnsupportedFormat("loader.check", format)
	}
	return nil
}

// Load checks the format of path and returns its text content.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	if err := l.Check(path); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	format := Format(path)
	extract, ok := extractors[format]
	if !ok {
		return "", apperr.UnsupportedFormat("loader.load", format)
	}
	text, err := extract(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}
	return text, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// extractPDF returns the plain text of every page in order. The pdf package
// panics on some malformed inputs, so panics are turned into errors.
func extractPDF(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	data, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
