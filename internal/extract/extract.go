// Package extract pulls positioned text tokens out of result documents
// (PDF, spreadsheets and CSV) without any knowledge of race semantics.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/racerank/pkg/logger"
)

// Token is a positioned piece of text. For spreadsheets X is the column index.
type Token struct {
	Text  string
	X     float64
	Y     float64
	Width float64
	Page  int
	Row   int
	Col   int
}

// Right returns the right edge of the token.
func (t Token) Right() float64 { return t.X + t.Width }

// Row is a line of tokens ordered left to right.
type Row struct {
	Index  int
	Y      float64
	Tokens []Token
}

// Text joins the row's tokens with single spaces.
func (r Row) Text() string {
	parts := make([]string, len(r.Tokens))
	for i, t := range r.Tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// Page is one page (or sheet) of rows ordered top to bottom.
type Page struct {
	Number int
	Rows   []Row
}

// Extractor reads a document into pages.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Page, error)
}

const (
	defaultRowTolerance = 2.0
	defaultWordGap      = 1.5
)

// Option configures extractors built by ForPath.
type Option func(*options)

type options struct {
	rowTolerance float64
	wordGap      float64
	log          logger.Logger
}

// WithRowTolerance sets the vertical distance under which PDF glyphs share a row.
func WithRowTolerance(points float64) Option {
	return func(o *options) {
		if points > 0 {
			o.rowTolerance = points
		}
	}
}

// WithWordGap sets the horizontal gap under which PDF glyphs join a word.
func WithWordGap(points float64) Option {
	return func(o *options) {
		if points >= 0 {
			o.wordGap = points
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{rowTolerance: defaultRowTolerance, wordGap: defaultWordGap, log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ForPath returns the extractor matching the file extension.
func ForPath(path string, opts ...Option) (Extractor, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return NewPDF(opts...), nil
	case ".xlsx", ".xlsm":
		return NewSpreadsheet(opts...), nil
	case ".csv", ".txt":
		return NewCSV(opts...), nil
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrDocumentUnreadable, ext)
	}
}

// Extract picks the extractor for path and runs it.
func Extract(ctx context.Context, path string, opts ...Option) ([]Page, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	ex, err := ForPath(path, opts...)
	if err != nil {
		return nil, err
	}
	return ex.Extract(ctx, path)
}

// checkFile maps a missing file to ErrNotFound.
func checkFile(path string) error {
	st, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case err != nil:
		return fmt.Errorf("%w: %s: %w", ErrDocumentUnreadable, path, err)
	case st.IsDir():
		return fmt.Errorf("%w: %s is a directory", ErrDocumentUnreadable, path)
	}
	return nil
}
