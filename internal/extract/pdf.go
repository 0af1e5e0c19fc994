package extract

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/okian/racerank/pkg/logger"
)

// PDF extracts positioned words from text PDFs.
type PDF struct {
	opts options
}

// NewPDF creates a PDF extractor.
func NewPDF(opts ...Option) *PDF {
	return &PDF{opts: newOptions(opts)}
}

// Extract implements Extractor.
func (x *PDF) Extract(ctx context.Context, path string) (pages []Page, err error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDocumentUnreadable, path, err)
	}
	defer func() { _ = f.Close() }()

	// The decoder panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("%w: %s: decoder panic: %v", ErrDocumentUnreadable, path, rec)
		}
	}()

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content := p.Content()
		glyphs := make([]glyph, 0, len(content.Text))
		for _, t := range content.Text {
			glyphs = append(glyphs, glyph{s: t.S, x: t.X, y: t.Y, w: t.W})
		}
		pages = append(pages, Page{Number: i, Rows: layoutGlyphs(glyphs, i, x.opts.rowTolerance, x.opts.wordGap)})
	}
	x.opts.log.Debug(ctx, "pdf extracted", logger.String("path", path), logger.Int("pages", len(pages)))
	return pages, nil
}

// glyph is one positioned string as the PDF decoder reports it.
type glyph struct {
	s    string
	x, y float64
	w    float64
}

// layoutGlyphs groups glyphs into rows (top to bottom) and words (left to
// right). A glyph joins the current row when its baseline is within tol of
// the row's first glyph, and the current word when the gap to the previous
// glyph is at most gap and neither is blank.
func layoutGlyphs(glyphs []glyph, page int, tol, gap float64) []Row {
	sorted := make([]glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].y != sorted[j].y {
			return sorted[i].y > sorted[j].y
		}
		return sorted[i].x < sorted[j].x
	})

	var lines [][]glyph
	for _, g := range sorted {
		n := len(lines)
		if n > 0 && math.Abs(lines[n-1][0].y-g.y) <= tol {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []glyph{g})
	}

	rows := make([]Row, 0, len(lines))
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].x < line[j].x })
		w := words{row: Row{Index: len(rows), Y: line[0].y}, page: page}
		for _, g := range line {
			if isBlank(g.s) {
				w.flush()
				continue
			}
			if w.open && g.x-w.right > gap {
				w.flush()
			}
			w.add(g)
		}
		w.flush()
		if len(w.row.Tokens) > 0 {
			rows = append(rows, w.row)
		}
	}
	return rows
}

// words accumulates glyphs of one line into tokens.
type words struct {
	row   Row
	page  int
	buf   strings.Builder
	start float64
	right float64
	open  bool
}

func (w *words) add(g glyph) {
	if !w.open {
		w.start = g.x
		w.open = true
	}
	w.buf.WriteString(g.s)
	w.right = g.x + g.w
}

func (w *words) flush() {
	if !w.open {
		return
	}
	if text := strings.TrimSpace(w.buf.String()); text != "" {
		w.row.Tokens = append(w.row.Tokens, Token{
			Text:  text,
			X:     w.start,
			Y:     w.row.Y,
			Width: w.right - w.start,
			Page:  w.page,
			Row:   w.row.Index,
			Col:   len(w.row.Tokens),
		})
	}
	w.buf.Reset()
	w.open = false
}

func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
