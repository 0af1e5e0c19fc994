package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/racerank/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// Spreadsheet extracts the first sheet of an .xlsx workbook.
type Spreadsheet struct {
	opts options
}

// NewSpreadsheet creates a spreadsheet extractor.
func NewSpreadsheet(opts ...Option) *Spreadsheet {
	return &Spreadsheet{opts: newOptions(opts)}
}

// Extract implements Extractor. The sheet becomes page 1.
func (x *Spreadsheet) Extract(ctx context.Context, path string) ([]Page, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDocumentUnreadable, path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrDocumentUnreadable, path)
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: sheet %q: %w", ErrDocumentUnreadable, path, sheets[0], err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := gridPage(cells)
	x.opts.log.Debug(ctx, "spreadsheet extracted",
		logger.String("path", path),
		logger.String("sheet", sheets[0]),
		logger.Int("rows", len(page.Rows)),
	)
	return []Page{page}, nil
}

// gridPage turns cell rows into a page with one token per non-empty cell.
// X and Col carry the column index and Y the sheet row.
func gridPage(cells [][]string) Page {
	page := Page{Number: 1}
	for y, cols := range cells {
		row := Row{Index: len(page.Rows), Y: float64(y)}
		for c, v := range cols {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			row.Tokens = append(row.Tokens, Token{
				Text: v, X: float64(c), Y: float64(y), Width: 1,
				Page: 1, Row: row.Index, Col: c,
			})
		}
		if len(row.Tokens) > 0 {
			page.Rows = append(page.Rows, row)
		}
	}
	return page
}
