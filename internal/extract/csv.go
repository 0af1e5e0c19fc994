package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/okian/racerank/pkg/logger"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV extracts delimited text exports.
type CSV struct {
	opts options
}

// NewCSV creates a CSV extractor.
func NewCSV(opts ...Option) *CSV {
	return &CSV{opts: newOptions(opts)}
}

// Extract implements Extractor. The delimiter is the most frequent of ';',
// ',' and tab on the first line.
func (x *CSV) Extract(ctx context.Context, path string) ([]Page, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDocumentUnreadable, path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	cells, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDocumentUnreadable, path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := gridPage(cells)
	x.opts.log.Debug(ctx, "csv extracted",
		logger.String("path", path),
		logger.String("delimiter", string(r.Comma)),
		logger.Int("rows", len(page.Rows)),
	)
	return []Page{page}, nil
}

func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ';', -1
	for _, d := range []rune{';', ',', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
