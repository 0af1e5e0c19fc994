// Package results implements the result repository over document files:
// extraction, layout detection and layout parsing.
package results

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/raceresult"
	"github.com/okian/racerank/internal/domain/record"
	"github.com/okian/racerank/internal/extract"
	"github.com/okian/racerank/internal/formats"
	"github.com/okian/racerank/pkg/logger"
	"github.com/okian/racerank/pkg/metrics"
)

// File outcomes used as metric labels.
const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
)

var _ raceresult.Repository = (*DocumentRepository)(nil)

// DocumentRepository reads canonical records from PDF, spreadsheet and CSV
// result files. Output depends only on file content, name and members.
type DocumentRepository struct {
	detector     *formats.Detector
	rowTolerance float64
	wordGap      float64
	log          logger.Logger
}

// NewDocumentRepository creates a repository with the default detector.
func NewDocumentRepository(opts ...Option) *DocumentRepository {
	r := &DocumentRepository{log: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.detector == nil {
		r.detector = formats.NewDetector(formats.WithLogger(r.log))
	}
	return r
}

// GetRaceResults implements raceresult.Repository.
func (r *DocumentRepository) GetRaceResults(ctx context.Context, path string, members []model.Member) (record.Set, error) {
	set, _, err := r.Read(ctx, path, members)
	return set, err
}

// Read is GetRaceResults that also reports how the layout was detected.
func (r *DocumentRepository) Read(ctx context.Context, path string, members []model.Member) (record.Set, formats.Detection, error) {
	if strings.TrimSpace(path) == "" {
		return nil, formats.Detection{}, fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}

	start := time.Now()
	pages, err := extract.Extract(ctx, path, r.extractOptions()...)
	metrics.RecordStageLatency("extract", float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordFileProcessed("unknown", outcomeFailed)
		if errors.Is(err, extract.ErrNotFound) {
			return nil, formats.Detection{}, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
		}
		return nil, formats.Detection{}, fmt.Errorf("read %s: %w", path, err)
	}

	doc := formats.Document{Pages: pages, Filename: filepath.Base(path), Members: members}
	set, det, err := r.detector.Parse(ctx, doc)
	if err != nil {
		metrics.RecordFileProcessed(det.Parser.Name(), outcomeFailed)
		return nil, det, fmt.Errorf("parse %s: %w", path, err)
	}

	n := len(set.Participants())
	metrics.RecordFileProcessed(det.Parser.Name(), outcomeOK)
	metrics.RecordRecordsEmitted(det.Parser.Name(), n)
	r.log.Info(ctx, "result file read",
		logger.String("file", doc.Filename),
		logger.String("format", det.Parser.Name()),
		logger.Bool("fallback", det.Fallback),
		logger.Int("records", n))
	return set, det, nil
}

func (r *DocumentRepository) extractOptions() []extract.Option {
	opts := []extract.Option{extract.WithLogger(r.log)}
	if r.rowTolerance > 0 {
		opts = append(opts, extract.WithRowTolerance(r.rowTolerance))
	}
	if r.wordGap > 0 {
		opts = append(opts, extract.WithWordGap(r.wordGap))
	}
	return opts
}

// Factory hands out the repository serving a given result file.
type Factory struct {
	documents *DocumentRepository
}

// NewFactory creates a factory sharing one document repository.
func NewFactory(opts ...Option) *Factory {
	return &Factory{documents: NewDocumentRepository(opts...)}
}

// For returns the repository for path, or ErrInvalidArgument when its file
// type is not supported.
func (f *Factory) For(path string) (*DocumentRepository, error) {
	if _, err := extract.ForPath(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidArgument, filepath.Base(path), err)
	}
	return f.documents, nil
}

// Supported reports whether path has a result file extension.
func Supported(path string) bool {
	_, err := extract.ForPath(path)
	return err == nil
}
