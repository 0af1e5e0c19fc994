package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/racerank/internal/adapters/results"
	"github.com/okian/racerank/internal/domain/types"
	"github.com/okian/racerank/pkg/logger"
)

// jobNamespace scopes the content-derived job ids.
var jobNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("racerank/jobs"))

// Report is the result of a batch run.
type Report struct {
	Submissions []Submission
	Standings   []types.Standing
	Stats       Stats
}

// Run submits every result file of cfg.Dir, waits for the jobs and fetches
// the standings. The standings table is written to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) (*Report, error) {
	c := cfg.withDefaults()
	log := logger.Get().Named("batch")
	report := &Report{Stats: Stats{StartTime: time.Now()}}

	log.Info(ctx, "starting racerank batch",
		logger.String("baseURL", c.BaseURL),
		logger.String("dir", c.Dir),
		logger.Int("workers", c.Workers),
		logger.Duration("timeout", c.Timeout))

	files, err := Files(c.Dir)
	if err != nil {
		return nil, err
	}
	report.Stats.Files = len(files)

	client := NewClient(c.BaseURL, c.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, err
	}

	report.Submissions = submitFiles(ctx, client, &c, files, log)
	waitForJobs(ctx, client, &c, report.Submissions, log)

	standings, err := client.Standings(ctx, c.TopN)
	if err != nil {
		return report, fmt.Errorf("standings retrieval failed: %w", err)
	}
	report.Standings = standings

	tally(report)
	report.Stats.EndTime = time.Now()
	report.Stats.Duration = report.Stats.EndTime.Sub(report.Stats.StartTime)

	if out != nil {
		if err := RenderJobs(out, report.Submissions); err != nil {
			return report, err
		}
		if err := RenderStandings(out, report.Standings); err != nil {
			return report, err
		}
	}
	displayFinalStats(ctx, log, &report.Stats)
	return report, nil
}

// Files lists the supported result files of dir, sorted by name.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !results.Supported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}
	sort.Strings(files)
	return files, nil
}

// JobID derives a stable job id from the file content so that uploading the
// same file twice is reported as a duplicate.
func JobID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return uuid.NewSHA1(jobNamespace, data).String(), nil
}

// submitFiles uploads files concurrently, keeping the input order in the result.
func submitFiles(ctx context.Context, client *Client, cfg *Config, files []string, log logger.Logger) []Submission {
	subs := make([]Submission, len(files))
	indices := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				subs[idx] = submitFile(ctx, client, cfg, files[idx])
				if cfg.Verbose {
					log.Info(ctx, "file submitted",
						logger.String("file", filepath.Base(files[idx])),
						logger.String("job", subs[idx].JobID),
						logger.Bool("duplicate", subs[idx].Result.Duplicate))
				}
			}
		}()
	}

	go func() {
		defer close(indices)
		for i := range files {
			select {
			case <-ctx.Done():
				return
			case indices <- i:
			}
		}
	}()

	wg.Wait()
	for i := range subs {
		if subs[i].File == "" {
			subs[i] = Submission{File: files[i], Err: ctx.Err()}
		}
	}
	return subs
}

func submitFile(ctx context.Context, client *Client, cfg *Config, path string) Submission {
	sub := Submission{File: path}
	id, err := JobID(path)
	if err != nil {
		sub.Err = err
		return sub
	}
	sub.JobID = id
	sub.Result, sub.Err = client.Upload(ctx, path, id, cfg.RaceName, cfg.DistanceKm)
	return sub
}

// waitForJobs polls every accepted job until it finishes or cfg.Wait elapses.
func waitForJobs(ctx context.Context, client *Client, cfg *Config, subs []Submission, log logger.Logger) {
	waitCtx, cancel := context.WithTimeout(ctx, cfg.Wait)
	defer cancel()

	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		pending := 0
		for i := range subs {
			s := &subs[i]
			if s.Err != nil || finished(s.Status.State) {
				continue
			}
			st, err := client.Job(waitCtx, s.JobID)
			if err != nil {
				log.Debug(ctx, "job status unavailable", logger.String("job", s.JobID), logger.Error(err))
				pending++
				continue
			}
			s.Status = st
			if !finished(st.State) {
				pending++
			}
		}
		if pending == 0 {
			return
		}
		select {
		case <-waitCtx.Done():
			log.Warn(ctx, "gave up waiting for jobs", logger.Int("pending", pending))
			return
		case <-ticker.C:
		}
	}
}

func finished(s types.JobState) bool {
	return s == types.JobDone || s == types.JobFailed
}

func tally(r *Report) {
	st := &r.Stats
	for _, s := range r.Submissions {
		switch {
		case s.Err != nil:
			st.Rejected++
			continue
		case s.Result.Duplicate:
			st.Duplicate++
		default:
			st.Accepted++
		}
		switch s.Status.State {
		case types.JobDone:
			st.Done++
		case types.JobFailed:
			st.Failed++
		}
	}
	st.Standings = len(r.Standings)
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	log.Info(ctx, "final statistics",
		logger.Int("files", stats.Files),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("done", stats.Done),
		logger.Int("failed", stats.Failed),
		logger.Int("standings", stats.Standings),
		logger.Duration("duration", stats.Duration))
}
