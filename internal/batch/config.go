// Package batch submits a directory of result files to a running racerank
// server, waits for the parse jobs and reports the season standings.
package batch

import (
	"time"

	"github.com/okian/racerank/internal/domain/types"
)

// Defaults used when a Config field is left zero.
const (
	DefaultWorkers      = 4
	DefaultTimeout      = 30 * time.Second
	DefaultWait         = 2 * time.Minute
	DefaultTopN         = 50
	defaultPollInterval = 200 * time.Millisecond
)

// Config holds configuration for a batch run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Dir        string        // Directory holding the result files
	Workers    int           // Number of concurrent uploads
	Timeout    time.Duration // HTTP request timeout
	Wait       time.Duration // How long to wait for jobs to finish
	TopN       int           // Number of standings rows to fetch
	RaceName   string        // Race name applied to every file, if set
	DistanceKm int           // Distance applied to every file, if set
	Verbose    bool          // Log every job
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Workers < 1 {
		out.Workers = DefaultWorkers
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.Wait <= 0 {
		out.Wait = DefaultWait
	}
	if out.TopN < 1 {
		out.TopN = DefaultTopN
	}
	return out
}

// Submission is the outcome of uploading one file.
type Submission struct {
	File   string
	JobID  string
	Result types.SubmitResult
	Status types.JobStatus
	Err    error
}

// Stats holds run statistics.
type Stats struct {
	Files     int
	Accepted  int
	Duplicate int
	Rejected  int
	Done      int
	Failed    int
	Standings int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
