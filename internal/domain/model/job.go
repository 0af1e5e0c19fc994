package model

import "time"

// Job asks for one result file to be parsed into the season classification.
// An empty Race name or zero distance is taken from the file itself.
type Job struct {
	ID          string
	Path        string
	Filename    string
	Race        RaceDistance
	SubmittedAt time.Time
	// Upload marks a server-side copy whose directory is removed once the
	// job has run.
	Upload bool
}
