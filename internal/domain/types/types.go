// Package types contains common types used across the application
package types

import "time"

// Standing is one row of the season standings: a member's totals over every race.
type Standing struct {
	Rank         int    `json:"rank"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email,omitempty"`
	Points       int    `json:"points"`
	BonusKm      int    `json:"bonus_km"`
	Races        int    `json:"races"`
	IsMember     bool   `json:"is_member"`
	IsChallenger bool   `json:"is_challenger"`
	External     bool   `json:"external,omitempty"`
}

// JobState is the lifecycle state of a parse job.
type JobState string

const (
	JobPending JobState = "pending"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// JobStatus reports a submitted result file.
type JobStatus struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	State       JobState  `json:"state"`
	Entries     int       `json:"entries"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
}

// SubmitResult acknowledges a submission.
type SubmitResult struct {
	JobID     string   `json:"job_id"`
	State     JobState `json:"state"`
	Duplicate bool     `json:"duplicate"`
}

// ClassificationEntry is one (member, race) row of the classification.
type ClassificationEntry struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email,omitempty"`
	Race         string  `json:"race"`
	DistanceKm   int     `json:"distance_km"`
	Points       int     `json:"points"`
	BonusKm      int     `json:"bonus_km"`
	RaceTime     string  `json:"race_time,omitempty"`
	TimePerKm    string  `json:"time_per_km,omitempty"`
	Position     int     `json:"position,omitempty"`
	Team         string  `json:"team,omitempty"`
	Speed        float64 `json:"speed,omitempty"`
	Sex          string  `json:"sex,omitempty"`
	Category     string  `json:"category,omitempty"`
	IsMember     bool    `json:"is_member"`
	IsChallenger bool    `json:"is_challenger"`
	External     bool    `json:"external,omitempty"`
}
