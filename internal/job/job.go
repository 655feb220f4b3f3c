package job

import (
	"time"
)

// Status values a job moves through. Transitions are monotonic:
// pending -> processing -> completed|error. Terminal states never change.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Transcript is the structured output of a transcription provider.
type Transcript struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Title    string `json:"title,omitempty"`
}

// Job tracks a single video-summarization request from submission to its
// terminal outcome. JobID and URL are immutable after creation; the worker
// owns all later mutations.
type Job struct {
	JobID        string      `json:"jobId" db:"job_id"`
	URL          string      `json:"url" db:"url"`
	Status       string      `json:"status" db:"status"`
	Transcript   *Transcript `json:"transcript"`
	Summary      *string     `json:"summary" db:"summary"`
	ErrorMessage string      `json:"-" db:"error_message"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

// New creates a pending job for the given URL.
func New(jobID, url string, now time.Time) *Job {
	return &Job{
		JobID:     jobID,
		URL:       url,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusError
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusCompleted || to == StatusError
	case StatusProcessing:
		return to == StatusCompleted || to == StatusError
	default:
		return false
	}
}

// Update carries the fields UpdateStatus may set alongside the status itself.
// Nil fields are left untouched in the store.
type Update struct {
	Transcript   *Transcript
	Summary      *string
	ErrorMessage string
}
