package store

import (
	"context"

	"github.com/cliplens/cliplens/internal/job"
)

// Store is the durable key-value record of job state, keyed by job id.
//
// UpdateStatus performs a partial, conditional update: it sets the status and
// updated_at, applies whichever result fields the update carries, and leaves
// everything else untouched. Updates that would leave a terminal state are
// rejected with job.ErrInvalidTransition, except for re-asserting the same
// terminal status, which redelivered messages may legitimately do.
type Store interface {
	Put(ctx context.Context, j *job.Job) error
	Get(ctx context.Context, jobID string) (*job.Job, error)
	UpdateStatus(ctx context.Context, jobID, status string, upd job.Update) error
}
