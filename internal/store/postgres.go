package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cliplens/cliplens/internal/job"
	"github.com/cliplens/cliplens/shared/postgresql"
)

const pgUniqueViolation = "23505"

// PostgresStore persists jobs in the jobs table.
type PostgresStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pg *postgresql.Client, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     pg.GetDB(),
		logger: logger,
	}
}

// Put inserts a new job record.
func (s *PostgresStore) Put(ctx context.Context, j *job.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, url, status, transcript, summary,
			error_message, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8
		)
	`

	transcriptJSON, err := marshalTranscript(j.Transcript)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		query,
		j.JobID,
		j.URL,
		j.Status,
		transcriptJSON,
		j.Summary,
		j.ErrorMessage,
		j.CreatedAt,
		j.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return job.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// Get returns the job record for the given id.
func (s *PostgresStore) Get(ctx context.Context, jobID string) (*job.Job, error) {
	query := `
		SELECT job_id, url, status, transcript, summary,
		       error_message, created_at, updated_at
		FROM jobs
		WHERE job_id = $1
	`

	var j job.Job
	var transcript []byte
	var summary sql.NullString

	err := s.db.QueryRowContext(ctx, query, jobID).Scan(
		&j.JobID,
		&j.URL,
		&j.Status,
		&transcript,
		&summary,
		&j.ErrorMessage,
		&j.CreatedAt,
		&j.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, job.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if len(transcript) > 0 {
		var t job.Transcript
		if err := json.Unmarshal(transcript, &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
		}
		j.Transcript = &t
	}

	if summary.Valid {
		j.Summary = &summary.String
	}

	return &j, nil
}

// UpdateStatus sets the status and updated_at, applying any result fields
// carried by upd. A nil transcript/summary leaves the stored value untouched.
func (s *PostgresStore) UpdateStatus(ctx context.Context, jobID, status string, upd job.Update) error {
	query := `
		UPDATE jobs
		SET status = $2,
		    transcript = COALESCE($3, transcript),
		    summary = COALESCE($4, summary),
		    error_message = COALESCE($5, error_message),
		    updated_at = NOW()
		WHERE job_id = $1
		  AND (status NOT IN ($6, $7) OR status = $2)
	`

	transcriptJSON, err := marshalTranscript(upd.Transcript)
	if err != nil {
		return err
	}

	var errorMessage *string
	if upd.ErrorMessage != "" {
		errorMessage = &upd.ErrorMessage
	}

	result, err := s.db.ExecContext(ctx, query,
		jobID,
		status,
		transcriptJSON,
		upd.Summary,
		errorMessage,
		job.StatusCompleted,
		job.StatusError,
	)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Either the job is missing or it is already terminal.
		if _, getErr := s.Get(ctx, jobID); getErr != nil {
			return getErr
		}
		return job.ErrInvalidTransition
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)

	return nil
}

func marshalTranscript(t *job.Transcript) ([]byte, error) {
	if t == nil {
		return nil, nil
	}

	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transcript: %w", err)
	}
	return data, nil
}
