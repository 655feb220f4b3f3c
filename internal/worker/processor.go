package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cliplens/cliplens/internal/job"
)

// processJob drives a single job from pending to a terminal status. It is
// safe to call more than once for the same job: deliveries are at-least-once,
// so a redelivered message for an already-terminal job is skipped.
//
// A nil return acks the delivery. Provider failures are absorbed into the
// job's error status and still return nil; only infrastructure failures that
// would lose the result return an error for the nack decision.
func (w *Worker) processJob(ctx context.Context, msg job.TaskMessage) error {
	w.logger.Info("Processing job",
		slog.String("job_id", msg.JobID),
		slog.String("url", msg.URL),
	)

	j, err := w.store.Get(ctx, msg.JobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			// The record is written before the message is published, so a
			// missing job means the record was deleted out of band. Nothing
			// to retry.
			w.logger.Error("Task message references unknown job, discarding",
				slog.String("job_id", msg.JobID),
			)
			return fmt.Errorf("unknown job %s: %w", msg.JobID, err)
		}
		return newRetryableError(fmt.Errorf("failed to load job %s: %w", msg.JobID, err))
	}

	if job.IsTerminal(j.Status) {
		w.logger.Info("Job already in terminal status, skipping redelivery",
			slog.String("job_id", msg.JobID),
			slog.String("status", j.Status),
		)
		return nil
	}

	// Best effort: a failure to record the intermediate status does not stop
	// the pipeline.
	if err := w.store.UpdateStatus(ctx, msg.JobID, job.StatusProcessing, job.Update{}); err != nil {
		w.logger.Warn("Failed to mark job as processing",
			slog.String("job_id", msg.JobID),
			slog.String("error", err.Error()),
		)
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	transcript, err := w.transcriber.Transcribe(jobCtx, msg.URL)
	if err != nil {
		w.markError(ctx, msg.JobID, fmt.Sprintf("transcription failed: %s", err.Error()))
		return nil
	}

	summary, err := w.summarizer.Summarize(jobCtx, transcript.Text)
	if err != nil {
		w.markError(ctx, msg.JobID, fmt.Sprintf("summarization failed: %s", err.Error()))
		return nil
	}

	upd := job.Update{
		Transcript: transcript,
		Summary:    &summary,
	}
	if err := w.store.UpdateStatus(ctx, msg.JobID, job.StatusCompleted, upd); err != nil {
		// The result exists but was not persisted. Requeue so a retry can
		// complete the write; the terminal-state guard makes the retry safe.
		return newRetryableError(fmt.Errorf("failed to store completed job %s: %w", msg.JobID, err))
	}

	w.logger.Info("Job completed",
		slog.String("job_id", msg.JobID),
	)

	w.cacheResult(ctx, msg.JobID)

	return nil
}

// markError moves the job to error status. A failed write here is logged and
// the delivery is still acked; the client sees a stalled processing job
// rather than a poisoned queue.
func (w *Worker) markError(ctx context.Context, jobID, message string) {
	w.logger.Error("Job failed",
		slog.String("job_id", jobID),
		slog.String("error", message),
	)

	upd := job.Update{ErrorMessage: message}
	if err := w.store.UpdateStatus(ctx, jobID, job.StatusError, upd); err != nil {
		w.logger.Error("Failed to mark job as errored",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}

	w.cacheResult(ctx, jobID)
}

// cacheResult writes the terminal record to the result cache. Best effort;
// the store stays the source of truth.
func (w *Worker) cacheResult(ctx context.Context, jobID string) {
	if w.cache == nil {
		return
	}

	j, err := w.store.Get(ctx, jobID)
	if err != nil {
		w.logger.Warn("Failed to load job for result cache",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := w.cache.SetJSON(ctx, "job:"+jobID, j, w.cacheTTL); err != nil {
		w.logger.Warn("Failed to cache job result",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}
