package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cliplens/cliplens/internal/api/dto"
	"github.com/cliplens/cliplens/internal/job"
)

// CreateJob handles POST /jobs
//
// Creates a pending job record and enqueues a task for the worker. The store
// write completes before the enqueue so any worker that dequeues the message
// can always find the record.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		h.logger.Warn("Job submission rejected, missing url")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "URL is required"})
		return
	}

	j := job.New(uuid.New().String(), req.URL, time.Now().UTC())

	if err := h.store.Put(c.Request.Context(), j); err != nil {
		h.logger.Error("Failed to create job record",
			slog.String("job_id", j.JobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
		return
	}

	body, err := json.Marshal(job.TaskMessage{JobID: j.JobID, URL: j.URL})
	if err != nil {
		h.logger.Error("Failed to marshal task message",
			slog.String("job_id", j.JobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
		return
	}

	if err := h.publisher.PublishWithRetry(c.Request.Context(), body, "application/json"); err != nil {
		// The record stays pending forever; there is no automatic
		// remediation for a failed enqueue after a durable write.
		h.logger.Error("Failed to enqueue job, record left pending",
			slog.String("job_id", j.JobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
		return
	}

	h.logger.Info("Job submitted",
		slog.String("job_id", j.JobID),
		slog.String("url", j.URL),
	)

	c.JSON(http.StatusCreated, dto.CreateJobResponse{JobID: j.JobID})
}

// GetJob handles GET /jobs/:job_id
//
// Returns the full job record. Any holder of a job id may read it; ids are
// unguessable random tokens.
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	if h.cache != nil {
		var cached job.Job
		found, err := h.cache.GetJSON(c.Request.Context(), cacheKey(jobID), &cached)
		if err != nil {
			h.logger.Warn("Result cache lookup failed",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
		} else if found {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	j, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Job not found"})
			return
		}

		h.logger.Error("Failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, j)
}

func cacheKey(jobID string) string {
	return "job:" + jobID
}
