package handler

import (
	"context"
	"log/slog"

	"github.com/cliplens/cliplens/internal/store"
)

// TaskPublisher enqueues a serialized task message. Satisfied by the
// rabbitmq client.
type TaskPublisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// ResultCache is an optional read cache of terminal job records. Satisfied
// by the redis client.
type ResultCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Store     store.Store
	Publisher TaskPublisher
	Cache     ResultCache
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger    *slog.Logger
	store     store.Store
	publisher TaskPublisher
	cache     ResultCache
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:    deps.Logger,
		store:     deps.Store,
		publisher: deps.Publisher,
		cache:     deps.Cache,
	}
}
