package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cliplens/cliplens/internal/provider"
	"github.com/cliplens/cliplens/internal/store"
	"github.com/cliplens/cliplens/shared/rabbitmq"
)

// ResultCache stores terminal job records for fast status reads. Satisfied by
// the redis client.
type ResultCache interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Store         store.Store
	RabbitClient  *rabbitmq.Client
	Cache         ResultCache
	Transcriber   provider.Transcriber
	Summarizer    provider.Summarizer
	Concurrency   int
	JobTimeout    time.Duration
	PrefetchCount int
	CacheTTL      time.Duration
}

// Worker consumes task messages and drives jobs to a terminal status.
type Worker struct {
	logger        *slog.Logger
	store         store.Store
	rabbitClient  *rabbitmq.Client
	cache         ResultCache
	transcriber   provider.Transcriber
	summarizer    provider.Summarizer
	concurrency   int
	jobTimeout    time.Duration
	prefetchCount int
	cacheTTL      time.Duration
	workerID      string
	jobsChan      chan *jobDelivery
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:        cfg.Logger,
		store:         cfg.Store,
		rabbitClient:  cfg.RabbitClient,
		cache:         cfg.Cache,
		transcriber:   cfg.Transcriber,
		summarizer:    cfg.Summarizer,
		concurrency:   cfg.Concurrency,
		jobTimeout:    cfg.JobTimeout,
		prefetchCount: cfg.PrefetchCount,
		cacheTTL:      cfg.CacheTTL,
		workerID:      fmt.Sprintf("worker-%s", uuid.New().String()[:8]),
		jobsChan:      make(chan *jobDelivery, cfg.Concurrency),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing jobs. It blocks until ctx is
// canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)

	go w.startMessageDispatcher(ctx, deliveries)

	<-ctx.Done()
	w.logger.Info("Worker context canceled, stopping...")

	return nil
}

// Stop gracefully stops the worker, waiting for in-flight jobs to finish.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
