package store

import (
	"context"
	"sync"
	"time"

	"github.com/cliplens/cliplens/internal/job"
)

// MemoryStore is an in-memory Store used in tests and local development. It
// mirrors the PostgresStore contract, including the terminal-state guard.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*job.Job
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*job.Job),
	}
}

// Put inserts a new job record.
func (s *MemoryStore) Put(ctx context.Context, j *job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[j.JobID]; exists {
		return job.ErrAlreadyExists
	}

	cp := *j
	s.jobs[j.JobID] = &cp
	return nil
}

// Get returns a copy of the job record for the given id.
func (s *MemoryStore) Get(ctx context.Context, jobID string) (*job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, exists := s.jobs[jobID]
	if !exists {
		return nil, job.ErrNotFound
	}

	cp := *j
	return &cp, nil
}

// UpdateStatus applies a partial status update.
func (s *MemoryStore) UpdateStatus(ctx context.Context, jobID, status string, upd job.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.jobs[jobID]
	if !exists {
		return job.ErrNotFound
	}

	if job.IsTerminal(j.Status) && j.Status != status {
		return job.ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	if upd.Transcript != nil {
		t := *upd.Transcript
		j.Transcript = &t
	}
	if upd.Summary != nil {
		sm := *upd.Summary
		j.Summary = &sm
	}
	if upd.ErrorMessage != "" {
		j.ErrorMessage = upd.ErrorMessage
	}

	return nil
}
