package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliplens/cliplens/internal/job"
)

func newPendingJob(id string) *job.Job {
	return job.New(id, "https://example.com/video/123", time.Now())
}

func TestMemoryStore_PutAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	j := newPendingJob("job-1")
	require.NoError(t, s.Put(ctx, j))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, job.StatusPending, got.Status)
	assert.Equal(t, "https://example.com/video/123", got.URL)
}

func TestMemoryStore_PutConflict(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newPendingJob("job-1")))

	err := s.Put(ctx, newPendingJob("job-1"))
	assert.ErrorIs(t, err, job.ErrAlreadyExists)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "no-such-job")
	assert.ErrorIs(t, err, job.ErrNotFound)
}

func TestMemoryStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Put(ctx, newPendingJob("job-1")))

		require.NoError(t, s.UpdateStatus(ctx, "job-1", job.StatusProcessing, job.Update{}))

		got, err := s.Get(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, job.StatusProcessing, got.Status)
		assert.Nil(t, got.Transcript)
		assert.Nil(t, got.Summary)
		assert.Equal(t, "https://example.com/video/123", got.URL)
	})

	t.Run("completion persists transcript and summary", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Put(ctx, newPendingJob("job-1")))

		summary := "a short summary"
		upd := job.Update{
			Transcript: &job.Transcript{Text: "hello world", Language: "en", Title: "Demo"},
			Summary:    &summary,
		}
		require.NoError(t, s.UpdateStatus(ctx, "job-1", job.StatusCompleted, upd))

		got, err := s.Get(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, job.StatusCompleted, got.Status)
		require.NotNil(t, got.Transcript)
		assert.Equal(t, "hello world", got.Transcript.Text)
		require.NotNil(t, got.Summary)
		assert.Equal(t, "a short summary", *got.Summary)
	})

	t.Run("unknown job", func(t *testing.T) {
		s := NewMemoryStore()
		err := s.UpdateStatus(ctx, "no-such-job", job.StatusProcessing, job.Update{})
		assert.ErrorIs(t, err, job.ErrNotFound)
	})

	t.Run("no transition out of terminal state", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Put(ctx, newPendingJob("job-1")))
		require.NoError(t, s.UpdateStatus(ctx, "job-1", job.StatusCompleted, job.Update{}))

		err := s.UpdateStatus(ctx, "job-1", job.StatusProcessing, job.Update{})
		assert.ErrorIs(t, err, job.ErrInvalidTransition)

		err = s.UpdateStatus(ctx, "job-1", job.StatusError, job.Update{})
		assert.ErrorIs(t, err, job.ErrInvalidTransition)
	})

	t.Run("re-asserting the same terminal status is allowed", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Put(ctx, newPendingJob("job-1")))
		require.NoError(t, s.UpdateStatus(ctx, "job-1", job.StatusCompleted, job.Update{}))

		// Redelivered messages may overwrite results with equivalent output.
		summary := "same summary again"
		err := s.UpdateStatus(ctx, "job-1", job.StatusCompleted, job.Update{Summary: &summary})
		require.NoError(t, err)

		got, err := s.Get(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, "same summary again", *got.Summary)
	})
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, newPendingJob("job-1")))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	got.Status = job.StatusError

	again, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, job.StatusPending, again.Status)
}

func TestMemoryStore_Concurrency(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", i)
			_ = s.Put(ctx, newPendingJob(id))
			_ = s.UpdateStatus(ctx, id, job.StatusProcessing, job.Update{})
			_, _ = s.Get(ctx, id)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		got, err := s.Get(ctx, fmt.Sprintf("job-%d", i))
		require.NoError(t, err)
		assert.Equal(t, job.StatusProcessing, got.Status)
	}
}
