package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliplens/cliplens/internal/job"
	"github.com/cliplens/cliplens/internal/provider"
	"github.com/cliplens/cliplens/internal/store"
)

type fakeTranscriber struct {
	mu         sync.Mutex
	calls      int
	transcript *job.Transcript
	err        error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, url string) (*job.Transcript, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.transcript, nil
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSummarizer struct {
	mu      sync.Mutex
	calls   int
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func (f *fakeSummarizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeResultCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
}

func (f *fakeResultCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = make(map[string]interface{})
	}
	f.entries[key] = value
	return nil
}

// failingStore wraps a Store and fails UpdateStatus calls for a given status.
type failingStore struct {
	store.Store
	failStatus string
}

func (s *failingStore) UpdateStatus(ctx context.Context, jobID, status string, upd job.Update) error {
	if status == s.failStatus {
		return errors.New("database unavailable")
	}
	return s.Store.UpdateStatus(ctx, jobID, status, upd)
}

func newTestWorker(st store.Store, tr provider.Transcriber, sm provider.Summarizer, cache ResultCache) *Worker {
	return NewWorker(&Config{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:       st,
		Cache:       cache,
		Transcriber: tr,
		Summarizer:  sm,
		Concurrency: 1,
		JobTimeout:  5 * time.Second,
		CacheTTL:    time.Hour,
	})
}

func seedJob(t *testing.T, st store.Store, jobID, url string) {
	t.Helper()
	j := job.New(jobID, url, time.Now().UTC())
	require.NoError(t, st.Put(context.Background(), j))
}

func TestWorker_ProcessJob(t *testing.T) {
	msg := job.TaskMessage{JobID: "job-1", URL: "https://www.tiktok.com/@user/video/1"}

	t.Run("success completes job with transcript and summary", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedJob(t, st, msg.JobID, msg.URL)

		tr := &fakeTranscriber{transcript: &job.Transcript{Text: "full transcript", Language: "en"}}
		sm := &fakeSummarizer{summary: "a short summary"}
		cache := &fakeResultCache{}
		w := newTestWorker(st, tr, sm, cache)

		require.NoError(t, w.processJob(context.Background(), msg))

		j, err := st.Get(context.Background(), msg.JobID)
		require.NoError(t, err)
		assert.Equal(t, job.StatusCompleted, j.Status)
		require.NotNil(t, j.Transcript)
		assert.Equal(t, "full transcript", j.Transcript.Text)
		require.NotNil(t, j.Summary)
		assert.Equal(t, "a short summary", *j.Summary)

		assert.Contains(t, cache.entries, "job:job-1")
	})

	t.Run("transcription failure ends job in error status and acks", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedJob(t, st, msg.JobID, msg.URL)

		tr := &fakeTranscriber{err: &provider.TranscriptionError{Err: errors.New("no transcript available")}}
		sm := &fakeSummarizer{summary: "unused"}
		w := newTestWorker(st, tr, sm, nil)

		require.NoError(t, w.processJob(context.Background(), msg))

		j, err := st.Get(context.Background(), msg.JobID)
		require.NoError(t, err)
		assert.Equal(t, job.StatusError, j.Status)
		assert.Contains(t, j.ErrorMessage, "transcription failed")
		assert.Nil(t, j.Summary)
		assert.Equal(t, 0, sm.callCount())
	})

	t.Run("summarization failure ends job in error status and acks", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedJob(t, st, msg.JobID, msg.URL)

		tr := &fakeTranscriber{transcript: &job.Transcript{Text: "full transcript", Language: "en"}}
		sm := &fakeSummarizer{err: &provider.SummarizationError{Err: errors.New("model overloaded")}}
		w := newTestWorker(st, tr, sm, nil)

		require.NoError(t, w.processJob(context.Background(), msg))

		j, err := st.Get(context.Background(), msg.JobID)
		require.NoError(t, err)
		assert.Equal(t, job.StatusError, j.Status)
		assert.Contains(t, j.ErrorMessage, "summarization failed")
	})

	t.Run("redelivery of terminal job is skipped without provider calls", func(t *testing.T) {
		st := store.NewMemoryStore()
		seedJob(t, st, msg.JobID, msg.URL)

		tr := &fakeTranscriber{transcript: &job.Transcript{Text: "full transcript", Language: "en"}}
		sm := &fakeSummarizer{summary: "a short summary"}
		w := newTestWorker(st, tr, sm, nil)

		require.NoError(t, w.processJob(context.Background(), msg))
		require.NoError(t, w.processJob(context.Background(), msg))

		assert.Equal(t, 1, tr.callCount())
		assert.Equal(t, 1, sm.callCount())

		j, err := st.Get(context.Background(), msg.JobID)
		require.NoError(t, err)
		assert.Equal(t, job.StatusCompleted, j.Status)
	})

	t.Run("unknown job is a non-retryable error", func(t *testing.T) {
		st := store.NewMemoryStore()
		w := newTestWorker(st, &fakeTranscriber{}, &fakeSummarizer{}, nil)

		err := w.processJob(context.Background(), msg)
		require.Error(t, err)
		assert.False(t, shouldRequeue(err))
	})

	t.Run("failed completion write is retryable", func(t *testing.T) {
		base := store.NewMemoryStore()
		seedJob(t, base, msg.JobID, msg.URL)
		st := &failingStore{Store: base, failStatus: job.StatusCompleted}

		tr := &fakeTranscriber{transcript: &job.Transcript{Text: "full transcript", Language: "en"}}
		sm := &fakeSummarizer{summary: "a short summary"}
		w := newTestWorker(st, tr, sm, nil)

		err := w.processJob(context.Background(), msg)
		require.Error(t, err)
		assert.True(t, shouldRequeue(err))
	})

	t.Run("failed processing transition does not stop the pipeline", func(t *testing.T) {
		base := store.NewMemoryStore()
		seedJob(t, base, msg.JobID, msg.URL)
		st := &failingStore{Store: base, failStatus: job.StatusProcessing}

		tr := &fakeTranscriber{transcript: &job.Transcript{Text: "full transcript", Language: "en"}}
		sm := &fakeSummarizer{summary: "a short summary"}
		w := newTestWorker(st, tr, sm, nil)

		require.NoError(t, w.processJob(context.Background(), msg))

		j, err := base.Get(context.Background(), msg.JobID)
		require.NoError(t, err)
		assert.Equal(t, job.StatusCompleted, j.Status)
	})
}

func TestParseTaskMessage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"job_id":"job-1","url":"https://example.com/v/1"}`},
		{name: "invalid json", body: `{"job_id":`, wantErr: true},
		{name: "missing job_id", body: `{"url":"https://example.com/v/1"}`, wantErr: true},
		{name: "missing url", body: `{"job_id":"job-1"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := parseTaskMessage([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "job-1", msg.JobID)
		})
	}
}

func TestShouldRequeue(t *testing.T) {
	assert.True(t, shouldRequeue(newRetryableError(errors.New("db down"))))
	assert.False(t, shouldRequeue(errors.New("unknown job")))
}
