package poller

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves the submit/poll endpoints with a scripted status sequence.
type fakeAPI struct {
	mu       sync.Mutex
	statuses []string
	summary  string
	submits  int
	polls    int
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		f.mu.Lock()
		f.submits++
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"jobId": "job-1"})
	})

	mux.HandleFunc("/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status := f.statuses[0]
		if len(f.statuses) > 1 {
			f.statuses = f.statuses[1:]
		}
		f.polls++
		f.mu.Unlock()

		record := map[string]interface{}{
			"jobId":   "job-1",
			"status":  status,
			"summary": nil,
		}
		if status == "completed" {
			record["summary"] = f.summary
		}
		json.NewEncoder(w).Encode(record)
	})

	return mux
}

func (f *fakeAPI) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}

func newTestPoller(baseURL string) *Poller {
	return New(Config{
		BaseURL:  baseURL,
		Interval: 5 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestPoller_Summarize(t *testing.T) {
	t.Run("polls until completed and returns summary", func(t *testing.T) {
		api := &fakeAPI{
			statuses: []string{"pending", "processing", "processing", "completed"},
			summary:  "a short summary",
		}
		srv := httptest.NewServer(api.handler())
		defer srv.Close()

		p := newTestPoller(srv.URL)

		summary, err := p.Summarize(context.Background(), "https://www.tiktok.com/@user/video/1")
		require.NoError(t, err)
		assert.Equal(t, "a short summary", summary)
	})

	t.Run("returns ErrJobFailed on error status", func(t *testing.T) {
		api := &fakeAPI{statuses: []string{"processing", "error"}}
		srv := httptest.NewServer(api.handler())
		defer srv.Close()

		p := newTestPoller(srv.URL)

		_, err := p.Summarize(context.Background(), "https://www.tiktok.com/@user/video/1")
		require.ErrorIs(t, err, ErrJobFailed)
	})

	t.Run("caches result per page and does not resubmit", func(t *testing.T) {
		api := &fakeAPI{statuses: []string{"completed"}, summary: "cached"}
		srv := httptest.NewServer(api.handler())
		defer srv.Close()

		p := newTestPoller(srv.URL)

		first, err := p.Summarize(context.Background(), "https://www.tiktok.com/@user/video/1")
		require.NoError(t, err)

		second, err := p.Summarize(context.Background(), "https://www.tiktok.com/@user/video/1")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, api.submitCount())
	})

	t.Run("rejects concurrent summarization of another page", func(t *testing.T) {
		api := &fakeAPI{statuses: []string{"processing"}}
		srv := httptest.NewServer(api.handler())
		defer srv.Close()

		p := newTestPoller(srv.URL)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			_, err := p.Summarize(ctx, "https://www.tiktok.com/@user/video/1")
			done <- err
		}()

		// Wait until the first call is polling.
		require.Eventually(t, func() bool {
			api.mu.Lock()
			defer api.mu.Unlock()
			return api.polls > 0
		}, time.Second, 5*time.Millisecond)

		_, err := p.Summarize(context.Background(), "https://www.tiktok.com/@user/video/2")
		require.ErrorIs(t, err, ErrPollInProgress)

		cancel()
		require.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		api := &fakeAPI{statuses: []string{"processing"}}
		srv := httptest.NewServer(api.handler())
		defer srv.Close()

		p := newTestPoller(srv.URL)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := p.Summarize(ctx, "https://www.tiktok.com/@user/video/1")
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("surfaces submission rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "URL is required"})
		}))
		defer srv.Close()

		p := newTestPoller(srv.URL)

		_, err := p.Summarize(context.Background(), "https://www.tiktok.com/@user/video/1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "URL is required")
	})
}
