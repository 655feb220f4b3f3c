// Package poller is a Go client for the job API. It submits a page URL and
// polls the job until it reaches a terminal status, mirroring what the
// browser client does.
package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const defaultInterval = 2 * time.Second

var (
	// ErrPollInProgress is returned when Summarize is called for a page
	// while an earlier call for another page is still polling.
	ErrPollInProgress = errors.New("a summarization is already in progress")

	// ErrJobFailed is returned when the job reaches error status.
	ErrJobFailed = errors.New("summarization job failed")
)

// Config holds poller configuration
type Config struct {
	BaseURL    string
	Interval   time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Poller submits summarization jobs and polls them to completion. Results
// are cached per page URL so revisiting a page does not resubmit the job.
type Poller struct {
	baseURL    string
	interval   time.Duration
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	active  bool
	results map[string]string
}

// New creates a poller for the given API base URL.
func New(cfg Config) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		baseURL:    cfg.BaseURL,
		interval:   interval,
		httpClient: httpClient,
		logger:     logger,
		results:    make(map[string]string),
	}
}

type jobRecord struct {
	JobID   string  `json:"jobId"`
	Status  string  `json:"status"`
	Summary *string `json:"summary"`
}

type submitResponse struct {
	JobID string `json:"jobId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Summarize submits the page URL and polls until the job is terminal,
// returning the summary text. A cached result for the same page URL is
// returned without contacting the server. Polling continues until the job
// finishes or ctx is canceled; the server owns the timeout policy.
func (p *Poller) Summarize(ctx context.Context, pageURL string) (string, error) {
	p.mu.Lock()
	if summary, ok := p.results[pageURL]; ok {
		p.mu.Unlock()
		p.logger.Debug("Returning cached summary",
			slog.String("page_url", pageURL),
		)
		return summary, nil
	}
	if p.active {
		p.mu.Unlock()
		return "", ErrPollInProgress
	}
	p.active = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.active = false
		p.mu.Unlock()
	}()

	jobID, err := p.submit(ctx, pageURL)
	if err != nil {
		return "", err
	}

	p.logger.Info("Job submitted, polling",
		slog.String("job_id", jobID),
		slog.String("page_url", pageURL),
		slog.Duration("interval", p.interval),
	)

	summary, err := p.poll(ctx, jobID)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.results[pageURL] = summary
	p.mu.Unlock()

	return summary, nil
}

// submit creates the job and returns its id.
func (p *Poller) submit(ctx context.Context, pageURL string) (string, error) {
	body, err := json.Marshal(map[string]string{"url": pageURL})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit job: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var eresp errorResponse
		if json.Unmarshal(data, &eresp) == nil && eresp.Error != "" {
			return "", fmt.Errorf("job submission rejected: %s", eresp.Error)
		}
		return "", fmt.Errorf("job submission failed with status %d", resp.StatusCode)
	}

	var sresp submitResponse
	if err := json.Unmarshal(data, &sresp); err != nil {
		return "", fmt.Errorf("failed to parse submit response: %w", err)
	}
	if sresp.JobID == "" {
		return "", fmt.Errorf("submit response missing job id")
	}

	return sresp.JobID, nil
}

// poll fetches the job on a fixed interval until it is terminal.
func (p *Poller) poll(ctx context.Context, jobID string) (string, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		record, err := p.fetch(ctx, jobID)
		if err != nil {
			return "", err
		}

		switch record.Status {
		case "completed":
			if record.Summary == nil {
				return "", fmt.Errorf("completed job %s has no summary", jobID)
			}
			return *record.Summary, nil
		case "error":
			return "", ErrJobFailed
		default:
			p.logger.Debug("Job not terminal yet",
				slog.String("job_id", jobID),
				slog.String("status", record.Status),
			)
		}
	}
}

// fetch reads the current job record.
func (p *Poller) fetch(ctx context.Context, jobID string) (*jobRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("job fetch failed with status %d", resp.StatusCode)
	}

	var record jobRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to parse job record: %w", err)
	}

	return &record, nil
}
