package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cliplens/cliplens/internal/config"
	"github.com/cliplens/cliplens/internal/job"
)

// preferredTrack is the transcript track the hosted API labels English with.
const preferredTrack = "eng-US"

var vttTimestampPattern = regexp.MustCompile(`\d{2}:\d{2}:\d{2}\.\d{3} --> \d{2}:\d{2}:\d{2}\.\d{3}`)

// SubmagicTranscriber fetches transcripts from a hosted transcription API
// that returns WEBVTT tracks keyed by language.
type SubmagicTranscriber struct {
	endpoint string
	client   *http.Client
}

// NewSubmagicTranscriber creates a transcriber against the configured endpoint.
func NewSubmagicTranscriber(cfg config.SubmagicConfig) *SubmagicTranscriber {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &SubmagicTranscriber{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Transcribe posts the video URL and extracts the English transcript track.
func (t *SubmagicTranscriber) Transcribe(ctx context.Context, url string) (*job.Transcript, error) {
	body, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transcript request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TranscriptionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &TranscriptionError{
			Err: fmt.Errorf("transcript API returned status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var result struct {
		VideoTitle  string            `json:"videoTitle"`
		Transcripts map[string]string `json:"transcripts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TranscriptionError{Err: fmt.Errorf("failed to decode transcript response: %w", err)}
	}

	raw, ok := result.Transcripts[preferredTrack]
	if !ok || raw == "" {
		return nil, &TranscriptionError{Err: fmt.Errorf("no %s transcript in API response", preferredTrack)}
	}

	return &job.Transcript{
		Text:     cleanWebVTT(raw),
		Language: "en",
		Title:    result.VideoTitle,
	}, nil
}

// cleanWebVTT strips the WEBVTT header, cue timestamps, and blank lines,
// leaving plain transcript text.
func cleanWebVTT(raw string) string {
	text := strings.Replace(raw, "WEBVTT", "", 1)
	text = vttTimestampPattern.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
