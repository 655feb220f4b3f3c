package provider

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cliplens/cliplens/internal/config"
	"github.com/cliplens/cliplens/internal/job"
)

// WhisperCLITranscriber transcribes locally: it resolves the URL to a media
// file, runs a whisper CLI over it, and deletes the media before returning.
type WhisperCLITranscriber struct {
	resolver MediaResolver
	binary   string
	model    string
}

// NewWhisperCLITranscriber creates a local transcriber backed by the given
// media resolver.
func NewWhisperCLITranscriber(cfg config.WhisperCLIConfig, resolver MediaResolver) *WhisperCLITranscriber {
	return &WhisperCLITranscriber{
		resolver: resolver,
		binary:   cfg.Binary,
		model:    cfg.Model,
	}
}

// Transcribe downloads the media and runs the whisper CLI on it. The temp
// media is removed on every exit path.
func (t *WhisperCLITranscriber) Transcribe(ctx context.Context, url string) (*job.Transcript, error) {
	handle, err := t.resolver.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}
	defer handle.Cleanup()

	args := []string{}
	if t.model != "" {
		args = append(args, "--model", t.model)
	}
	args = append(args, "--language", "en", handle.Path)

	cmd := exec.CommandContext(ctx, t.binary, args...)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &TranscriptionError{
			Err: fmt.Errorf("%s failed: %w: %s", t.binary, err, stderr.String()),
		}
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return nil, &TranscriptionError{Err: fmt.Errorf("%s produced no transcript for %s", t.binary, url)}
	}

	return &job.Transcript{
		Text:     text,
		Language: "en",
	}, nil
}
