// Package provider holds the collaborator contracts the worker depends on:
// resolving a video URL to playable media, transcribing it, and summarizing
// the transcript. Implementations are selected by configuration.
package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/cliplens/cliplens/internal/job"
)

// MediaHandle is a temporary local media file owned by a single worker
// invocation. Cleanup must be called on every exit path, success or failure.
type MediaHandle struct {
	// Path is the downloaded media file.
	Path string
	// dir is the per-job temp directory holding Path.
	dir string
}

// Cleanup deletes the temp directory backing the handle.
func (h *MediaHandle) Cleanup() error {
	if h == nil || h.dir == "" {
		return nil
	}
	if err := os.RemoveAll(h.dir); err != nil {
		return fmt.Errorf("failed to remove media temp dir: %w", err)
	}
	return nil
}

// MediaResolver resolves a video page URL to a temporary local media file.
type MediaResolver interface {
	Resolve(ctx context.Context, url string) (*MediaHandle, error)
}

// Transcriber produces a transcript for a video URL.
type Transcriber interface {
	Transcribe(ctx context.Context, url string) (*job.Transcript, error)
}

// Summarizer produces a text summary of a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
