package provider

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cliplens/cliplens/internal/config"
)

// YtDlpResolver downloads video media with the yt-dlp binary into a per-job
// temp directory. The returned handle owns the directory.
type YtDlpResolver struct {
	binary  string
	tempDir string
}

// NewYtDlpResolver creates a resolver from config. An empty binary falls back
// to yt-dlp on PATH; an empty temp dir uses the system default.
func NewYtDlpResolver(cfg config.MediaConfig) *YtDlpResolver {
	binary := cfg.YtDlpBinary
	if binary == "" {
		binary = "yt-dlp"
	}

	return &YtDlpResolver{
		binary:  binary,
		tempDir: cfg.TempDir,
	}
}

// Resolve downloads the best available media for the URL.
func (r *YtDlpResolver) Resolve(ctx context.Context, url string) (*MediaHandle, error) {
	dir, err := os.MkdirTemp(r.tempDir, "cliplens-media-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create media temp dir: %w", err)
	}

	outputTemplate := filepath.Join(dir, "media.%(ext)s")
	cmd := exec.CommandContext(ctx, r.binary, "-f", "b", "-o", outputTemplate, "--no-warnings", url)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.RemoveAll(dir)
		return nil, &ResolutionError{
			Err: fmt.Errorf("yt-dlp failed: %w: %s", err, stderr.String()),
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to read media temp dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			return &MediaHandle{
				Path: filepath.Join(dir, entry.Name()),
				dir:  dir,
			}, nil
		}
	}

	os.RemoveAll(dir)
	return nil, &ResolutionError{Err: fmt.Errorf("yt-dlp produced no media file for %s", url)}
}
