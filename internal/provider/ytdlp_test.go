package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliplens/cliplens/internal/config"
)

// writeStubBinary writes an executable shell script standing in for yt-dlp.
func writeStubBinary(t *testing.T, script string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stub-ytdlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestYtDlpResolver_Resolve(t *testing.T) {
	t.Run("success produces a media handle", func(t *testing.T) {
		tempDir := t.TempDir()
		// $4 is the -o output template
		binary := writeStubBinary(t, `out=$(printf '%s' "$4" | sed 's/%(ext)s/mp4/'); echo data > "$out"`)

		r := NewYtDlpResolver(config.MediaConfig{YtDlpBinary: binary, TempDir: tempDir})

		handle, err := r.Resolve(context.Background(), "https://example.com/video/123")
		require.NoError(t, err)
		require.NotNil(t, handle)

		assert.FileExists(t, handle.Path)
		assert.Equal(t, "media.mp4", filepath.Base(handle.Path))

		require.NoError(t, handle.Cleanup())
		assert.NoFileExists(t, handle.Path)
	})

	t.Run("binary failure cleans up and returns ResolutionError", func(t *testing.T) {
		tempDir := t.TempDir()
		binary := writeStubBinary(t, `echo "no media" >&2; exit 1`)

		r := NewYtDlpResolver(config.MediaConfig{YtDlpBinary: binary, TempDir: tempDir})

		_, err := r.Resolve(context.Background(), "https://example.com/video/123")
		require.Error(t, err)

		var rerr *ResolutionError
		assert.ErrorAs(t, err, &rerr)

		// No temp directories left behind.
		entries, readErr := os.ReadDir(tempDir)
		require.NoError(t, readErr)
		assert.Empty(t, entries)
	})

	t.Run("no output file cleans up and returns ResolutionError", func(t *testing.T) {
		tempDir := t.TempDir()
		binary := writeStubBinary(t, `exit 0`)

		r := NewYtDlpResolver(config.MediaConfig{YtDlpBinary: binary, TempDir: tempDir})

		_, err := r.Resolve(context.Background(), "https://example.com/video/123")
		require.Error(t, err)

		var rerr *ResolutionError
		assert.ErrorAs(t, err, &rerr)

		entries, readErr := os.ReadDir(tempDir)
		require.NoError(t, readErr)
		assert.Empty(t, entries)
	})
}

func TestMediaHandle_CleanupNil(t *testing.T) {
	var h *MediaHandle
	assert.NoError(t, h.Cleanup())
	assert.NoError(t, (&MediaHandle{}).Cleanup())
}
