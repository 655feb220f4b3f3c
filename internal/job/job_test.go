package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	now := time.Now()
	j := New("abc-123", "https://example.com/video/123", now)

	require.NotNil(t, j)
	assert.Equal(t, "abc-123", j.JobID)
	assert.Equal(t, "https://example.com/video/123", j.URL)
	assert.Equal(t, StatusPending, j.Status)
	assert.Equal(t, now, j.CreatedAt)
	assert.Equal(t, now, j.UpdatedAt)
	assert.Nil(t, j.Transcript)
	assert.Nil(t, j.Summary)
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status   string
		terminal bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusError, true},
		{"unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.terminal, IsTerminal(tt.status))
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"pending to processing", StatusPending, StatusProcessing, true},
		{"pending to completed", StatusPending, StatusCompleted, true},
		{"pending to error", StatusPending, StatusError, true},
		{"processing to completed", StatusProcessing, StatusCompleted, true},
		{"processing to error", StatusProcessing, StatusError, true},
		{"processing to pending", StatusProcessing, StatusPending, false},
		{"completed to processing", StatusCompleted, StatusProcessing, false},
		{"completed to error", StatusCompleted, StatusError, false},
		{"error to completed", StatusError, StatusCompleted, false},
		{"error to processing", StatusError, StatusProcessing, false},
		{"unknown status", "unknown", StatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}
