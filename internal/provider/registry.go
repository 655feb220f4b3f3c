package provider

import (
	"fmt"

	"github.com/cliplens/cliplens/internal/config"
)

// NewTranscriber builds the transcription provider selected by configuration.
// All variants satisfy the same Transcriber contract; the worker never knows
// which one it is running.
func NewTranscriber(cfg config.ProvidersConfig) (Transcriber, error) {
	switch cfg.Transcriber.Type {
	case "submagic":
		return NewSubmagicTranscriber(cfg.Transcriber.Submagic), nil
	case "whispercli":
		resolver := NewYtDlpResolver(cfg.Media)
		return NewWhisperCLITranscriber(cfg.Transcriber.WhisperCLI, resolver), nil
	default:
		return nil, fmt.Errorf("unknown transcriber type: %q", cfg.Transcriber.Type)
	}
}
