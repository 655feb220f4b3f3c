package provider

// ResolutionError means the source URL provided no playable media.
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string {
	return "media resolution failed: " + e.Err.Error()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// TranscriptionError means no transcript could be produced for the video.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return "transcription failed: " + e.Err.Error()
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// SummarizationError means the language-model call failed upstream.
type SummarizationError struct {
	Err error
}

func (e *SummarizationError) Error() string {
	return "summarization failed: " + e.Err.Error()
}

func (e *SummarizationError) Unwrap() error {
	return e.Err
}
