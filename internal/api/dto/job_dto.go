package dto

// CreateJobRequest is the submission payload.
type CreateJobRequest struct {
	URL string `json:"url" binding:"required"`
}

// CreateJobResponse returns the id the client polls with.
type CreateJobResponse struct {
	JobID string `json:"jobId"`
}

// ErrorResponse is the generic error body for all non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
