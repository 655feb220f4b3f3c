package job

import "errors"

var (
	// ErrNotFound is returned when no job exists for the given id.
	ErrNotFound = errors.New("job not found")

	// ErrAlreadyExists is returned when creating a job whose id is taken.
	// Not expected in normal operation since ids are randomly generated.
	ErrAlreadyExists = errors.New("job already exists")

	// ErrInvalidTransition is returned when a status update would leave a
	// terminal state or otherwise violate the lifecycle ordering.
	ErrInvalidTransition = errors.New("invalid status transition")
)
