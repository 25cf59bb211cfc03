package domain

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification id does not exist
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrMalformedUpdate is returned when an inbound update message cannot be
	// decoded; such messages are never requeued
	ErrMalformedUpdate = errors.New("malformed update message")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
