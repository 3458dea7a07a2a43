package model

import "fmt"

// ErrorKind classifies playback failures in a machine-readable way
type ErrorKind string

const (
	// ErrResourceUnavailable means the source was unreachable or invalid
	ErrResourceUnavailable ErrorKind = "ResourceUnavailable"

	// ErrDecodeFailed means the engine rejected or could not decode the stream
	ErrDecodeFailed ErrorKind = "DecodeFailed"

	// ErrTimeout means acquisition exceeded the configured budget
	ErrTimeout ErrorKind = "Timeout"

	// ErrInvalidOperation indicates a caller or coordinator bug
	ErrInvalidOperation ErrorKind = "InvalidOperation"
)

// String returns the string representation of ErrorKind
func (ek ErrorKind) String() string {
	return string(ek)
}

// PlaybackError carries an error kind plus a human-readable message. Errors
// surface through controller state, never as panics across component
// boundaries.
type PlaybackError struct {
	Kind    ErrorKind
	Message string
	Err     error // underlying cause, may be nil
}

// NewPlaybackError creates a playback error with the given kind and message
func NewPlaybackError(kind ErrorKind, message string, err error) *PlaybackError {
	return &PlaybackError{Kind: kind, Message: message, Err: err}
}

func (pe *PlaybackError) Error() string {
	if pe.Err != nil {
		return fmt.Sprintf("%s: %s: %v", pe.Kind, pe.Message, pe.Err)
	}
	return fmt.Sprintf("%s: %s", pe.Kind, pe.Message)
}

func (pe *PlaybackError) Unwrap() error {
	return pe.Err
}
