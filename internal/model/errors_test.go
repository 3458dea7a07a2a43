package model

import (
	"errors"
	"strings"
	"testing"
)

func TestPlaybackError_Error(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPlaybackError(ErrResourceUnavailable, "acquire failed", cause)

	msg := err.Error()
	if !strings.Contains(msg, "ResourceUnavailable") {
		t.Errorf("Error() = %q, expected kind in message", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("Error() = %q, expected cause in message", msg)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should unwrap to the cause")
	}
}

func TestPlaybackError_NoCause(t *testing.T) {
	err := NewPlaybackError(ErrTimeout, "acquisition deadline exceeded", nil)
	if err.Unwrap() != nil {
		t.Error("Unwrap() should be nil without a cause")
	}
	if !strings.Contains(err.Error(), "Timeout") {
		t.Errorf("Error() = %q, expected kind in message", err.Error())
	}
}
