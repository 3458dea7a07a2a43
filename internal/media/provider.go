package media

import (
	"context"
	"time"
)

// Signal is an asynchronous notification from the media engine about one
// session: buffer underruns, resume after an underrun, and end of media.
type Signal int

const (
	// SignalBufferingStart means the engine stalled waiting for data
	SignalBufferingStart Signal = iota

	// SignalBufferingEnd means the engine resumed after an underrun
	SignalBufferingEnd

	// SignalEndOfMedia means playback reached the end of the stream
	SignalEndOfMedia
)

// String returns a human-readable name for the signal
func (s Signal) String() string {
	switch s {
	case SignalBufferingStart:
		return "BufferingStart"
	case SignalBufferingEnd:
		return "BufferingEnd"
	case SignalEndOfMedia:
		return "EndOfMedia"
	default:
		return "Unknown"
	}
}

// SignalFunc receives engine signals for one acquired session. It may be
// invoked from engine-owned goroutines.
type SignalFunc func(Signal)

// Handle is an opaque reference to one decode/render session. A handle is
// exclusively owned by the playback controller it was acquired for and must
// not be used after Release.
type Handle interface {
	// ID identifies the session for logging and diagnostics
	ID() string

	// Play starts or resumes rendering
	Play()

	// Pause suspends rendering while keeping the session alive
	Pause()

	// Seek moves the playback position
	Seek(pos time.Duration)

	// SetVolume sets the output volume (0.0 to 1.0)
	SetVolume(v float64)
}

// Provider acquires and releases media sessions. Acquire is the only
// blocking operation in the engine; it must honor context cancellation.
type Provider interface {
	// Acquire opens a session for the given source. onSignal receives
	// engine notifications for the returned handle until Release.
	Acquire(ctx context.Context, sourceURI string, onSignal SignalFunc) (Handle, error)

	// Release closes a session. Each handle is released exactly once by
	// its owner.
	Release(h Handle)
}
