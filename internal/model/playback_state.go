package model

// PlaybackState represents the lifecycle state of a single playback controller
type PlaybackState string

const (
	// StateNotInitialized means no resource has been requested yet
	StateNotInitialized PlaybackState = "NotInitialized"

	// StateInitializing means resource acquisition is in flight
	StateInitializing PlaybackState = "Initializing"

	// StateReady means the resource is acquired and playback may start
	StateReady PlaybackState = "Ready"

	// StatePlaying means the item is actively rendering
	StatePlaying PlaybackState = "Playing"

	// StatePaused means playback is suspended but the resource is retained
	StatePaused PlaybackState = "Paused"

	// StateBuffering means the engine reported an underrun during playback
	StateBuffering PlaybackState = "Buffering"

	// StateError means resource acquisition or playback failed
	StateError PlaybackState = "Error"

	// StateDisposed means the resource has been released; terminal
	StateDisposed PlaybackState = "Disposed"
)

// String returns the string representation of PlaybackState
func (ps PlaybackState) String() string {
	return string(ps)
}

// HasResource returns true if the state implies an acquired, usable handle
func (ps PlaybackState) HasResource() bool {
	return ps == StateReady || ps == StatePlaying || ps == StatePaused || ps == StateBuffering
}

// IsActive returns true if the item is rendering or trying to render
func (ps PlaybackState) IsActive() bool {
	return ps == StatePlaying || ps == StateBuffering
}

// IsTerminal returns true if no further transitions are possible
func (ps PlaybackState) IsTerminal() bool {
	return ps == StateDisposed
}
