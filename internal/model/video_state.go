package model

// VideoState is the externally visible projection of one feed item: its
// descriptor, current playback state, and last error if any. It is a value
// snapshot, never a live reference into engine internals.
type VideoState struct {
	Descriptor ContentDescriptor
	State      PlaybackState
	LastError  *PlaybackError
}

// HasError returns true if the item carries a playback error
func (vs VideoState) HasError() bool {
	return vs.LastError != nil
}
