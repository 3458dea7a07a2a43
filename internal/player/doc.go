package player

// Package player implements the per-item playback state machine. A Controller
// owns exactly one media handle, drives it through cancellable asynchronous
// acquisition, playback and disposal, and reports every transition to a
// single listener. Operations invalid for the current state are silent no-ops
// so the coordinator may safely race with user input.
