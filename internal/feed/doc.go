package feed

// Package feed implements the video resource manager: the single owner of
// playback controllers. It enforces the preload window and the hard pool cap,
// routes visibility decisions and user overrides to controllers, reconciles
// all per-item bookkeeping in one authoritative table, and publishes video
// state snapshots to subscribers for reactive UI binding.
