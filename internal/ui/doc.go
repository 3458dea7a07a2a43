package ui

// Package ui contains the Fyne-based demo surface for the feed engine. It
// renders a scrollable feed of video rows, converts scroll geometry into
// per-item visibility fractions for the manager, and reflects playback state
// changes delivered over the manager's event stream.
