package ui

import "time"

// UI-wide constants to avoid magic numbers/strings scattered across the codebase.

// Icons (emojis/symbols)
const (
	IconSettings  = "⚙"
	IconPlay      = "▶"
	IconPause     = "⏸"
	IconRetry     = "↻"
	IconError     = "❌"
	IconBuffering = "⏳"
)

// Text fragments
const (
	DashPlaceholder = "—"
)

// Layout sizing (VideoRow / feed list)
const (
	RowMinWidth  float32 = 400
	RowHeight    float32 = 220
	WindowWidth  float32 = 480
	WindowHeight float32 = 720
)

// Debounce durations
const (
	VisibilityUpdateDebounce = 50 * time.Millisecond
)

// Event stream
const (
	UISubscriberID = "root-ui"
)
