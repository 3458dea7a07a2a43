package model

// Preset names selectable at controller construction
const (
	PresetFeed       = "feed"
	PresetFullscreen = "fullscreen"
	PresetPreview    = "preview"
)

// Volume defaults per preset
const (
	DefaultFeedVolume       = 1.0
	DefaultFullscreenVolume = 1.0
	DefaultPreviewVolume    = 0.0
)

// PlaybackConfig describes a named playback preset. A config is bound to a
// playback controller for the controller's entire lifetime; changing config
// requires disposing and recreating the controller.
type PlaybackConfig struct {
	Name               string
	AutoPlay           bool
	Looping            bool
	InitialVolume      float64 // 0.0 to 1.0
	PauseOnNavigation  bool
	HandleAppLifecycle bool
}

// The closed set of presets. Callers select one by name; there is no way to
// register additional presets at runtime.
var presets = map[string]PlaybackConfig{
	// Feed playback is visibility-gated: the resource manager starts
	// playback from should-play decisions, so the preset itself does not
	// autoplay.
	PresetFeed: {
		Name:               PresetFeed,
		AutoPlay:           false,
		Looping:            true,
		InitialVolume:      DefaultFeedVolume,
		PauseOnNavigation:  true,
		HandleAppLifecycle: true,
	},
	PresetFullscreen: {
		Name:               PresetFullscreen,
		AutoPlay:           true,
		Looping:            false,
		InitialVolume:      DefaultFullscreenVolume,
		PauseOnNavigation:  true,
		HandleAppLifecycle: true,
	},
	PresetPreview: {
		Name:               PresetPreview,
		AutoPlay:           false,
		Looping:            true,
		InitialVolume:      DefaultPreviewVolume,
		PauseOnNavigation:  false,
		HandleAppLifecycle: false,
	},
}

// PresetByName returns the playback config for a preset name. The second
// return value is false for unknown names.
func PresetByName(name string) (PlaybackConfig, bool) {
	cfg, ok := presets[name]
	return cfg, ok
}

// PresetNames returns the available preset names
func PresetNames() []string {
	return []string{PresetFeed, PresetFullscreen, PresetPreview}
}
