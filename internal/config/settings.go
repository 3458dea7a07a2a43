package config

import (
	"time"

	"fyne.io/fyne/v2"

	"github.com/hashicorp/go-hclog"

	"github.com/vidloop/feedplay/internal/feed"
	"github.com/vidloop/feedplay/internal/visibility"
)

// Settings keys for Fyne preferences
const (
	KeyPreloadDistance = "preload_distance"
	KeyMaxControllers  = "max_controllers"
	KeyPlayThreshold   = "play_threshold"
	KeyPauseThreshold  = "pause_threshold"
	KeyAcquireTimeout  = "acquire_timeout_ms"
	KeySimLatency      = "sim_latency_ms"
	KeyManifestPath    = "feed_manifest_path"
)

// Default values
const (
	DefaultAcquireTimeout = 10 * time.Second
	DefaultSimLatency     = 250 * time.Millisecond

	MinPreloadDistance = 1
	MaxPreloadDistance = 5
	MinControllers     = 1
	MaxControllers     = 12
)

// Settings manages persisted engine tuning
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetPreloadDistance returns the configured preload window half-width
func (s *Settings) GetPreloadDistance() int {
	value := s.app.Preferences().Int(KeyPreloadDistance)
	if value <= 0 {
		s.SetPreloadDistance(feed.DefaultPreloadDistance)
		return feed.DefaultPreloadDistance
	}
	return value
}

// SetPreloadDistance sets the preload window half-width
func (s *Settings) SetPreloadDistance(distance int) {
	if distance < MinPreloadDistance {
		distance = MinPreloadDistance
	}
	if distance > MaxPreloadDistance {
		distance = MaxPreloadDistance
	}
	s.app.Preferences().SetInt(KeyPreloadDistance, distance)
}

// GetMaxControllers returns the hard cap on live playback controllers
func (s *Settings) GetMaxControllers() int {
	value := s.app.Preferences().Int(KeyMaxControllers)
	if value <= 0 {
		s.SetMaxControllers(feed.DefaultMaxControllers)
		return feed.DefaultMaxControllers
	}
	return value
}

// SetMaxControllers sets the hard cap on live playback controllers
func (s *Settings) SetMaxControllers(count int) {
	if count < MinControllers {
		count = MinControllers
	}
	if count > MaxControllers {
		count = MaxControllers
	}
	s.app.Preferences().SetInt(KeyMaxControllers, count)
}

// GetPlayThreshold returns the visible fraction that starts playback
func (s *Settings) GetPlayThreshold() float64 {
	value := s.app.Preferences().Float(KeyPlayThreshold)
	if value <= 0 || value > 1 {
		s.SetPlayThreshold(visibility.DefaultPlayThreshold)
		return visibility.DefaultPlayThreshold
	}
	return value
}

// SetPlayThreshold sets the visible fraction that starts playback
func (s *Settings) SetPlayThreshold(threshold float64) {
	if threshold <= 0 || threshold > 1 {
		threshold = visibility.DefaultPlayThreshold
	}
	s.app.Preferences().SetFloat(KeyPlayThreshold, threshold)
}

// GetPauseThreshold returns the visible fraction below which playback stops
func (s *Settings) GetPauseThreshold() float64 {
	value := s.app.Preferences().Float(KeyPauseThreshold)
	if value <= 0 || value >= s.GetPlayThreshold() {
		s.SetPauseThreshold(visibility.DefaultPauseThreshold)
		return visibility.DefaultPauseThreshold
	}
	return value
}

// SetPauseThreshold sets the visible fraction below which playback stops
func (s *Settings) SetPauseThreshold(threshold float64) {
	if threshold < 0 || threshold >= s.GetPlayThreshold() {
		threshold = visibility.DefaultPauseThreshold
	}
	s.app.Preferences().SetFloat(KeyPauseThreshold, threshold)
}

// GetAcquireTimeout returns the per-attempt acquisition budget
func (s *Settings) GetAcquireTimeout() time.Duration {
	ms := s.app.Preferences().Int(KeyAcquireTimeout)
	if ms <= 0 {
		s.SetAcquireTimeout(DefaultAcquireTimeout)
		return DefaultAcquireTimeout
	}
	return time.Duration(ms) * time.Millisecond
}

// SetAcquireTimeout sets the per-attempt acquisition budget
func (s *Settings) SetAcquireTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}
	s.app.Preferences().SetInt(KeyAcquireTimeout, int(timeout/time.Millisecond))
}

// GetSimLatency returns the simulated engine's acquisition latency
func (s *Settings) GetSimLatency() time.Duration {
	ms := s.app.Preferences().Int(KeySimLatency)
	if ms <= 0 {
		s.SetSimLatency(DefaultSimLatency)
		return DefaultSimLatency
	}
	return time.Duration(ms) * time.Millisecond
}

// SetSimLatency sets the simulated engine's acquisition latency
func (s *Settings) SetSimLatency(latency time.Duration) {
	if latency < 0 {
		latency = 0
	}
	s.app.Preferences().SetInt(KeySimLatency, int(latency/time.Millisecond))
}

// GetManifestPath returns the last used feed manifest path, empty if none
func (s *Settings) GetManifestPath() string {
	return s.app.Preferences().String(KeyManifestPath)
}

// SetManifestPath remembers the last used feed manifest path
func (s *Settings) SetManifestPath(path string) {
	s.app.Preferences().SetString(KeyManifestPath, path)
}

// ManagerOptions assembles feed manager options from the stored settings
func (s *Settings) ManagerOptions(logger hclog.Logger) feed.Options {
	return feed.Options{
		PreloadDistance: s.GetPreloadDistance(),
		MaxControllers:  s.GetMaxControllers(),
		AcquireTimeout:  s.GetAcquireTimeout(),
		PlayThreshold:   s.GetPlayThreshold(),
		PauseThreshold:  s.GetPauseThreshold(),
		Logger:          logger,
	}
}
