package visibility

import (
	"sync"
	"time"
)

// Default hysteresis thresholds. An item starts playing once its visible
// fraction reaches the play threshold and keeps playing until it drops below
// the pause threshold.
const (
	DefaultPlayThreshold  = 0.5
	DefaultPauseThreshold = 0.2
)

// Info is the tracked visibility sample for one item
type Info struct {
	ID              string
	VisibleFraction float64
	LastUpdated     time.Time

	shouldPlay bool
}

// ChangeFunc is notified when an item's should-play decision flips
type ChangeFunc func(id string, shouldPlay bool)

// Coordinator tracks visibility samples and computes should-play decisions.
// Untracked ids are treated as zero visibility.
type Coordinator struct {
	samplesMutex   sync.Mutex
	samples        map[string]*Info
	playThreshold  float64
	pauseThreshold float64
	onChange       []ChangeFunc
}

// New creates a coordinator with the given thresholds. Out-of-range or
// inverted thresholds fall back to the defaults.
func New(playThreshold, pauseThreshold float64) *Coordinator {
	if playThreshold <= 0 || playThreshold > 1 ||
		pauseThreshold < 0 || pauseThreshold >= playThreshold {
		playThreshold = DefaultPlayThreshold
		pauseThreshold = DefaultPauseThreshold
	}
	return &Coordinator{
		samples:        make(map[string]*Info),
		playThreshold:  playThreshold,
		pauseThreshold: pauseThreshold,
	}
}

// Subscribe registers a change callback. Callbacks run synchronously on the
// goroutine that reported the triggering sample.
func (c *Coordinator) Subscribe(fn ChangeFunc) {
	if fn == nil {
		return
	}
	c.samplesMutex.Lock()
	defer c.samplesMutex.Unlock()
	c.onChange = append(c.onChange, fn)
}

// UpdateVisibility records a sample and recomputes the should-play decision.
// Fractions are clamped to [0,1]. Subscribers are notified only on change.
func (c *Coordinator) UpdateVisibility(id string, fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	c.samplesMutex.Lock()
	info, ok := c.samples[id]
	if !ok {
		info = &Info{ID: id}
		c.samples[id] = info
	}
	info.VisibleFraction = fraction
	info.LastUpdated = time.Now()

	prev := info.shouldPlay
	if prev {
		info.shouldPlay = fraction >= c.pauseThreshold
	} else {
		info.shouldPlay = fraction >= c.playThreshold
	}
	changed := info.shouldPlay != prev
	next := info.shouldPlay
	callbacks := c.onChange
	c.samplesMutex.Unlock()

	if changed {
		for _, fn := range callbacks {
			fn(id, next)
		}
	}
}

// ShouldVideoPlay returns the last computed decision, false for untracked ids
func (c *Coordinator) ShouldVideoPlay(id string) bool {
	c.samplesMutex.Lock()
	defer c.samplesMutex.Unlock()
	info, ok := c.samples[id]
	return ok && info.shouldPlay
}

// VisibleFraction returns the last reported fraction, zero for untracked ids
func (c *Coordinator) VisibleFraction(id string) float64 {
	c.samplesMutex.Lock()
	defer c.samplesMutex.Unlock()
	info, ok := c.samples[id]
	if !ok {
		return 0
	}
	return info.VisibleFraction
}

// Untrack drops the sample for an id. If the item was marked should-play,
// subscribers are notified of the flip to false.
func (c *Coordinator) Untrack(id string) {
	c.samplesMutex.Lock()
	info, ok := c.samples[id]
	wasPlaying := ok && info.shouldPlay
	delete(c.samples, id)
	callbacks := c.onChange
	c.samplesMutex.Unlock()

	if wasPlaying {
		for _, fn := range callbacks {
			fn(id, false)
		}
	}
}

// Tracked returns the number of tracked ids
func (c *Coordinator) Tracked() int {
	c.samplesMutex.Lock()
	defer c.samplesMutex.Unlock()
	return len(c.samples)
}
