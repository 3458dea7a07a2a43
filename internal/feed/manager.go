package feed

import (
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/vidloop/feedplay/internal/media"
	"github.com/vidloop/feedplay/internal/model"
	"github.com/vidloop/feedplay/internal/player"
	"github.com/vidloop/feedplay/internal/visibility"
)

// Pool defaults
const (
	// DefaultPreloadDistance is the number of positions kept warm on each
	// side of the reference index.
	DefaultPreloadDistance = 2

	// DefaultMaxControllers caps concurrently live controllers regardless
	// of window size.
	DefaultMaxControllers = 6
)

// Options tunes a Manager. Zero values select the documented defaults.
type Options struct {
	PresetName      string        // playback preset for feed items, default "feed"
	PreloadDistance int           // window half-width, default 2
	MaxControllers  int           // hard pool cap, default 6
	AcquireTimeout  time.Duration // acquisition budget per attempt, zero = unbounded
	PlayThreshold   float64       // visibility fraction to start playing
	PauseThreshold  float64       // visibility fraction to stop playing
	Logger          hclog.Logger
}

// Stats is a diagnostic snapshot of the manager
type Stats struct {
	Descriptors   int
	Controllers   int
	CapEvictions  uint64
	DroppedEvents uint64
}

// entry is the authoritative per-item record. Window membership, play
// decisions and the external VideoState projection are all derived from this
// one table; no second cache of "active" items exists anywhere.
type entry struct {
	descriptor    model.ContentDescriptor
	controller    *player.Controller // nil while not materialized
	lastVisibleAt time.Time
	shouldPlay    bool // latest visibility-derived decision
	pendingPlay   bool // play once the in-flight acquisition reaches Ready
	overrideOn    bool // explicit user override active
	overridePlay  bool // the override's direction
}

// Manager owns the ordered descriptor list and the bounded pool of playback
// controllers. It is the only component that creates or disposes controllers
// and the only query surface for the presentation layer.
type Manager struct {
	provider       media.Provider
	vis            *visibility.Coordinator
	preset         model.PlaybackConfig
	preload        int
	maxControllers int
	acquireTimeout time.Duration
	logger         hclog.Logger

	entriesMutex sync.Mutex
	entries      map[string]*entry
	order        []string // ids sorted by PositionIndex
	refIndex     int
	background   bool
	capEvictions uint64

	subsMutex     sync.Mutex
	subscribers   map[string]chan Event
	droppedEvents uint64
	closed        bool
}

// NewManager creates a manager over the given media provider
func NewManager(provider media.Provider, opts Options) *Manager {
	if opts.PresetName == "" {
		opts.PresetName = model.PresetFeed
	}
	preset, ok := model.PresetByName(opts.PresetName)
	if !ok {
		preset, _ = model.PresetByName(model.PresetFeed)
	}
	if opts.PreloadDistance <= 0 {
		opts.PreloadDistance = DefaultPreloadDistance
	}
	if opts.MaxControllers <= 0 {
		opts.MaxControllers = DefaultMaxControllers
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.New(&hclog.LoggerOptions{Name: "feed"})
	}

	m := &Manager{
		provider:       provider,
		vis:            visibility.New(opts.PlayThreshold, opts.PauseThreshold),
		preset:         preset,
		preload:        opts.PreloadDistance,
		maxControllers: opts.MaxControllers,
		acquireTimeout: opts.AcquireTimeout,
		logger:         logger,
		entries:        make(map[string]*entry),
		subscribers:    make(map[string]chan Event),
	}
	m.vis.Subscribe(m.onShouldPlayChange)
	return m
}

// SetDescriptors replaces the feed. All live controllers are disposed and
// the window is re-applied at reference index zero.
func (m *Manager) SetDescriptors(descriptors []model.ContentDescriptor) {
	m.entriesMutex.Lock()
	var ops []func()
	for _, e := range m.entries {
		ops = append(ops, m.teardownLocked(e)...)
	}

	m.entries = make(map[string]*entry, len(descriptors))
	m.order = m.order[:0]
	for _, d := range descriptors {
		if _, dup := m.entries[d.ID]; dup {
			m.logger.Warn("duplicate descriptor ignored", "id", d.ID)
			continue
		}
		m.entries[d.ID] = &entry{descriptor: d}
		m.order = append(m.order, d.ID)
	}
	m.sortOrderLocked()
	m.refIndex = 0
	ops = append(ops, m.applyWindowLocked()...)
	m.entriesMutex.Unlock()

	runAll(ops)
}

// AppendDescriptors adds items to the feed, keeping live entries intact
func (m *Manager) AppendDescriptors(descriptors ...model.ContentDescriptor) {
	m.entriesMutex.Lock()
	for _, d := range descriptors {
		if _, dup := m.entries[d.ID]; dup {
			m.logger.Warn("duplicate descriptor ignored", "id", d.ID)
			continue
		}
		m.entries[d.ID] = &entry{descriptor: d}
		m.order = append(m.order, d.ID)
	}
	m.sortOrderLocked()
	ops := m.applyWindowLocked()
	m.entriesMutex.Unlock()

	runAll(ops)
}

// SetActiveWindow moves the feed reference index, materializing controllers
// entering the window and disposing those that left it.
func (m *Manager) SetActiveWindow(referenceIndex int) {
	m.entriesMutex.Lock()
	m.refIndex = referenceIndex
	ops := m.applyWindowLocked()
	m.entriesMutex.Unlock()

	runAll(ops)
}

// ReferenceIndex returns the current feed reference index
func (m *Manager) ReferenceIndex() int {
	m.entriesMutex.Lock()
	defer m.entriesMutex.Unlock()
	return m.refIndex
}

// UpdateVisibility reports the visible fraction of an item. Should-play
// changes derived from the sample are applied to the item's controller.
func (m *Manager) UpdateVisibility(id string, fraction float64) {
	m.entriesMutex.Lock()
	if e, ok := m.entries[id]; ok && fraction > 0 {
		e.lastVisibleAt = time.Now()
	}
	m.entriesMutex.Unlock()

	// The coordinator calls back synchronously on change; the entries
	// mutex must not be held here.
	m.vis.UpdateVisibility(id, fraction)
}

// ShouldVideoPlay returns the current visibility-derived decision for an id
func (m *Manager) ShouldVideoPlay(id string) bool {
	return m.vis.ShouldVideoPlay(id)
}

// UntrackVisibility drops visibility bookkeeping for an id, pausing it if it
// was playing due to visibility.
func (m *Manager) UntrackVisibility(id string) {
	m.vis.Untrack(id)
}

// RequestPlay is the explicit user-driven play override. It persists until
// the next visibility flip for the id.
func (m *Manager) RequestPlay(id string) {
	m.entriesMutex.Lock()
	var ops []func()
	if e, ok := m.entries[id]; ok {
		e.overrideOn = true
		e.overridePlay = true
		if ctrl := e.controller; ctrl != nil {
			switch {
			case ctrl.State().HasResource():
				ops = append(ops, ctrl.Play)
			case ctrl.State() == model.StateInitializing:
				e.pendingPlay = true
			}
		}
	}
	m.entriesMutex.Unlock()

	runAll(ops)
}

// RequestPause is the explicit user-driven pause override (double-tap). It
// persists until the next visibility flip for the id.
func (m *Manager) RequestPause(id string) {
	m.entriesMutex.Lock()
	var ops []func()
	if e, ok := m.entries[id]; ok {
		e.overrideOn = true
		e.overridePlay = false
		e.pendingPlay = false
		if ctrl := e.controller; ctrl != nil {
			ops = append(ops, ctrl.Pause)
		}
	}
	m.entriesMutex.Unlock()

	runAll(ops)
}

// Retry re-runs acquisition for an item in the Error state
func (m *Manager) Retry(id string) {
	m.entriesMutex.Lock()
	var ops []func()
	if e, ok := m.entries[id]; ok && e.controller != nil {
		ops = append(ops, e.controller.Retry)
	}
	m.entriesMutex.Unlock()

	runAll(ops)
}

// NotifyAppLifecycle reports foreground/background changes. Controllers
// whose config opts in are paused on background; on foreground the last
// should-play decision is re-applied.
func (m *Manager) NotifyAppLifecycle(foreground bool) {
	m.entriesMutex.Lock()
	m.background = !foreground
	var ops []func()
	for _, id := range m.order {
		e := m.entries[id]
		ctrl := e.controller
		if ctrl == nil {
			continue
		}
		if foreground {
			want := m.desiredPlayLocked(e)
			// A should-play decision made while backgrounded is not
			// lost: an acquisition still in flight plays at Ready.
			if want && ctrl.State() == model.StateInitializing {
				e.pendingPlay = true
			}
			ops = append(ops, func() { ctrl.NotifyAppForeground(want) })
		} else {
			ops = append(ops, ctrl.NotifyAppBackground)
		}
	}
	m.entriesMutex.Unlock()

	runAll(ops)
}

// GetVideoState returns the current snapshot for an id. Unknown ids get a
// default NotInitialized snapshot, never a missing value.
func (m *Manager) GetVideoState(id string) model.VideoState {
	m.entriesMutex.Lock()
	defer m.entriesMutex.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return model.VideoState{State: model.StateNotInitialized}
	}
	if e.controller == nil {
		return model.VideoState{Descriptor: e.descriptor, State: model.StateNotInitialized}
	}
	return model.VideoState{
		Descriptor: e.descriptor,
		State:      e.controller.State(),
		LastError:  e.controller.LastError(),
	}
}

// Handle returns the media handle for an id while its state allows use of
// it, else nil.
func (m *Manager) Handle(id string) media.Handle {
	m.entriesMutex.Lock()
	defer m.entriesMutex.Unlock()

	e, ok := m.entries[id]
	if !ok || e.controller == nil {
		return nil
	}
	return e.controller.Handle()
}

// Stats returns a diagnostic snapshot
func (m *Manager) Stats() Stats {
	m.entriesMutex.Lock()
	live := 0
	for _, e := range m.entries {
		if e.controller != nil {
			live++
		}
	}
	s := Stats{
		Descriptors:  len(m.entries),
		Controllers:  live,
		CapEvictions: m.capEvictions,
	}
	m.entriesMutex.Unlock()

	m.subsMutex.Lock()
	s.DroppedEvents = m.droppedEvents
	m.subsMutex.Unlock()
	return s
}

// Close disposes all controllers and closes all subscriber channels
func (m *Manager) Close() {
	m.entriesMutex.Lock()
	var ops []func()
	for _, e := range m.entries {
		ops = append(ops, m.teardownLocked(e)...)
	}
	m.entriesMutex.Unlock()
	runAll(ops)

	m.subsMutex.Lock()
	m.closed = true
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	m.subsMutex.Unlock()
}

// onShouldPlayChange receives visibility decisions. Overrides are cleared:
// a visibility flip always resumes visibility-derived control.
func (m *Manager) onShouldPlayChange(id string, shouldPlay bool) {
	m.entriesMutex.Lock()
	e, ok := m.entries[id]
	if !ok {
		m.entriesMutex.Unlock()
		return
	}
	e.shouldPlay = shouldPlay
	e.overrideOn = false

	var ops []func()
	ctrl := e.controller
	if shouldPlay {
		suppressed := m.background && m.preset.HandleAppLifecycle
		if ctrl != nil && !suppressed {
			switch {
			case ctrl.State().HasResource():
				ops = append(ops, ctrl.Play)
			case ctrl.State() == model.StateInitializing:
				e.pendingPlay = true
			}
		}
	} else {
		e.pendingPlay = false
		if ctrl != nil {
			ops = append(ops, ctrl.Pause)
		}
	}
	m.entriesMutex.Unlock()

	runAll(ops)
}

// onTransition receives controller state changes. Events from controllers
// the manager no longer owns (evicted or replaced) are dropped.
func (m *Manager) onTransition(ctrl *player.Controller, ev player.TransitionEvent) {
	m.entriesMutex.Lock()
	e, ok := m.entries[ev.ID]
	if !ok || e.controller != ctrl {
		m.entriesMutex.Unlock()
		return
	}

	var ops []func()
	if ev.State == model.StateReady && e.pendingPlay {
		// Pending visibility decision outranks the preset's autoplay
		// rule; it runs before the controller's own check. While
		// backgrounded the play is withheld; foreground re-applies the
		// decision against the now-Ready controller.
		e.pendingPlay = false
		if !(m.background && m.preset.HandleAppLifecycle) {
			ops = append(ops, ctrl.Play)
		}
	}
	snapshot := model.VideoState{
		Descriptor: e.descriptor,
		State:      ev.State,
		LastError:  ev.Err,
	}
	m.entriesMutex.Unlock()

	m.publish(Event{ID: ev.ID, VideoState: snapshot})
	runAll(ops)
}

// applyWindowLocked reconciles materialized controllers against the active
// window [refIndex-preload, refIndex+preload] and the pool cap. It returns
// the controller operations to run after the entries mutex is released.
func (m *Manager) applyWindowLocked() []func() {
	lo := m.refIndex - m.preload
	hi := m.refIndex + m.preload

	var ops []func()

	// Dispose controllers that left the window, whatever their state
	for _, id := range m.order {
		e := m.entries[id]
		if e.controller != nil && !inWindow(e.descriptor.PositionIndex, lo, hi) {
			ops = append(ops, m.teardownLocked(e)...)
		}
	}

	live := 0
	for _, e := range m.entries {
		if e.controller != nil {
			live++
		}
	}

	// Materialize missing controllers, nearest to the reference first
	for _, id := range m.windowOrderLocked(lo, hi) {
		e := m.entries[id]
		if e.controller != nil {
			continue
		}
		if live >= m.maxControllers {
			victim := m.leastRecentlyVisibleLocked(e)
			if victim == nil {
				break
			}
			m.capEvictions++
			m.logger.Info("pool cap eviction", "evicted", victim.descriptor.ID, "for", id)
			ops = append(ops, m.teardownLocked(victim)...)
			live--
		}
		ops = append(ops, m.materializeLocked(e))
		live++
	}
	return ops
}

// materializeLocked creates and wires a controller for an entry and returns
// the activation op.
func (m *Manager) materializeLocked(e *entry) func() {
	ctrl := player.New(e.descriptor, m.preset, m.provider, m.acquireTimeout, m.logger)
	ctrl.SetTransitionListener(func(ev player.TransitionEvent) {
		m.onTransition(ctrl, ev)
	})
	e.controller = ctrl
	if m.desiredPlayLocked(e) && !(m.background && m.preset.HandleAppLifecycle) {
		e.pendingPlay = true
	}
	return ctrl.Activate
}

// teardownLocked detaches an entry's controller and returns the ops that
// pause, dispose and announce the reset. The Disposed event the controller
// emits is filtered as stale; subscribers instead see the item revert to
// NotInitialized, ready to be recreated on demand.
func (m *Manager) teardownLocked(e *entry) []func() {
	ctrl := e.controller
	if ctrl == nil {
		return nil
	}
	e.controller = nil
	e.pendingPlay = false
	desc := e.descriptor
	return []func(){
		ctrl.Pause,
		ctrl.Dispose,
		func() {
			m.publish(Event{
				ID:         desc.ID,
				VideoState: model.VideoState{Descriptor: desc, State: model.StateNotInitialized},
			})
		},
	}
}

// desiredPlayLocked resolves the effective play intent for an entry
func (m *Manager) desiredPlayLocked(e *entry) bool {
	if e.overrideOn {
		return e.overridePlay
	}
	return e.shouldPlay
}

// windowOrderLocked returns in-window ids ordered by distance from the
// reference index, nearest first.
func (m *Manager) windowOrderLocked(lo, hi int) []string {
	var ids []string
	for _, id := range m.order {
		if inWindow(m.entries[id].descriptor.PositionIndex, lo, hi) {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(a, b int) bool {
		da := absInt(m.entries[ids[a]].descriptor.PositionIndex - m.refIndex)
		db := absInt(m.entries[ids[b]].descriptor.PositionIndex - m.refIndex)
		return da < db
	})
	return ids
}

// leastRecentlyVisibleLocked picks the cap-eviction victim: the materialized
// entry (other than the candidate) least recently reported visible, farthest
// from the reference on ties.
func (m *Manager) leastRecentlyVisibleLocked(candidate *entry) *entry {
	var victim *entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.controller == nil || e == candidate {
			continue
		}
		if victim == nil {
			victim = e
			continue
		}
		switch {
		case e.lastVisibleAt.Before(victim.lastVisibleAt):
			victim = e
		case e.lastVisibleAt.Equal(victim.lastVisibleAt):
			if absInt(e.descriptor.PositionIndex-m.refIndex) > absInt(victim.descriptor.PositionIndex-m.refIndex) {
				victim = e
			}
		}
	}
	return victim
}

func (m *Manager) sortOrderLocked() {
	sort.SliceStable(m.order, func(a, b int) bool {
		return m.entries[m.order[a]].descriptor.PositionIndex < m.entries[m.order[b]].descriptor.PositionIndex
	})
}

func inWindow(pos, lo, hi int) bool {
	return pos >= lo && pos <= hi
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func runAll(ops []func()) {
	for _, op := range ops {
		op()
	}
}
