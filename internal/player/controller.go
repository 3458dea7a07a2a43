package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/vidloop/feedplay/internal/media"
	"github.com/vidloop/feedplay/internal/model"
)

// Retry limits
const (
	// AutoRetryLimit caps acquisition retries performed without caller
	// involvement. Manual retries via Retry are unlimited.
	AutoRetryLimit = 1
)

// TransitionEvent describes one state change of a controller
type TransitionEvent struct {
	ID    string
	State model.PlaybackState
	Err   *model.PlaybackError // non-nil only for Error transitions
}

// TransitionListener receives transition events. Events for one controller
// are delivered in transition order, synchronously on the goroutine that
// caused the transition. The listener may call back into the controller.
type TransitionListener func(ev TransitionEvent)

// Controller manages one media handle through the playback state machine:
//
//	NotInitialized -> Initializing -> Ready -> Playing <-> Paused
//	Playing <-> Buffering
//	Initializing/Ready/Playing/Paused/Buffering -> Error
//	any non-terminal state -> Disposed
//
// The bound PlaybackConfig cannot change for the controller's lifetime.
type Controller struct {
	descriptor model.ContentDescriptor
	config     model.PlaybackConfig
	provider   media.Provider
	timeout    time.Duration // acquisition budget, zero means unbounded
	logger     hclog.Logger

	stateMutex sync.Mutex
	state      model.PlaybackState
	lastErr    *model.PlaybackError
	handle     media.Handle
	listener   TransitionListener

	// generation invalidates in-flight acquisitions and stale engine
	// signals: Dispose and Retry bump it, completions carrying an older
	// value are discarded and their handle released immediately.
	generation  uint64
	autoRetries int
}

// New creates a controller for one feed item. The config is bound for the
// controller's lifetime. A nil logger defaults to a named logger.
func New(desc model.ContentDescriptor, cfg model.PlaybackConfig, provider media.Provider, timeout time.Duration, logger hclog.Logger) *Controller {
	if logger == nil {
		logger = hclog.New(&hclog.LoggerOptions{Name: "player"})
	}
	return &Controller{
		descriptor: desc,
		config:     cfg,
		provider:   provider,
		timeout:    timeout,
		logger:     logger.With("id", desc.ID),
		state:      model.StateNotInitialized,
	}
}

// SetTransitionListener sets the single transition listener. The resource
// manager sets it once, before Activate.
func (c *Controller) SetTransitionListener(l TransitionListener) {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	c.listener = l
}

// Descriptor returns the content descriptor the controller was created for
func (c *Controller) Descriptor() model.ContentDescriptor {
	return c.descriptor
}

// Config returns the bound playback config
func (c *Controller) Config() model.PlaybackConfig {
	return c.config
}

// State returns the current playback state
func (c *Controller) State() model.PlaybackState {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	return c.state
}

// LastError returns the most recent playback error, nil if none
func (c *Controller) LastError() *model.PlaybackError {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	return c.lastErr
}

// Handle returns the media handle while the state allows using it, else nil
func (c *Controller) Handle() media.Handle {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	if !c.state.HasResource() {
		return nil
	}
	return c.handle
}

// Activate begins asynchronous resource acquisition. Valid only from
// NotInitialized; any other state is a silent no-op.
func (c *Controller) Activate() {
	c.stateMutex.Lock()
	if c.state != model.StateNotInitialized {
		c.stateMutex.Unlock()
		return
	}
	ev := c.transitionLocked(model.StateInitializing, nil)
	gen := c.generation
	c.stateMutex.Unlock()

	c.emit(ev)
	go c.acquire(gen)
}

// acquire runs one acquisition attempt and applies the outcome unless the
// controller moved on (disposed or retried) in the meantime.
func (c *Controller) acquire(gen uint64) {
	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	h, err := c.provider.Acquire(ctx, c.descriptor.SourceURI, func(sig media.Signal) {
		c.onSignal(gen, sig)
	})

	c.stateMutex.Lock()
	if gen != c.generation || c.state == model.StateDisposed {
		c.stateMutex.Unlock()
		// Cancelled while in flight: the result must not be stored.
		if h != nil {
			c.provider.Release(h)
		}
		return
	}

	if err != nil {
		perr := classifyAcquireError(err)
		events := []TransitionEvent{c.transitionLocked(model.StateError, perr)}
		retry := c.autoRetries < AutoRetryLimit
		if retry {
			c.autoRetries++
			events = append(events, c.transitionLocked(model.StateInitializing, nil))
		}
		c.stateMutex.Unlock()

		c.logger.Warn("acquisition failed", "kind", perr.Kind, "retry", retry)
		c.emit(events...)
		if retry {
			go c.acquire(gen)
		}
		return
	}

	c.handle = h
	h.SetVolume(c.config.InitialVolume)
	ev := c.transitionLocked(model.StateReady, nil)
	c.stateMutex.Unlock()

	c.emit(ev)

	// Config-driven autoplay applies on first (and only) arrival at Ready.
	// The manager's pending-autoplay decision runs inside the Ready event
	// above, so it takes precedence over this rule.
	if c.config.AutoPlay {
		c.Play()
	}
}

// Play starts or resumes playback. Valid from Ready, Paused and Buffering;
// a no-op when already Playing or when no resource exists yet.
//
// Engine calls on the handle run under stateMutex so a concurrent Dispose
// cannot release the handle mid-call. Handles never call back into the
// controller; only listener delivery must stay outside the lock.
func (c *Controller) Play() {
	c.stateMutex.Lock()
	switch c.state {
	case model.StateReady, model.StatePaused:
		c.handle.Play()
		ev := c.transitionLocked(model.StatePlaying, nil)
		c.stateMutex.Unlock()
		c.emit(ev)
	case model.StateBuffering:
		// Logically playing already; the engine resumes via its own
		// buffering-end signal.
		c.stateMutex.Unlock()
	default:
		c.stateMutex.Unlock()
	}
}

// Pause suspends playback. Valid from Playing and Buffering, a no-op
// otherwise.
func (c *Controller) Pause() {
	c.stateMutex.Lock()
	switch c.state {
	case model.StatePlaying, model.StateBuffering:
		c.handle.Pause()
		ev := c.transitionLocked(model.StatePaused, nil)
		c.stateMutex.Unlock()
		c.emit(ev)
	default:
		c.stateMutex.Unlock()
	}
}

// Seek moves the playback position. Valid whenever a resource exists.
func (c *Controller) Seek(pos time.Duration) {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	if c.state.HasResource() && c.handle != nil {
		c.handle.Seek(pos)
	}
}

// Retry re-runs acquisition after a failure. Valid only from Error. Unlike
// the automatic retry, manual retries are unlimited.
func (c *Controller) Retry() {
	c.stateMutex.Lock()
	if c.state != model.StateError {
		c.stateMutex.Unlock()
		return
	}
	c.generation++
	gen := c.generation
	ev := c.transitionLocked(model.StateInitializing, nil)
	c.stateMutex.Unlock()

	c.emit(ev)
	go c.acquire(gen)
}

// Dispose releases the handle and terminates the controller. Idempotent.
// An in-flight acquisition is cancelled: its result will be discarded and
// any produced handle released on arrival.
func (c *Controller) Dispose() {
	c.stateMutex.Lock()
	if c.state == model.StateDisposed {
		c.stateMutex.Unlock()
		return
	}
	c.generation++
	h := c.handle
	c.handle = nil
	wasRendering := c.state.IsActive()
	ev := c.transitionLocked(model.StateDisposed, nil)
	c.stateMutex.Unlock()

	// No engine op can start once the state is Disposed, so the release
	// cannot overlap one.
	if h != nil {
		if wasRendering {
			h.Pause()
		}
		c.provider.Release(h)
	}
	c.emit(ev)
}

// NotifyAppBackground forces a pause when the bound config opts into app
// lifecycle handling.
func (c *Controller) NotifyAppBackground() {
	if !c.config.HandleAppLifecycle {
		return
	}
	c.Pause()
}

// NotifyAppForeground re-applies the last should-play decision when the
// bound config opts into app lifecycle handling.
func (c *Controller) NotifyAppForeground(shouldPlay bool) {
	if !c.config.HandleAppLifecycle {
		return
	}
	if shouldPlay {
		c.Play()
	}
}

// onSignal handles engine notifications for the owned handle. Signals from a
// superseded acquisition are dropped via the generation check.
func (c *Controller) onSignal(gen uint64, sig media.Signal) {
	c.stateMutex.Lock()
	if gen != c.generation || c.handle == nil {
		c.stateMutex.Unlock()
		return
	}

	switch sig {
	case media.SignalBufferingStart:
		if c.state == model.StatePlaying {
			ev := c.transitionLocked(model.StateBuffering, nil)
			c.stateMutex.Unlock()
			c.emit(ev)
			return
		}
	case media.SignalBufferingEnd:
		if c.state == model.StateBuffering {
			ev := c.transitionLocked(model.StatePlaying, nil)
			c.stateMutex.Unlock()
			c.emit(ev)
			return
		}
	case media.SignalEndOfMedia:
		if c.config.Looping {
			if c.state == model.StatePlaying {
				c.handle.Seek(0)
				c.handle.Play()
				c.stateMutex.Unlock()
				return
			}
		} else if c.state.IsActive() {
			c.handle.Pause()
			ev := c.transitionLocked(model.StatePaused, nil)
			c.stateMutex.Unlock()
			c.emit(ev)
			return
		}
	}
	c.stateMutex.Unlock()
}

// transitionLocked records a state change and builds its event. Callers hold
// stateMutex and emit the returned event after unlocking.
func (c *Controller) transitionLocked(next model.PlaybackState, perr *model.PlaybackError) TransitionEvent {
	c.state = next
	if perr != nil {
		c.lastErr = perr
	}
	ev := TransitionEvent{ID: c.descriptor.ID, State: next}
	if next == model.StateError {
		ev.Err = c.lastErr
	}
	return ev
}

// emit delivers events to the listener in order
func (c *Controller) emit(events ...TransitionEvent) {
	c.stateMutex.Lock()
	l := c.listener
	c.stateMutex.Unlock()

	for _, ev := range events {
		c.logger.Debug("state transition", "state", ev.State)
		if l != nil {
			l(ev)
		}
	}
}

// classifyAcquireError maps provider failures onto the error taxonomy
func classifyAcquireError(err error) *model.PlaybackError {
	var perr *model.PlaybackError
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.NewPlaybackError(model.ErrTimeout, "acquisition exceeded budget", err)
	}
	return model.NewPlaybackError(model.ErrResourceUnavailable, fmt.Sprintf("acquire failed: %v", err), err)
}
