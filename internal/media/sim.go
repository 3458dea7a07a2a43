package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/vidloop/feedplay/internal/model"
)

// Default simulated acquisition latency
const (
	DefaultSimLatency = 150 * time.Millisecond
)

// SimProvider is a simulated media engine. It produces handles after a
// configurable latency, supports scripted acquisition failures per source,
// and lets callers inject buffering and end-of-media signals into live
// sessions. Counters make release behavior assertable in tests.
type SimProvider struct {
	mu       sync.Mutex
	latency  time.Duration
	failures map[string]*failurePlan
	sessions map[string]*simSession // by handle id
	logger   hclog.Logger

	acquireCount  uint64
	releaseCount  uint64
	doubleRelease uint64
}

type failurePlan struct {
	remaining int
	kind      model.ErrorKind
}

// NewSimProvider creates a simulated provider with the given acquisition
// latency. A nil logger defaults to a named no-frills logger.
func NewSimProvider(latency time.Duration, logger hclog.Logger) *SimProvider {
	if logger == nil {
		logger = hclog.New(&hclog.LoggerOptions{Name: "simengine"})
	}
	return &SimProvider{
		latency:  latency,
		failures: make(map[string]*failurePlan),
		sessions: make(map[string]*simSession),
		logger:   logger,
	}
}

// FailNext makes the next n acquisitions for sourceURI fail with the given
// error kind. Subsequent acquisitions succeed again.
func (p *SimProvider) FailNext(sourceURI string, n int, kind model.ErrorKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[sourceURI] = &failurePlan{remaining: n, kind: kind}
}

// Acquire opens a simulated session after the configured latency
func (p *SimProvider) Acquire(ctx context.Context, sourceURI string, onSignal SignalFunc) (Handle, error) {
	p.mu.Lock()
	p.acquireCount++
	p.mu.Unlock()

	if p.latency > 0 {
		select {
		case <-time.After(p.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if plan, ok := p.failures[sourceURI]; ok && plan.remaining > 0 {
		plan.remaining--
		p.logger.Debug("scripted acquire failure", "source", sourceURI, "kind", plan.kind)
		return nil, model.NewPlaybackError(plan.kind, fmt.Sprintf("simulated failure for %s", sourceURI), nil)
	}

	s := &simSession{
		id:        newSessionID(),
		sourceURI: sourceURI,
		onSignal:  onSignal,
	}
	p.sessions[s.id] = s
	p.logger.Debug("session acquired", "source", sourceURI, "handle", s.id)
	return s, nil
}

// Release closes a simulated session. Releasing an unknown or already
// released handle is counted but otherwise ignored.
func (p *SimProvider) Release(h Handle) {
	if h == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.sessions[h.ID()]; !ok {
		p.doubleRelease++
		p.logger.Warn("release of unknown handle", "handle", h.ID())
		return
	}
	delete(p.sessions, h.ID())
	p.releaseCount++
	p.logger.Debug("session released", "handle", h.ID())
}

// InjectBuffering delivers an underrun or resume signal to a live session.
// Returns false if the handle is not live.
func (p *SimProvider) InjectBuffering(handleID string, buffering bool) bool {
	sig := SignalBufferingEnd
	if buffering {
		sig = SignalBufferingStart
	}
	return p.inject(handleID, sig)
}

// InjectEndOfMedia delivers an end-of-media signal to a live session
func (p *SimProvider) InjectEndOfMedia(handleID string) bool {
	return p.inject(handleID, SignalEndOfMedia)
}

func (p *SimProvider) inject(handleID string, sig Signal) bool {
	p.mu.Lock()
	s, ok := p.sessions[handleID]
	p.mu.Unlock()
	if !ok || s.onSignal == nil {
		return false
	}
	s.onSignal(sig)
	return true
}

// ActiveSessions returns the number of live (unreleased) sessions
func (p *SimProvider) ActiveSessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// AcquireCount returns the number of acquisition attempts so far
func (p *SimProvider) AcquireCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquireCount
}

// ReleaseCount returns the number of successful releases so far
func (p *SimProvider) ReleaseCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.releaseCount
}

// DoubleReleaseCount returns the number of release calls that did not match
// a live session. The engine keeps this at zero.
func (p *SimProvider) DoubleReleaseCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doubleRelease
}

// simSession implements Handle for the simulated engine
type simSession struct {
	mu        sync.Mutex
	id        string
	sourceURI string
	onSignal  SignalFunc

	playing  bool
	position time.Duration
	volume   float64
}

func (s *simSession) ID() string {
	return s.id
}

func (s *simSession) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
}

func (s *simSession) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

func (s *simSession) Seek(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = pos
}

func (s *simSession) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.volume = v
}

// Playing reports whether the simulated session is rendering
func (s *simSession) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// newSessionID generates a unique session id
func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
