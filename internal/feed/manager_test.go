package feed

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vidloop/feedplay/internal/media"
	"github.com/vidloop/feedplay/internal/model"
)

// stubProvider completes acquisitions immediately unless gated
type stubProvider struct {
	mu       sync.Mutex
	gate     chan struct{} // when non-nil, Acquire blocks until closed
	failAll  bool
	failKind model.ErrorKind
	acquired int
	released int
}

type stubHandle struct {
	id string
}

func (h *stubHandle) ID() string             { return h.id }
func (h *stubHandle) Play()                  {}
func (h *stubHandle) Pause()                 {}
func (h *stubHandle) Seek(pos time.Duration) {}
func (h *stubHandle) SetVolume(v float64)    {}

func (p *stubProvider) Acquire(ctx context.Context, sourceURI string, onSignal media.SignalFunc) (media.Handle, error) {
	p.mu.Lock()
	p.acquired++
	gate := p.gate
	fail := p.failAll
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, model.NewPlaybackError(p.failKind, "scripted failure", nil)
	}
	return &stubHandle{id: sourceURI}, nil
}

func (p *stubProvider) Release(h media.Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}

func (p *stubProvider) releaseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

func (p *stubProvider) acquireCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired
}

func makeDescriptors(n int) []model.ContentDescriptor {
	out := make([]model.ContentDescriptor, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.ContentDescriptor{
			ID:            fmt.Sprintf("vid-%d", i),
			SourceURI:     fmt.Sprintf("sim://vid-%d", i),
			PositionIndex: i,
		})
	}
	return out
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitForVideoState(t *testing.T, m *Manager, id string, want model.PlaybackState) {
	t.Helper()
	waitUntil(t, fmt.Sprintf("%s to reach %s", id, want), func() bool {
		return m.GetVideoState(id).State == want
	})
}

func TestWindowMaterialization(t *testing.T) {
	p := &stubProvider{}
	m := NewManager(p, Options{})
	defer m.Close()

	m.SetDescriptors(makeDescriptors(12))
	m.SetActiveWindow(5)

	// preloadDistance=2: positions 3..7 settle to Ready
	for i := 3; i <= 7; i++ {
		waitForVideoState(t, m, fmt.Sprintf("vid-%d", i), model.StateReady)
	}

	// Outside the window nothing is materialized
	for _, i := range []int{0, 1, 2, 8, 10, 11} {
		vs := m.GetVideoState(fmt.Sprintf("vid-%d", i))
		if vs.State != model.StateNotInitialized {
			t.Errorf("vid-%d state = %s, expected NotInitialized", i, vs.State)
		}
	}

	if got := m.Stats().Controllers; got != 5 {
		t.Errorf("live controllers = %d, expected 5", got)
	}
}

func TestWindowMoveDisposesDepartedItems(t *testing.T) {
	p := &stubProvider{}
	m := NewManager(p, Options{})
	defer m.Close()

	m.SetDescriptors(makeDescriptors(12))
	m.SetActiveWindow(2)
	waitForVideoState(t, m, "vid-2", model.StateReady)

	m.SetActiveWindow(8)
	for i := 6; i <= 10; i++ {
		waitForVideoState(t, m, fmt.Sprintf("vid-%d", i), model.StateReady)
	}

	// Items that left the window revert to NotInitialized and their
	// handles are released.
	for i := 0; i <= 4; i++ {
		vs := m.GetVideoState(fmt.Sprintf("vid-%d", i))
		if vs.State != model.StateNotInitialized {
			t.Errorf("vid-%d state = %s, expected NotInitialized after leaving window", i, vs.State)
		}
	}
	waitUntil(t, "departed handles released", func() bool {
		return p.releaseCount() >= 5
	})
}

func TestPlayingItemLeavingWindowIsDisposed(t *testing.T) {
	p := &stubProvider{}
	m := NewManager(p, Options{})
	defer m.Close()

	m.SetDescriptors(makeDescriptors(12))
	m.SetActiveWindow(0)
	waitForVideoState(t, m, "vid-0", model.StateReady)

	m.UpdateVisibility("vid-0", 0.9)
	waitForVideoState(t, m, "vid-0", model.StatePlaying)

	m.SetActiveWindow(6)
	vs := m.GetVideoState("vid-0")
	if vs.State != model.StateNotInitialized {
		t.Errorf("vid-0 state = %s, expected disposal despite playing", vs.State)
	}
}

func TestPoolCap(t *testing.T) {
	p := &stubProvider{}
	m := NewManager(p, Options{PreloadDistance: 3, MaxControllers: 6})
	defer m.Close()

	// Window covers 7 positions but the cap allows only 6 live controllers
	m.SetDescriptors(makeDescriptors(12))
	m.SetActiveWindow(3)

	waitUntil(t, "pool to settle", func() bool {
		return m.Stats().Controllers == 6
	})

	time.Sleep(20 * time.Millisecond)
	stats := m.Stats()
	if stats.Controllers != 6 {
		t.Errorf("live controllers = %d, expected exactly 6", stats.Controllers)
	}
	if stats.CapEvictions == 0 {
		t.Error("cap eviction should be counted when window exceeds the cap")
	}
}

func TestVisibilityDrivesPlayback(t *testing.T) {
	p := &stubProvider{}
	m := NewManager(p, Options{})
	defer m.Close()

	m.SetDescriptors(makeDescriptors(5))
	m.SetActiveWindow(0)
	waitForVideoState(t, m, "vid-0", model.StateReady)

	m.UpdateVisibility("vid-0", 0.8)
	waitForVideoState(t, m, "vid-0", model.StatePlaying)

	// Hysteresis: below play threshold but above pause threshold
	m.UpdateVisibility("vid-0", 0.3)
	if got := m.GetVideoState("vid-0").State; got != model.StatePlaying {
		t.Errorf("state = %s, expected still Playing at fraction 0.3", got)
	}

	m.UpdateVisibility("vid-0", 0.1)
	waitForVideoState(t, m, "vid-0", model.StatePaused)
}

func TestPendingAutoplayAppliedAtReady(t *testing.T) {
	p := &stubProvider{gate: make(chan struct{})}
	m := NewManager(p, Options{})
	defer m.Close()

	m.SetDescriptors(makeDescriptors(5))
	m.SetActiveWindow(0)
	waitForVideoState(t, m, "vid-0", model.StateInitializing)

	// Visibility decides play while acquisition is still in flight
	m.UpdateVisibility("vid-0", 0.9)
	if got := m.GetVideoState("vid-0").State; got != model.StateInitializing {
		t.Fatalf("state = %s, expected Initializing before resolve", got)
	}

	close(p.gate)
	waitForVideoState(t, m, "vid-0", model.StatePlaying)
}

func TestRequestPauseOverride(t *testing.T) {
	p := &stubProvider{}
	m := NewManager(p, Options{})
	defer m.Close()

	m.SetDescriptors(makeDescriptors(5))
	m.SetActiveWindow(0)
	waitForVideoState(t, m, "vid-0", model.StateReady)

	m.UpdateVisibility("vid-0", 0.9)
	waitForVideoState(t, m, "vid-0", model.StatePlaying)

	// Double-tap pause wins over the standing visibility decision
	m.RequestPause("vid-0")
	waitForVideoState(t, m, "vid-0", model.StatePaused)

	// Unchanged visibility does not revive playback
	m.UpdateVisibility("vid-0", 0.85)
	time.Sleep(20 * time.Millisecond)
	if got := m.GetVideoState("vid-0").State; got != model.StatePaused {
		t.Fatalf("state = %s, override should persist without a flip", got)
	}

	// A visibility flip resumes visibility-derived control
	m.UpdateVisibility("vid-0", 0.05)
	m.UpdateVisibility("vid-0", 0.9)
	waitForVideoState(t, m, "vid-0", model.StatePlaying)
}

func TestRequestPlayOverride(t *testing.T) {
	p := &stubProvider{}
	m := NewManager(p, Options{})
	defer m.Close()

	m.SetDescriptors(makeDescriptors(5))
	m.SetActiveWindow(0)
	waitForVideoState(t, m, "vid-1", model.StateReady)

	// Play a barely visible item on explicit user request
	m.RequestPlay("vid-1")
	waitForVideoState(t, m, "vid-1", model.StatePlaying)
}

func TestAppLifecyclePausesAndResumes(t *testing.T) {
	p := &stubProvider{}
	m := NewManager(p, Options{})
	defer m.Close()

	m.SetDescriptors(makeDescriptors(5))
	m.SetActiveWindow(0)
	waitForVideoState(t, m, "vid-0", model.StateReady)

	m.UpdateVisibility("vid-0", 0.9)
	waitForVideoState(t, m, "vid-0", model.StatePlaying)

	m.NotifyAppLifecycle(false)
	waitForVideoState(t, m, "vid-0", model.StatePaused)

	m.NotifyAppLifecycle(true)
	waitForVideoState(t, m, "vid-0", model.StatePlaying)
}

func TestForegroundAppliesDecisionMadeWhileBackgrounded(t *testing.T) {
	p := &stubProvider{gate: make(chan struct{})}
	m := NewManager(p, Options{})
	defer m.Close()

	m.SetDescriptors(makeDescriptors(1))
	waitForVideoState(t, m, "vid-0", model.StateInitializing)

	// The should-play decision lands while backgrounded and the item is
	// still acquiring; it must survive the round trip.
	m.NotifyAppLifecycle(false)
	m.UpdateVisibility("vid-0", 1.0)
	m.NotifyAppLifecycle(true)

	close(p.gate)
	waitForVideoState(t, m, "vid-0", model.StatePlaying)
}

func TestReadyWhileBackgroundedPlaysOnForeground(t *testing.T) {
	p := &stubProvider{gate: make(chan struct{})}
	m := NewManager(p, Options{})
	defer m.Close()

	m.SetDescriptors(makeDescriptors(1))
	waitForVideoState(t, m, "vid-0", model.StateInitializing)
	m.UpdateVisibility("vid-0", 1.0)

	m.NotifyAppLifecycle(false)
	close(p.gate)
	waitForVideoState(t, m, "vid-0", model.StateReady)

	// Backgrounded: reaching Ready must not start rendering
	time.Sleep(20 * time.Millisecond)
	if got := m.GetVideoState("vid-0").State; got != model.StateReady {
		t.Fatalf("state = %s, expected Ready while backgrounded", got)
	}

	m.NotifyAppLifecycle(true)
	waitForVideoState(t, m, "vid-0", model.StatePlaying)
}

func TestGetVideoStateUnknownID(t *testing.T) {
	p := &stubProvider{}
	m := NewManager(p, Options{})
	defer m.Close()

	vs := m.GetVideoState("never-seen")
	if vs.State != model.StateNotInitialized {
		t.Errorf("state = %s, expected NotInitialized for unknown id", vs.State)
	}
	if vs.LastError != nil {
		t.Error("unknown id must not carry an error")
	}
}

func TestHandleExposedOnlyWithResource(t *testing.T) {
	p := &stubProvider{gate: make(chan struct{})}
	m := NewManager(p, Options{})
	defer m.Close()

	m.SetDescriptors(makeDescriptors(3))
	m.SetActiveWindow(0)

	if m.Handle("vid-0") != nil {
		t.Error("initializing item must not expose a handle")
	}

	close(p.gate)
	waitForVideoState(t, m, "vid-0", model.StateReady)
	if m.Handle("vid-0") == nil {
		t.Error("ready item should expose its handle")
	}
	if m.Handle("no-such-id") != nil {
		t.Error("unknown id must not expose a handle")
	}
}

func TestAcquisitionErrorIsIsolated(t *testing.T) {
	p := &stubProvider{failAll: true, failKind: model.ErrResourceUnavailable}
	m := NewManager(p, Options{})
	defer m.Close()

	descs := makeDescriptors(5)
	m.SetDescriptors(descs)
	m.SetActiveWindow(0)

	// Settle past the automatic retry so the Error state is final
	waitUntil(t, "vid-0 to fail for good", func() bool {
		if m.GetVideoState("vid-0").State != model.StateError {
			return false
		}
		time.Sleep(25 * time.Millisecond)
		return m.GetVideoState("vid-0").State == model.StateError
	})

	vs := m.GetVideoState("vid-0")
	if vs.LastError == nil || vs.LastError.Kind != model.ErrResourceUnavailable {
		t.Errorf("last error = %v, expected ResourceUnavailable", vs.LastError)
	}

	// Recovery via manual retry once the provider heals
	p.mu.Lock()
	p.failAll = false
	p.mu.Unlock()
	m.Retry("vid-0")
	waitForVideoState(t, m, "vid-0", model.StateReady)
}

func TestSubscription(t *testing.T) {
	p := &stubProvider{}
	m := NewManager(p, Options{})
	defer m.Close()

	ch, err := m.Subscribe("ui")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, err := m.Subscribe("ui"); err != ErrSubscriberExists {
		t.Errorf("duplicate Subscribe error = %v, expected ErrSubscriberExists", err)
	}

	m.SetDescriptors(makeDescriptors(3))
	m.SetActiveWindow(0)

	// Initializing then Ready must both arrive for vid-0
	var got []model.PlaybackState
	deadline := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-ch:
			if ev.ID == "vid-0" {
				got = append(got, ev.VideoState.State)
			}
		case <-deadline:
			t.Fatalf("timed out, events so far: %v", got)
		}
	}
	if got[0] != model.StateInitializing || got[1] != model.StateReady {
		t.Errorf("events = %v, expected [Initializing Ready]", got)
	}

	m.Unsubscribe("ui")
	if _, open := <-ch; open {
		// A buffered event may still be pending; drain until closed
		for range ch {
		}
	}
}

func TestSetDescriptorsResets(t *testing.T) {
	p := &stubProvider{}
	m := NewManager(p, Options{})
	defer m.Close()

	m.SetDescriptors(makeDescriptors(5))
	m.SetActiveWindow(0)
	waitForVideoState(t, m, "vid-0", model.StateReady)

	fresh := []model.ContentDescriptor{
		{ID: "new-0", SourceURI: "sim://new-0", PositionIndex: 0},
	}
	m.SetDescriptors(fresh)

	if got := m.GetVideoState("vid-0").State; got != model.StateNotInitialized {
		t.Errorf("old item state = %s, expected NotInitialized after reset", got)
	}
	waitForVideoState(t, m, "new-0", model.StateReady)
	waitUntil(t, "old handles released", func() bool {
		return p.releaseCount() >= 3
	})
}
