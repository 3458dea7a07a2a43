package visibility

import (
	"sync"
	"testing"
)

func TestUntrackedIDsNeverPlay(t *testing.T) {
	c := New(DefaultPlayThreshold, DefaultPauseThreshold)

	for _, id := range []string{"a", "b", "never-seen"} {
		if c.ShouldVideoPlay(id) {
			t.Errorf("ShouldVideoPlay(%q) = true for untracked id", id)
		}
	}
}

func TestHysteresis(t *testing.T) {
	c := New(0.5, 0.2)

	steps := []struct {
		fraction float64
		expected bool
	}{
		{0.0, false},
		{0.8, true},
		{0.3, true}, // below play threshold but above pause threshold
		{0.1, false},
		{0.4, false}, // must cross play threshold again to resume
		{0.5, true},
	}

	for i, step := range steps {
		c.UpdateVisibility("vid", step.fraction)
		if got := c.ShouldVideoPlay("vid"); got != step.expected {
			t.Errorf("step %d: fraction %.1f -> %v, expected %v", i, step.fraction, got, step.expected)
		}
	}
}

func TestNotifyOnlyOnChange(t *testing.T) {
	c := New(0.5, 0.2)

	var mu sync.Mutex
	var notifications []bool
	c.Subscribe(func(id string, shouldPlay bool) {
		mu.Lock()
		defer mu.Unlock()
		notifications = append(notifications, shouldPlay)
	})

	c.UpdateVisibility("vid", 0.1) // false, no change from default
	c.UpdateVisibility("vid", 0.9) // -> true
	c.UpdateVisibility("vid", 0.8) // still true, no notification
	c.UpdateVisibility("vid", 0.7) // still true
	c.UpdateVisibility("vid", 0.1) // -> false

	mu.Lock()
	defer mu.Unlock()
	if len(notifications) != 2 {
		t.Fatalf("notifications = %v, expected exactly 2", notifications)
	}
	if !notifications[0] || notifications[1] {
		t.Errorf("notifications = %v, expected [true false]", notifications)
	}
}

func TestFractionClamping(t *testing.T) {
	c := New(0.5, 0.2)

	c.UpdateVisibility("vid", 1.7)
	if c.VisibleFraction("vid") != 1.0 {
		t.Errorf("fraction = %f, expected clamp to 1.0", c.VisibleFraction("vid"))
	}
	if !c.ShouldVideoPlay("vid") {
		t.Error("fully visible item should play")
	}

	c.UpdateVisibility("vid", -0.3)
	if c.VisibleFraction("vid") != 0.0 {
		t.Errorf("fraction = %f, expected clamp to 0.0", c.VisibleFraction("vid"))
	}
}

func TestUntrackNotifiesPlayingItem(t *testing.T) {
	c := New(0.5, 0.2)

	var mu sync.Mutex
	var last string
	var lastPlay bool
	c.Subscribe(func(id string, shouldPlay bool) {
		mu.Lock()
		defer mu.Unlock()
		last = id
		lastPlay = shouldPlay
	})

	c.UpdateVisibility("vid", 0.9)
	c.Untrack("vid")

	mu.Lock()
	defer mu.Unlock()
	if last != "vid" || lastPlay {
		t.Errorf("untrack notification = (%q, %v), expected (vid, false)", last, lastPlay)
	}
	if c.Tracked() != 0 {
		t.Errorf("Tracked() = %d, expected 0", c.Tracked())
	}

	if c.ShouldVideoPlay("vid") {
		t.Error("untracked id must not play")
	}
}

func TestInvalidThresholdsFallBack(t *testing.T) {
	tests := []struct {
		play, pause float64
	}{
		{0, 0},
		{1.5, 0.2},
		{0.3, 0.5}, // inverted
		{0.5, -0.1},
	}

	for _, test := range tests {
		c := New(test.play, test.pause)
		c.UpdateVisibility("vid", DefaultPlayThreshold)
		if !c.ShouldVideoPlay("vid") {
			t.Errorf("New(%f, %f): default play threshold not in effect", test.play, test.pause)
		}
	}
}
