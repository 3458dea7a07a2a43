// Command feedsim drives the feed engine against the simulated media
// provider without a UI. It scrolls through a feed the way a user would,
// printing every state transition, and is the quickest way to observe
// windowing, visibility gating and cap evictions from a terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/vidloop/feedplay/internal/feed"
	"github.com/vidloop/feedplay/internal/media"
	"github.com/vidloop/feedplay/internal/model"
	"github.com/vidloop/feedplay/internal/platform"
)

const (
	defaultItems     = 12
	defaultDwell     = 400 * time.Millisecond
	defaultLatency   = 80 * time.Millisecond
	drainGracePeriod = 300 * time.Millisecond
)

func main() {
	manifestPath := flag.String("manifest", "", "TOML feed manifest; a synthetic feed is used when empty")
	items := flag.Int("items", defaultItems, "synthetic feed length")
	preload := flag.Int("preload", feed.DefaultPreloadDistance, "preload window half-width")
	maxLive := flag.Int("cap", feed.DefaultMaxControllers, "hard cap on live players")
	latency := flag.Duration("latency", defaultLatency, "simulated acquisition latency")
	dwell := flag.Duration("dwell", defaultDwell, "time spent on each item before scrolling on")
	failEvery := flag.Int("fail-every", 0, "inject one acquisition failure on every Nth item (0 = none)")
	background := flag.Bool("background", false, "dip into background mid-scroll")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := hclog.Warn
	if *verbose {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "feedsim",
		Level: level,
	})

	descriptors, err := loadDescriptors(*manifestPath, *items)
	if err != nil {
		fmt.Fprintf(os.Stderr, "feedsim: %v\n", err)
		os.Exit(1)
	}

	provider := media.NewSimProvider(*latency, logger.Named("media"))
	if *failEvery > 0 {
		for i, d := range descriptors {
			if (i+1)%*failEvery == 0 {
				provider.FailNext(d.SourceURI, 1, model.ErrResourceUnavailable)
			}
		}
	}

	manager := feed.NewManager(provider, feed.Options{
		PreloadDistance: *preload,
		MaxControllers:  *maxLive,
		Logger:          logger.Named("feed"),
	})

	events, err := manager.Subscribe("feedsim")
	if err != nil {
		fmt.Fprintf(os.Stderr, "feedsim: %v\n", err)
		os.Exit(1)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if ev.VideoState.HasError() {
				fmt.Printf("%-12s %-14s %v\n", ev.ID, ev.VideoState.State, ev.VideoState.LastError)
				continue
			}
			fmt.Printf("%-12s %-14s\n", ev.ID, ev.VideoState.State)
		}
	}()

	manager.SetDescriptors(descriptors)
	scroll(manager, descriptors, *dwell, *background)

	// Let in-flight transitions land before tearing down.
	time.Sleep(drainGracePeriod)
	stats := manager.Stats()
	fmt.Printf("\nitems=%d live=%d evictions=%d dropped=%d acquired=%d released=%d\n",
		stats.Descriptors, stats.Controllers, stats.CapEvictions, stats.DroppedEvents,
		provider.AcquireCount(), provider.ReleaseCount())

	manager.Close()
	<-done
}

// loadDescriptors reads the manifest when given one, otherwise fabricates a
// synthetic feed of the requested length.
func loadDescriptors(path string, items int) ([]model.ContentDescriptor, error) {
	if path != "" {
		m, err := platform.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		return m.Descriptors()
	}

	descriptors := make([]model.ContentDescriptor, 0, items)
	for i := 0; i < items; i++ {
		descriptors = append(descriptors, model.ContentDescriptor{
			ID:            fmt.Sprintf("clip-%02d", i),
			SourceURI:     fmt.Sprintf("sim://clip-%02d", i),
			DurationHint:  15 * time.Second,
			PositionIndex: i,
		})
	}
	return descriptors, nil
}

// scroll walks the feed one item at a time, emitting the visibility
// fractions a vertically snapping feed produces: the focused item fills the
// viewport, its neighbors peek in at the edges.
func scroll(manager *feed.Manager, descriptors []model.ContentDescriptor, dwell time.Duration, background bool) {
	for i, d := range descriptors {
		manager.SetActiveWindow(d.PositionIndex)
		manager.UpdateVisibility(d.ID, 1.0)
		if i > 0 {
			manager.UpdateVisibility(descriptors[i-1].ID, 0.05)
		}
		if i+1 < len(descriptors) {
			manager.UpdateVisibility(descriptors[i+1].ID, 0.15)
		}
		time.Sleep(dwell)

		if background && i == len(descriptors)/2 {
			fmt.Println("-- app backgrounded --")
			manager.NotifyAppLifecycle(false)
			time.Sleep(dwell)
			fmt.Println("-- app foregrounded --")
			manager.NotifyAppLifecycle(true)
			time.Sleep(dwell)
		}
	}
}
