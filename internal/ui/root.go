package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/hashicorp/go-hclog"

	"github.com/vidloop/feedplay/internal/config"
	"github.com/vidloop/feedplay/internal/feed"
	"github.com/vidloop/feedplay/internal/model"
	"github.com/vidloop/feedplay/internal/platform"
)

// RootUI represents the main UI structure
type RootUI struct {
	window   fyne.Window
	settings *config.Settings
	manager  *feed.Manager
	logger   hclog.Logger

	// Feed source input
	sourceEntry *widget.Entry
	loadBtn     *widget.Button

	// Feed list
	scroll    *container.Scroll
	feedBox   *fyne.Container
	rows      []*VideoRow
	rowsByID  map[string]*VideoRow
	rowsMutex sync.Mutex

	// Status bar
	statsLabel    *widget.Label
	lifecycleBtn  *widget.Button
	inBackground  bool
	playlistSrc   *platform.PlaylistSource
	lastVisUpdate time.Time
	visMutex      sync.Mutex
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, app fyne.App, manager *feed.Manager, logger hclog.Logger) *RootUI {
	settings := config.NewSettings(app)

	ui := &RootUI{
		window:      window,
		settings:    settings,
		manager:     manager,
		logger:      logger,
		rowsByID:    make(map[string]*VideoRow),
		playlistSrc: platform.NewPlaylistSource(),
	}

	window.SetTitle("feedplay")
	ui.setupUI()
	ui.watchEvents()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.sourceEntry = widget.NewEntry()
	ui.sourceEntry.SetPlaceHolder("Manifest path or playlist URL")
	if path := ui.settings.GetManifestPath(); path != "" {
		ui.sourceEntry.SetText(path)
	}
	ui.sourceEntry.OnSubmitted = func(string) { ui.onLoadClick() }

	ui.loadBtn = widget.NewButton("Load", ui.onLoadClick)

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	ui.lifecycleBtn = widget.NewButton("Background", ui.onToggleLifecycle)
	ui.lifecycleBtn.Importance = widget.LowImportance

	topPanel := container.NewBorder(nil, nil, settingsBtn, container.NewHBox(ui.lifecycleBtn, ui.loadBtn), ui.sourceEntry)

	ui.feedBox = container.NewVBox()
	ui.scroll = container.NewVScroll(ui.feedBox)
	ui.scroll.OnScrolled = func(fyne.Position) { ui.onScrolled() }

	ui.statsLabel = widget.NewLabel("")
	ui.statsLabel.TextStyle = fyne.TextStyle{Monospace: true}

	content := container.NewBorder(topPanel, ui.statsLabel, nil, nil, ui.scroll)
	ui.window.SetContent(content)
	ui.window.Resize(fyne.NewSize(WindowWidth, WindowHeight))
}

// SetDescriptors replaces the rendered feed and hands the same list to the
// manager.
func (ui *RootUI) SetDescriptors(descriptors []model.ContentDescriptor) {
	ui.rowsMutex.Lock()
	ui.rows = ui.rows[:0]
	ui.rowsByID = make(map[string]*VideoRow, len(descriptors))
	ui.feedBox.RemoveAll()
	for _, desc := range descriptors {
		row := NewVideoRow(desc)
		row.SetCallbacks(ui.onRowPlay, ui.onRowPause, ui.onRowRetry)
		ui.rows = append(ui.rows, row)
		ui.rowsByID[desc.ID] = row
		ui.feedBox.Add(row)
	}
	ui.rowsMutex.Unlock()

	ui.manager.SetDescriptors(descriptors)
	ui.feedBox.Refresh()
	ui.scroll.ScrollToTop()
	ui.onScrolled()
}

// onLoadClick resolves the source entry into descriptors. Playlist URLs are
// fetched in the background; anything else is treated as a manifest path.
func (ui *RootUI) onLoadClick() {
	source := strings.TrimSpace(ui.sourceEntry.Text)
	if source == "" {
		widget.ShowPopUp(widget.NewLabel("Enter a manifest path or playlist URL"), ui.window.Canvas())
		return
	}

	if strings.Contains(source, platform.PlaylistParam) {
		go func() {
			descriptors, err := ui.playlistSrc.FetchDescriptors(context.Background(), source)
			fyne.Do(func() {
				if err != nil {
					ui.logger.Error("playlist fetch failed", "url", source, "error", err)
					widget.ShowPopUp(widget.NewLabel("Playlist fetch failed: "+err.Error()), ui.window.Canvas())
					return
				}
				ui.SetDescriptors(descriptors)
			})
		}()
		return
	}

	manifest, err := platform.LoadManifest(source)
	if err != nil {
		ui.logger.Error("manifest load failed", "path", source, "error", err)
		widget.ShowPopUp(widget.NewLabel("Manifest load failed: "+err.Error()), ui.window.Canvas())
		return
	}
	descriptors, err := manifest.Descriptors()
	if err != nil {
		widget.ShowPopUp(widget.NewLabel("Invalid manifest: "+err.Error()), ui.window.Canvas())
		return
	}
	ui.settings.SetManifestPath(source)
	ui.SetDescriptors(descriptors)
}

// onScrolled converts the current scroll geometry into per-item visibility
// fractions and repositions the preload window on the most visible row.
func (ui *RootUI) onScrolled() {
	ui.visMutex.Lock()
	now := time.Now()
	if now.Sub(ui.lastVisUpdate) < VisibilityUpdateDebounce {
		ui.visMutex.Unlock()
		return
	}
	ui.lastVisUpdate = now
	ui.visMutex.Unlock()

	viewportTop := ui.scroll.Offset.Y
	viewportBottom := viewportTop + ui.scroll.Size().Height

	ui.rowsMutex.Lock()
	rows := make([]*VideoRow, len(ui.rows))
	copy(rows, ui.rows)
	ui.rowsMutex.Unlock()

	bestFraction := 0.0
	bestIndex := -1
	for _, row := range rows {
		top := row.Position().Y
		bottom := top + row.Size().Height
		fraction := visibleFraction(top, bottom, viewportTop, viewportBottom)
		ui.manager.UpdateVisibility(row.VideoID(), fraction)
		if fraction > bestFraction {
			bestFraction = fraction
			bestIndex = row.PositionIndex()
		}
	}
	if bestIndex >= 0 {
		ui.manager.SetActiveWindow(bestIndex)
	}
	ui.refreshStats()
}

// visibleFraction returns how much of [top, bottom] overlaps the viewport,
// as a fraction of the row's own height.
func visibleFraction(top, bottom, viewportTop, viewportBottom float32) float64 {
	height := bottom - top
	if height <= 0 {
		return 0
	}
	overlapTop := top
	if viewportTop > overlapTop {
		overlapTop = viewportTop
	}
	overlapBottom := bottom
	if viewportBottom < overlapBottom {
		overlapBottom = viewportBottom
	}
	if overlapBottom <= overlapTop {
		return 0
	}
	return float64(overlapBottom-overlapTop) / float64(height)
}

// watchEvents consumes the manager's event stream and mirrors state changes
// into the rendered rows.
func (ui *RootUI) watchEvents() {
	events, err := ui.manager.Subscribe(UISubscriberID)
	if err != nil {
		ui.logger.Error("event subscription failed", "error", err)
		return
	}

	go func() {
		for event := range events {
			ev := event
			fyne.Do(func() {
				ui.rowsMutex.Lock()
				row := ui.rowsByID[ev.ID]
				ui.rowsMutex.Unlock()
				if row != nil {
					row.UpdateState(ev.VideoState)
				}
				ui.refreshStats()
			})
		}
	}()
}

// refreshStats renders the manager counters in the status bar
func (ui *RootUI) refreshStats() {
	stats := ui.manager.Stats()
	ui.statsLabel.SetText(fmt.Sprintf("items %d  live %d  evictions %d  dropped %d",
		stats.Descriptors, stats.Controllers, stats.CapEvictions, stats.DroppedEvents))
}

// onToggleLifecycle simulates the app moving to background and back
func (ui *RootUI) onToggleLifecycle() {
	ui.inBackground = !ui.inBackground
	ui.manager.NotifyAppLifecycle(!ui.inBackground)
	if ui.inBackground {
		ui.lifecycleBtn.SetText("Foreground")
	} else {
		ui.lifecycleBtn.SetText("Background")
	}
}

// onRowPlay handles an explicit play request from a row
func (ui *RootUI) onRowPlay(videoID string) {
	ui.manager.RequestPlay(videoID)
}

// onRowPause handles an explicit pause request from a row
func (ui *RootUI) onRowPause(videoID string) {
	ui.manager.RequestPause(videoID)
}

// onRowRetry handles a retry request for a failed row
func (ui *RootUI) onRowRetry(videoID string) {
	ui.manager.Retry(videoID)
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	ShowSettingsDialog(ui.window, ui.settings, func() {
		widget.ShowPopUp(widget.NewLabel("Settings saved. Reload the feed to apply."), ui.window.Canvas())
	})
}
