package ui

import (
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/vidloop/feedplay/internal/config"
)

// Dialog size constants
const (
	SettingsDialogWidth  = 420
	SettingsDialogHeight = 400
)

// SettingsDialog represents the engine tuning dialog
type SettingsDialog struct {
	settings *config.Settings
	window   fyne.Window
	dialog   *dialog.ConfirmDialog
	onSaved  func()

	// UI components
	preloadEntry     *widget.Entry
	controllersEntry *widget.Entry
	playEntry        *widget.Entry
	pauseEntry       *widget.Entry
	latencyEntry     *widget.Entry
}

// ShowSettingsDialog creates and displays the settings dialog
func ShowSettingsDialog(window fyne.Window, settings *config.Settings, onSaved func()) {
	sd := &SettingsDialog{
		settings: settings,
		window:   window,
		onSaved:  onSaved,
	}
	sd.createUI()
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	sd.preloadEntry = widget.NewEntry()
	sd.preloadEntry.SetPlaceHolder("1-5")

	sd.controllersEntry = widget.NewEntry()
	sd.controllersEntry.SetPlaceHolder("1-12")

	sd.playEntry = widget.NewEntry()
	sd.playEntry.SetPlaceHolder("0.5")

	sd.pauseEntry = widget.NewEntry()
	sd.pauseEntry.SetPlaceHolder("0.2")

	sd.latencyEntry = widget.NewEntry()
	sd.latencyEntry.SetPlaceHolder("250")

	form := container.NewVBox(
		widget.NewLabel("Feed Engine"),
		widget.NewSeparator(),

		widget.NewLabel("Preload distance:"),
		sd.preloadEntry,

		widget.NewLabel("Max live players:"),
		sd.controllersEntry,

		widget.NewLabel("Play threshold (visible fraction):"),
		sd.playEntry,

		widget.NewLabel("Pause threshold (visible fraction):"),
		sd.pauseEntry,

		widget.NewSeparator(),
		widget.NewLabel("Simulation"),
		widget.NewSeparator(),

		widget.NewLabel("Acquire latency (ms):"),
		sd.latencyEntry,
	)

	sd.dialog = dialog.NewCustomConfirm(
		"Settings",
		"Save",
		"Cancel",
		form,
		sd.onSave,
		sd.window,
	)
	sd.dialog.Resize(fyne.NewSize(SettingsDialogWidth, SettingsDialogHeight))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.preloadEntry.SetText(strconv.Itoa(sd.settings.GetPreloadDistance()))
	sd.controllersEntry.SetText(strconv.Itoa(sd.settings.GetMaxControllers()))
	sd.playEntry.SetText(strconv.FormatFloat(sd.settings.GetPlayThreshold(), 'f', 2, 64))
	sd.pauseEntry.SetText(strconv.FormatFloat(sd.settings.GetPauseThreshold(), 'f', 2, 64))
	sd.latencyEntry.SetText(strconv.Itoa(int(sd.settings.GetSimLatency() / time.Millisecond)))
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}

	if v, err := strconv.Atoi(sd.preloadEntry.Text); err == nil {
		sd.settings.SetPreloadDistance(v)
	}
	if v, err := strconv.Atoi(sd.controllersEntry.Text); err == nil {
		sd.settings.SetMaxControllers(v)
	}
	if v, err := strconv.ParseFloat(sd.playEntry.Text, 64); err == nil {
		sd.settings.SetPlayThreshold(v)
	}
	if v, err := strconv.ParseFloat(sd.pauseEntry.Text, 64); err == nil {
		sd.settings.SetPauseThreshold(v)
	}
	if v, err := strconv.Atoi(sd.latencyEntry.Text); err == nil {
		sd.settings.SetSimLatency(time.Duration(v) * time.Millisecond)
	}

	if sd.onSaved != nil {
		sd.onSaved()
	}
}
