package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/vidloop/feedplay/internal/model"
)

// VideoRow represents one feed item: a placeholder surface standing in for
// the rendered video plus a state badge and playback controls.
type VideoRow struct {
	widget.BaseWidget

	descriptor model.ContentDescriptor
	state      model.VideoState

	// UI components
	surface     *canvas.Rectangle
	titleLabel  *widget.Label
	stateLabel  *widget.Label
	detailLabel *widget.Label

	playPauseBtn *widget.Button
	retryBtn     *widget.Button

	// Callbacks
	onPlay  func(videoID string)
	onPause func(videoID string)
	onRetry func(videoID string)
}

// NewVideoRow creates a row for the given feed item
func NewVideoRow(descriptor model.ContentDescriptor) *VideoRow {
	vr := &VideoRow{
		descriptor: descriptor,
		state: model.VideoState{
			Descriptor: descriptor,
			State:      model.StateNotInitialized,
		},
	}
	vr.ExtendBaseWidget(vr)
	vr.createUI()
	vr.updateFromState()
	return vr
}

// SetCallbacks sets the playback action callbacks
func (vr *VideoRow) SetCallbacks(
	onPlay func(videoID string),
	onPause func(videoID string),
	onRetry func(videoID string),
) {
	vr.onPlay = onPlay
	vr.onPause = onPause
	vr.onRetry = onRetry
}

// VideoID returns the item identity this row renders
func (vr *VideoRow) VideoID() string {
	return vr.descriptor.ID
}

// PositionIndex returns the item's feed position
func (vr *VideoRow) PositionIndex() int {
	return vr.descriptor.PositionIndex
}

// UpdateState updates the row with a new playback snapshot. Must be called
// on the UI thread.
func (vr *VideoRow) UpdateState(state model.VideoState) {
	vr.state = state
	vr.updateFromState()
	vr.Refresh()
}

// createUI creates the UI components
func (vr *VideoRow) createUI() {
	vr.surface = canvas.NewRectangle(color.NRGBA{R: 0x20, G: 0x20, B: 0x28, A: 0xff})
	vr.surface.SetMinSize(fyne.NewSize(RowMinWidth, RowHeight))

	vr.titleLabel = widget.NewLabel(vr.descriptor.ID)
	vr.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	vr.titleLabel.Truncation = fyne.TextTruncateEllipsis

	vr.stateLabel = widget.NewLabel("")
	vr.stateLabel.Alignment = fyne.TextAlignTrailing

	vr.detailLabel = widget.NewLabel("")
	vr.detailLabel.Truncation = fyne.TextTruncateEllipsis

	vr.playPauseBtn = widget.NewButton(IconPlay, func() {
		if vr.state.State == model.StatePlaying {
			if vr.onPause != nil {
				vr.onPause(vr.descriptor.ID)
			}
			return
		}
		if vr.onPlay != nil {
			vr.onPlay(vr.descriptor.ID)
		}
	})
	vr.playPauseBtn.Importance = widget.MediumImportance

	vr.retryBtn = widget.NewButton(IconRetry, func() {
		if vr.onRetry != nil {
			vr.onRetry(vr.descriptor.ID)
		}
	})
	vr.retryBtn.Importance = widget.HighImportance
	vr.retryBtn.Hide()
}

// updateFromState updates UI components based on the playback snapshot
func (vr *VideoRow) updateFromState() {
	switch vr.state.State {
	case model.StatePlaying:
		vr.stateLabel.Importance = widget.SuccessImportance
		vr.stateLabel.SetText(IconPlay + " " + vr.state.State.String())
		vr.surface.FillColor = color.NRGBA{R: 0x10, G: 0x30, B: 0x18, A: 0xff}
	case model.StateBuffering:
		vr.stateLabel.Importance = widget.HighImportance
		vr.stateLabel.SetText(IconBuffering + " " + vr.state.State.String())
		vr.surface.FillColor = color.NRGBA{R: 0x30, G: 0x28, B: 0x10, A: 0xff}
	case model.StateError:
		vr.stateLabel.Importance = widget.DangerImportance
		vr.stateLabel.SetText(IconError + " " + vr.state.State.String())
		vr.surface.FillColor = color.NRGBA{R: 0x38, G: 0x14, B: 0x14, A: 0xff}
	case model.StatePaused:
		vr.stateLabel.Importance = widget.MediumImportance
		vr.stateLabel.SetText(IconPause + " " + vr.state.State.String())
		vr.surface.FillColor = color.NRGBA{R: 0x20, G: 0x20, B: 0x28, A: 0xff}
	default:
		vr.stateLabel.Importance = widget.LowImportance
		vr.stateLabel.SetText(vr.state.State.String())
		vr.surface.FillColor = color.NRGBA{R: 0x18, G: 0x18, B: 0x1c, A: 0xff}
	}
	vr.surface.Refresh()

	if vr.state.HasError() {
		vr.detailLabel.SetText(vr.state.LastError.Message)
	} else if vr.descriptor.DurationHint > 0 {
		vr.detailLabel.SetText(fmt.Sprintf("#%d %s %s", vr.descriptor.PositionIndex, DashPlaceholder, vr.descriptor.DurationHint))
	} else {
		vr.detailLabel.SetText(fmt.Sprintf("#%d", vr.descriptor.PositionIndex))
	}

	vr.updateButtons()
}

// updateButtons updates button states based on playback state
func (vr *VideoRow) updateButtons() {
	switch vr.state.State {
	case model.StatePlaying:
		vr.playPauseBtn.SetText(IconPause)
		vr.playPauseBtn.Enable()
		vr.retryBtn.Hide()
	case model.StateReady, model.StatePaused, model.StateBuffering:
		vr.playPauseBtn.SetText(IconPlay)
		vr.playPauseBtn.Enable()
		vr.retryBtn.Hide()
	case model.StateError:
		vr.playPauseBtn.SetText(IconPlay)
		vr.playPauseBtn.Disable()
		vr.retryBtn.Show()
	default:
		vr.playPauseBtn.SetText(IconPlay)
		vr.playPauseBtn.Disable()
		vr.retryBtn.Hide()
	}
}

// CreateRenderer creates the widget renderer
func (vr *VideoRow) CreateRenderer() fyne.WidgetRenderer {
	badge := container.NewHBox(vr.stateLabel, vr.playPauseBtn, vr.retryBtn)
	header := container.NewBorder(nil, nil, vr.titleLabel, badge)
	overlay := container.NewBorder(header, vr.detailLabel, nil, nil, nil)
	content := container.NewStack(vr.surface, overlay)
	return widget.NewSimpleRenderer(container.NewVBox(content, widget.NewSeparator()))
}
