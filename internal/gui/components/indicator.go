package components

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
)

var (
	connectedColor    = color.NRGBA{R: 0x2e, G: 0x9e, B: 0x44, A: 0xff}
	disconnectedColor = color.NRGBA{R: 0xc6, G: 0x28, B: 0x28, A: 0xff}
)

const (
	connectedText    = "Connected"
	disconnectedText = "Disconnected"
)

// ConnectionIndicator is the red/green connection badge
type ConnectionIndicator struct {
	container  *fyne.Container
	background *canvas.Rectangle
	label      *canvas.Text
	connected  bool
}

func NewConnectionIndicator() *ConnectionIndicator {
	background := canvas.NewRectangle(disconnectedColor)
	background.CornerRadius = 8
	background.SetMinSize(fyne.NewSize(180, 36))

	label := canvas.NewText(disconnectedText, color.White)
	label.Alignment = fyne.TextAlignCenter
	label.TextStyle = fyne.TextStyle{Bold: true}
	label.TextSize = 16

	return &ConnectionIndicator{
		container:  container.NewStack(background, container.NewCenter(label)),
		background: background,
		label:      label,
	}
}

func (ci *ConnectionIndicator) GetContainer() *fyne.Container {
	return ci.container
}

func (ci *ConnectionIndicator) SetConnected(connected bool) {
	ci.connected = connected
	if connected {
		ci.background.FillColor = connectedColor
		ci.label.Text = connectedText
	} else {
		ci.background.FillColor = disconnectedColor
		ci.label.Text = disconnectedText
	}
	ci.background.Refresh()
	ci.label.Refresh()
}

func (ci *ConnectionIndicator) Connected() bool {
	return ci.connected
}

func (ci *ConnectionIndicator) Text() string {
	return ci.label.Text
}
