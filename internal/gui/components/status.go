package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type StatusBar struct {
	container   *fyne.Container
	statusLabel *widget.Label
	brokerLabel *widget.Label
}

func NewStatusBar(initial string) *StatusBar {
	statusLabel := widget.NewLabel(initial)
	statusLabel.Truncation = fyne.TextTruncateEllipsis
	brokerLabel := widget.NewLabel("")

	mainContainer := container.NewBorder(
		nil, nil,
		nil,
		brokerLabel,
		statusLabel,
	)

	return &StatusBar{
		container:   mainContainer,
		statusLabel: statusLabel,
		brokerLabel: brokerLabel,
	}
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

func (sb *StatusBar) SetStatus(status string) {
	sb.statusLabel.SetText(status)
}

func (sb *StatusBar) Status() string {
	return sb.statusLabel.Text
}

// SetBroker shows the broker the session is attached to, empty when offline
func (sb *StatusBar) SetBroker(url string) {
	sb.brokerLabel.SetText(url)
}
