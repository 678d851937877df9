package components

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// MessageLog is a scrolling, bounded list of timestamped lines
type MessageLog struct {
	container *fyne.Container
	list      *widget.List
	limit     int

	mu    sync.RWMutex
	lines []string

	onClear func()
}

func NewMessageLog(title string, limit int) *MessageLog {
	ml := &MessageLog{limit: limit}

	ml.list = widget.NewList(
		ml.length,
		func() fyne.CanvasObject {
			label := widget.NewLabel("")
			label.Truncation = fyne.TextTruncateEllipsis
			return label
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			item.(*widget.Label).SetText(ml.line(id))
		},
	)

	clearButton := widget.NewButton("Clear", func() {
		if ml.onClear != nil {
			ml.onClear()
		}
	})

	ml.container = container.NewBorder(
		widget.NewLabelWithStyle(title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(clearButton),
		nil, nil,
		ml.list,
	)

	return ml
}

func (ml *MessageLog) GetContainer() *fyne.Container {
	return ml.container
}

func (ml *MessageLog) SetClearHandler(handler func()) {
	ml.onClear = handler
}

// Append adds a line and drops the oldest once the limit is reached
func (ml *MessageLog) Append(line string) {
	ml.mu.Lock()
	ml.lines = append(ml.lines, line)
	if ml.limit > 0 && len(ml.lines) > ml.limit {
		ml.lines = append([]string(nil), ml.lines[len(ml.lines)-ml.limit:]...)
	}
	ml.mu.Unlock()

	ml.list.Refresh()
	ml.list.ScrollToBottom()
}

func (ml *MessageLog) Clear() {
	ml.mu.Lock()
	ml.lines = nil
	ml.mu.Unlock()

	ml.list.UnselectAll()
	ml.list.Refresh()
}

func (ml *MessageLog) Lines() []string {
	ml.mu.RLock()
	defer ml.mu.RUnlock()
	return append([]string(nil), ml.lines...)
}

func (ml *MessageLog) length() int {
	ml.mu.RLock()
	defer ml.mu.RUnlock()
	return len(ml.lines)
}

func (ml *MessageLog) line(id widget.ListItemID) string {
	ml.mu.RLock()
	defer ml.mu.RUnlock()
	if id < 0 || id >= len(ml.lines) {
		return ""
	}
	return ml.lines[id]
}
