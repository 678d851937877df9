package gui

import (
	"io"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"mqtt-client-gui/internal/gui/components"
	"mqtt-client-gui/internal/logger"
	"mqtt-client-gui/internal/models"
)

const (
	ConfigurationTab = "Configuration"
	ClientTab        = "Client GUI"
)

var settingsFilter = storage.NewExtensionFileFilter([]string{".json"})

type Manager struct {
	window     fyne.Window
	logger     logger.Logger
	isShutdown atomic.Bool

	tabs        *container.AppTabs
	configPanel *components.ConfigPanel
	clientPanel *components.ClientPanel
	statusBar   *components.StatusBar
}

func NewManager(window fyne.Window, log logger.Logger, logLimit int, welcome string) *Manager {
	manager := &Manager{
		window:      window,
		logger:      log,
		configPanel: components.NewConfigPanel(),
		clientPanel: components.NewClientPanel(logLimit),
		statusBar:   components.NewStatusBar(welcome),
	}

	manager.tabs = container.NewAppTabs(
		container.NewTabItem(ConfigurationTab, manager.configPanel.GetContainer()),
		container.NewTabItem(ClientTab, manager.clientPanel.GetContainer()),
	)

	log.Info("GUIManager", "initialized", map[string]interface{}{
		"log_limit": logLimit,
	})

	return manager
}

func (m *Manager) GetMainContainer() *fyne.Container {
	return container.NewBorder(nil, m.statusBar.GetContainer(), nil, nil, m.tabs)
}

func (m *Manager) GetWindow() fyne.Window {
	return m.window
}

func (m *Manager) SetConfigHandlers(handlers components.ConfigHandlers) {
	m.configPanel.SetHandlers(handlers)
}

func (m *Manager) SetClientHandlers(handlers components.ClientHandlers) {
	m.clientPanel.SetHandlers(handlers)
}

func (m *Manager) ConfigPanel() *components.ConfigPanel {
	return m.configPanel
}

func (m *Manager) ClientPanel() *components.ClientPanel {
	return m.clientPanel
}

func (m *Manager) StatusBar() *components.StatusBar {
	return m.statusBar
}

func (m *Manager) UpdateStatus(status string) {
	fyne.Do(func() {
		m.statusBar.SetStatus(status)
		m.logger.Debug("GUIManager", "status updated", map[string]interface{}{
			"status": status,
		})
	})
}

func (m *Manager) ShowConfiguration(snapshot models.SettingsSnapshot) {
	fyne.Do(func() {
		m.configPanel.Update(snapshot)
	})
}

func (m *Manager) SetConnected(connected bool, broker string) {
	fyne.Do(func() {
		m.clientPanel.SetConnected(connected)
		if connected {
			m.statusBar.SetBroker(broker)
		} else {
			m.statusBar.SetBroker("")
		}
	})
}

func (m *Manager) AppendPublished(line string) {
	fyne.Do(func() {
		m.clientPanel.Published.Append(line)
	})
}

func (m *Manager) AppendReceived(line string) {
	fyne.Do(func() {
		m.clientPanel.Received.Append(line)
	})
}

func (m *Manager) ClearPublished() {
	fyne.Do(func() {
		m.clientPanel.Published.Clear()
	})
}

func (m *Manager) ClearReceived() {
	fyne.Do(func() {
		m.clientPanel.Received.Clear()
	})
}

// ChooseSaveFile opens a save dialog suggesting name; fn gets a nil writer on cancel
func (m *Manager) ChooseSaveFile(name string, fn func(io.WriteCloser, error)) {
	fyne.Do(func() {
		d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if writer == nil {
				fn(nil, err)
				return
			}
			fn(writer, err)
		}, m.window)
		d.SetFileName(name)
		d.SetFilter(settingsFilter)
		d.Show()
	})
}

// ChooseOpenFile opens a .json picker; fn gets a nil reader on cancel
func (m *Manager) ChooseOpenFile(fn func(io.ReadCloser, error)) {
	fyne.Do(func() {
		d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if reader == nil {
				fn(nil, err)
				return
			}
			fn(reader, err)
		}, m.window)
		d.SetFilter(settingsFilter)
		d.Show()
	})
}

func (m *Manager) ConfirmQuit(onConfirm, onCancel func()) {
	fyne.Do(func() {
		dialog.ShowConfirm("Quit", "Are You Sure?", func(ok bool) {
			if ok {
				onConfirm()
				return
			}
			onCancel()
		}, m.window)
	})
}

func (m *Manager) ShowWindow() {
	fyne.Do(func() {
		m.window.Show()
		m.window.RequestFocus()
	})
}

func (m *Manager) HideWindow() {
	fyne.Do(func() {
		m.window.Hide()
	})
}

func (m *Manager) IsShutdown() bool {
	return m.isShutdown.Load()
}

func (m *Manager) Shutdown() {
	if !m.isShutdown.CompareAndSwap(false, true) {
		return
	}

	m.logger.Info("GUIManager", "shutdown initiated", nil)
}
