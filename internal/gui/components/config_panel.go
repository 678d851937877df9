package components

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/validation"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"mqtt-client-gui/internal/models"
)

var (
	QoSOptions  = []string{"0", "1", "2"}
	FlagOptions = []string{"True", "False"}
)

const clientIDLabel = "Client ID"

// ConfigHandlers receives every action of the configuration tab
type ConfigHandlers struct {
	SetBrokerIP      func(string)
	SetPort          func(string)
	SetUsername      func(string)
	SetPassword      func(string)
	SetTopic         func(string)
	SetQoS           func(string)
	SetRetain        func(string)
	SetCleanSession  func(string)
	GenerateClientID func()
	Save             func()
	Load             func()
	Reset            func()
}

type ConfigPanel struct {
	container *fyne.Container
	handlers  ConfigHandlers

	BrokerIPEntry *widget.Entry
	PortEntry     *widget.Entry
	UsernameEntry *widget.Entry
	PasswordEntry *widget.Entry
	TopicEntry    *widget.Entry

	QoSSelect          *widget.Select
	RetainSelect       *widget.Select
	CleanSessionSelect *widget.Select

	GenerateButton *widget.Button
	SaveButton     *widget.Button
	LoadButton     *widget.Button
	ResetButton    *widget.Button

	values map[string]*widget.Label

	// syncing is set while Update mirrors the record into the selects
	syncing bool
}

func NewConfigPanel() *ConfigPanel {
	cp := &ConfigPanel{values: make(map[string]*widget.Label)}
	cp.setupPanel()
	return cp
}

func (cp *ConfigPanel) setupPanel() {
	cp.BrokerIPEntry = widget.NewEntry()
	cp.BrokerIPEntry.SetPlaceHolder("Broker IP")

	cp.PortEntry = widget.NewEntry()
	cp.PortEntry.SetPlaceHolder("Port")
	cp.PortEntry.Validator = validation.NewRegexp(`^[0-9]{1,5}$`, "port must be a number")

	cp.UsernameEntry = widget.NewEntry()
	cp.UsernameEntry.SetPlaceHolder("Username")

	cp.PasswordEntry = widget.NewPasswordEntry()
	cp.PasswordEntry.SetPlaceHolder("Password")

	cp.TopicEntry = widget.NewEntry()
	cp.TopicEntry.SetPlaceHolder("Topic")

	entries := container.New(layout.NewFormLayout(),
		cp.entryButton("Set Broker IP", cp.BrokerIPEntry, func() func(string) { return cp.handlers.SetBrokerIP }),
		cp.BrokerIPEntry,
		cp.entryButton("Set Port", cp.PortEntry, func() func(string) { return cp.handlers.SetPort }),
		cp.PortEntry,
		cp.entryButton("Set Username", cp.UsernameEntry, func() func(string) { return cp.handlers.SetUsername }),
		cp.UsernameEntry,
		cp.entryButton("Set Password", cp.PasswordEntry, func() func(string) { return cp.handlers.SetPassword }),
		cp.PasswordEntry,
		cp.entryButton("Set Topic", cp.TopicEntry, func() func(string) { return cp.handlers.SetTopic }),
		cp.TopicEntry,
	)

	cp.QoSSelect = widget.NewSelect(QoSOptions, func(value string) {
		if !cp.syncing && cp.handlers.SetQoS != nil {
			cp.handlers.SetQoS(value)
		}
	})
	cp.QoSSelect.PlaceHolder = "QoS"

	cp.RetainSelect = widget.NewSelect(FlagOptions, func(value string) {
		if !cp.syncing && cp.handlers.SetRetain != nil {
			cp.handlers.SetRetain(value)
		}
	})
	cp.RetainSelect.PlaceHolder = "Retain"

	cp.CleanSessionSelect = widget.NewSelect(FlagOptions, func(value string) {
		if !cp.syncing && cp.handlers.SetCleanSession != nil {
			cp.handlers.SetCleanSession(value)
		}
	})
	cp.CleanSessionSelect.PlaceHolder = "Clean Session"

	selects := container.NewGridWithColumns(3, cp.QoSSelect, cp.RetainSelect, cp.CleanSessionSelect)

	cp.GenerateButton = widget.NewButton("Generate Client ID", func() {
		if cp.handlers.GenerateClientID != nil {
			cp.handlers.GenerateClientID()
		}
	})
	cp.SaveButton = widget.NewButton("Save Settings", func() {
		if cp.handlers.Save != nil {
			cp.handlers.Save()
		}
	})
	cp.LoadButton = widget.NewButton("Load Settings", func() {
		if cp.handlers.Load != nil {
			cp.handlers.Load()
		}
	})
	cp.ResetButton = widget.NewButton("Reset Settings", func() {
		if cp.handlers.Reset != nil {
			cp.handlers.Reset()
		}
	})

	actions := container.NewGridWithColumns(2,
		cp.GenerateButton, cp.ResetButton,
		cp.SaveButton, cp.LoadButton,
	)

	editor := widget.NewCard("Configuration Panel", "", container.NewVBox(entries, selects, actions))
	current := widget.NewCard("Current Configuration", "", cp.setupDisplay())

	cp.container = container.NewGridWithColumns(2, editor, current)
}

func (cp *ConfigPanel) setupDisplay() *fyne.Container {
	display := container.New(layout.NewFormLayout())
	for _, key := range append([]string{clientIDLabel}, models.SettingsKeys()...) {
		value := widget.NewLabel(models.Unset)
		value.Truncation = fyne.TextTruncateEllipsis
		cp.values[key] = value
		display.Add(widget.NewLabelWithStyle(key+":", fyne.TextAlignTrailing, fyne.TextStyle{Bold: true}))
		display.Add(value)
	}
	return display
}

// entryButton builds a Set button that also fires on Enter in its entry
func (cp *ConfigPanel) entryButton(label string, entry *widget.Entry, handler func() func(string)) *widget.Button {
	submit := func() {
		if h := handler(); h != nil {
			h(entry.Text)
		}
	}
	entry.OnSubmitted = func(string) { submit() }
	return widget.NewButton(label, submit)
}

func (cp *ConfigPanel) GetContainer() *fyne.Container {
	return cp.container
}

func (cp *ConfigPanel) SetHandlers(handlers ConfigHandlers) {
	cp.handlers = handlers
}

// Update refreshes the current configuration display and the option selects
func (cp *ConfigPanel) Update(snapshot models.SettingsSnapshot) {
	s := snapshot.Settings
	clientID := snapshot.ClientID
	if clientID == "" {
		clientID = models.Unset
	}

	cp.values[clientIDLabel].SetText(clientID)
	cp.values[models.KeyBrokerIP].SetText(s.BrokerIP)
	cp.values[models.KeyPort].SetText(s.Port)
	cp.values[models.KeyUsername].SetText(s.Username)
	cp.values[models.KeyPassword].SetText(maskPassword(s.Password))
	cp.values[models.KeyQoS].SetText(s.QoS)
	cp.values[models.KeyRetain].SetText(s.Retain)
	cp.values[models.KeyCleanSession].SetText(s.CleanSession)
	cp.values[models.KeyTopic].SetText(s.Topic)

	cp.syncing = true
	defer func() { cp.syncing = false }()
	syncSelect(cp.QoSSelect, s.QoS)
	syncSelect(cp.RetainSelect, s.Retain)
	syncSelect(cp.CleanSessionSelect, s.CleanSession)
}

func syncSelect(sel *widget.Select, value string) {
	if models.IsUnset(value) {
		if sel.Selected != "" {
			sel.ClearSelected()
		}
		return
	}
	if sel.Selected != value {
		sel.SetSelected(value)
	}
}

// DisplayedValue returns the text shown for a key in the current configuration panel
func (cp *ConfigPanel) DisplayedValue(key string) string {
	if label, ok := cp.values[key]; ok {
		return label.Text
	}
	return ""
}

func maskPassword(password string) string {
	if models.IsUnset(password) {
		return models.Unset
	}
	return strings.Repeat("*", len(password))
}
