package components

import (
	"fmt"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mqtt-client-gui/internal/models"
)

func TestConfigPanelSetButtonsPassEntryText(t *testing.T) {
	test.NewTempApp(t)

	got := map[string]string{}
	record := func(key string) func(string) {
		return func(v string) { got[key] = v }
	}

	panel := NewConfigPanel()
	panel.SetHandlers(ConfigHandlers{
		SetBrokerIP: record("broker"),
		SetPort:     record("port"),
		SetTopic:    record("topic"),
		SetQoS:      record("qos"),
		SetRetain:   record("retain"),
	})

	panel.BrokerIPEntry.SetText("127.0.0.1")
	panel.BrokerIPEntry.OnSubmitted(panel.BrokerIPEntry.Text)
	panel.PortEntry.SetText("1883")
	panel.PortEntry.OnSubmitted(panel.PortEntry.Text)
	panel.TopicEntry.SetText("home/temp")
	panel.TopicEntry.OnSubmitted(panel.TopicEntry.Text)
	panel.QoSSelect.SetSelected("2")
	panel.RetainSelect.SetSelected("True")

	assert.Equal(t, map[string]string{
		"broker": "127.0.0.1",
		"port":   "1883",
		"topic":  "home/temp",
		"qos":    "2",
		"retain": "True",
	}, got)
}

func TestConfigPanelButtonsWithoutHandlersDoNothing(t *testing.T) {
	test.NewTempApp(t)

	panel := NewConfigPanel()
	assert.NotPanics(t, func() {
		test.Tap(panel.SaveButton)
		test.Tap(panel.GenerateButton)
		panel.CleanSessionSelect.SetSelected("False")
	})
}

func TestConfigPanelActionButtons(t *testing.T) {
	test.NewTempApp(t)

	var calls []string
	panel := NewConfigPanel()
	panel.SetHandlers(ConfigHandlers{
		GenerateClientID: func() { calls = append(calls, "generate") },
		Save:             func() { calls = append(calls, "save") },
		Load:             func() { calls = append(calls, "load") },
		Reset:            func() { calls = append(calls, "reset") },
	})

	test.Tap(panel.GenerateButton)
	test.Tap(panel.SaveButton)
	test.Tap(panel.LoadButton)
	test.Tap(panel.ResetButton)

	assert.Equal(t, []string{"generate", "save", "load", "reset"}, calls)
}

func TestConfigPanelDisplaysSnapshot(t *testing.T) {
	test.NewTempApp(t)

	panel := NewConfigPanel()
	for _, key := range models.SettingsKeys() {
		assert.Equal(t, models.Unset, panel.DisplayedValue(key), key)
	}

	settings := models.DefaultSettings()
	settings.BrokerIP = "broker.local"
	settings.Port = "1883"
	settings.Password = "secret"
	settings.Retain = "False"
	panel.Update(models.SettingsSnapshot{Settings: settings, ClientID: "client_ab12cd34"})

	assert.Equal(t, "broker.local", panel.DisplayedValue(models.KeyBrokerIP))
	assert.Equal(t, "1883", panel.DisplayedValue(models.KeyPort))
	assert.Equal(t, "******", panel.DisplayedValue(models.KeyPassword))
	assert.Equal(t, "False", panel.DisplayedValue(models.KeyRetain))
	assert.Equal(t, models.Unset, panel.DisplayedValue(models.KeyTopic))
	assert.Equal(t, "client_ab12cd34", panel.DisplayedValue(clientIDLabel))
	assert.Empty(t, panel.DisplayedValue("Nope"))
}

func TestPortEntryValidator(t *testing.T) {
	test.NewTempApp(t)

	panel := NewConfigPanel()
	assert.NoError(t, panel.PortEntry.Validator("1883"))
	assert.Error(t, panel.PortEntry.Validator("18a3"))
	assert.Error(t, panel.PortEntry.Validator(""))
}

func TestClientPanelButtons(t *testing.T) {
	test.NewTempApp(t)

	var calls []string
	panel := NewClientPanel(10)
	panel.SetHandlers(ClientHandlers{
		Connect:           func() { calls = append(calls, "connect") },
		Disconnect:        func() { calls = append(calls, "disconnect") },
		Publish:           func() { calls = append(calls, "publish") },
		Subscribe:         func() { calls = append(calls, "subscribe") },
		MinimizeToTray:    func() { calls = append(calls, "tray") },
		SetMessage:        func(v string) { calls = append(calls, "message:"+v) },
		SetSubscribeTopic: func(v string) { calls = append(calls, "topic:"+v) },
		SetSubscribeQoS:   func(v string) { calls = append(calls, "qos:"+v) },
	})

	test.Tap(panel.ConnectButton)
	panel.MessageEntry.SetText("hello")
	panel.MessageEntry.OnSubmitted(panel.MessageEntry.Text)
	panel.TopicEntry.SetText("a/b")
	panel.TopicEntry.OnSubmitted(panel.TopicEntry.Text)
	panel.QoSSelect.SetSelected("1")
	test.Tap(panel.PublishButton)
	test.Tap(panel.SubscribeButton)
	test.Tap(panel.MinimizeButton)
	test.Tap(panel.DisconnectButton)

	assert.Equal(t, []string{
		"connect", "message:hello", "topic:a/b", "qos:1",
		"publish", "subscribe", "tray", "disconnect",
	}, calls)
}

func TestConnectionIndicator(t *testing.T) {
	test.NewTempApp(t)

	indicator := NewConnectionIndicator()
	assert.False(t, indicator.Connected())
	assert.Equal(t, "Disconnected", indicator.Text())
	assert.Equal(t, disconnectedColor, indicator.background.FillColor)

	indicator.SetConnected(true)
	assert.True(t, indicator.Connected())
	assert.Equal(t, "Connected", indicator.Text())
	assert.Equal(t, connectedColor, indicator.background.FillColor)

	indicator.SetConnected(false)
	assert.Equal(t, "Disconnected", indicator.Text())
}

func TestMessageLogDropsOldestLines(t *testing.T) {
	test.NewTempApp(t)

	log := NewMessageLog("Sent Messages", 3)
	for i := 1; i <= 5; i++ {
		log.Append(fmt.Sprintf("line %d", i))
	}

	assert.Equal(t, []string{"line 3", "line 4", "line 5"}, log.Lines())
	assert.Equal(t, 3, log.length())
	assert.Equal(t, "line 5", log.line(2))
	assert.Empty(t, log.line(7))
}

func TestMessageLogClear(t *testing.T) {
	test.NewTempApp(t)

	cleared := false
	log := NewMessageLog("Received Messages", 0)
	log.SetClearHandler(func() { cleared = true })
	log.Append("one")
	log.Append("two")
	assert.Len(t, log.Lines(), 2)

	log.Clear()
	assert.Empty(t, log.Lines())

	log.onClear()
	assert.True(t, cleared)
}

func TestStatusBar(t *testing.T) {
	test.NewTempApp(t)

	bar := NewStatusBar("Welcome!")
	assert.Equal(t, "Welcome!", bar.Status())

	bar.SetStatus("UserWarning: You Are Disconnected!")
	assert.Equal(t, "UserWarning: You Are Disconnected!", bar.Status())

	bar.SetBroker("tcp://127.0.0.1:1883")
	assert.Equal(t, "tcp://127.0.0.1:1883", bar.brokerLabel.Text)
}

func TestConfigPanelUpdateSyncsSelects(t *testing.T) {
	test.NewTempApp(t)

	calls := 0
	count := func(string) { calls++ }
	panel := NewConfigPanel()
	panel.SetHandlers(ConfigHandlers{SetQoS: count, SetRetain: count, SetCleanSession: count})

	panel.QoSSelect.SetSelected("2")
	panel.RetainSelect.SetSelected("True")
	require.Equal(t, 2, calls)

	settings := models.DefaultSettings()
	settings.QoS = "1"
	settings.CleanSession = "False"
	panel.Update(models.SettingsSnapshot{Settings: settings})

	assert.Equal(t, "1", panel.QoSSelect.Selected)
	assert.Equal(t, "", panel.RetainSelect.Selected)
	assert.Equal(t, "False", panel.CleanSessionSelect.Selected)

	panel.Update(models.SettingsSnapshot{Settings: models.DefaultSettings()})
	assert.Empty(t, panel.QoSSelect.Selected)
	assert.Empty(t, panel.CleanSessionSelect.Selected)

	assert.Equal(t, 2, calls)
	assert.False(t, panel.syncing)
}
