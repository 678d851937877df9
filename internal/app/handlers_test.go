package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mqtt-client-gui/internal/clientid"
	"mqtt-client-gui/internal/eventbus"
	"mqtt-client-gui/internal/logger"
	"mqtt-client-gui/internal/models"
	"mqtt-client-gui/internal/mqttclient"
	"mqtt-client-gui/internal/status"
	"mqtt-client-gui/internal/testutil"
)

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type fakeView struct {
	mu         sync.Mutex
	statuses   []string
	snapshot   models.SettingsSnapshot
	connected  bool
	broker     string
	published  []string
	received   []string
	saveName   string
	saveTarget io.WriteCloser
	openSource io.ReadCloser
	dialogErr  error
}

func (f *fakeView) UpdateStatus(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, text)
}

func (f *fakeView) ShowConfiguration(snapshot models.SettingsSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = snapshot
}

func (f *fakeView) SetConnected(connected bool, broker string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = connected
	f.broker = broker
}

func (f *fakeView) AppendPublished(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, line)
}

func (f *fakeView) AppendReceived(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, line)
}

func (f *fakeView) ClearPublished() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = nil
}

func (f *fakeView) ClearReceived() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = nil
}

func (f *fakeView) ChooseSaveFile(name string, fn func(io.WriteCloser, error)) {
	f.mu.Lock()
	f.saveName = name
	target, err := f.saveTarget, f.dialogErr
	f.mu.Unlock()
	fn(target, err)
}

func (f *fakeView) ChooseOpenFile(fn func(io.ReadCloser, error)) {
	f.mu.Lock()
	source, err := f.openSource, f.dialogErr
	f.mu.Unlock()
	fn(source, err)
}

func (f *fakeView) lastStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return ""
	}
	return f.statuses[len(f.statuses)-1]
}

func (f *fakeView) isConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeView) brokerURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.broker
}

func (f *fakeView) receivedLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}

type handlerFixture struct {
	handlers *Handlers
	view     *fakeView
	settings *models.SettingsRepository
	session  *mqttclient.Session
	bus      *eventbus.Bus
}

var fixedNow = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	bus := eventbus.NewBus(64)
	t.Cleanup(bus.Shutdown)

	cfg := mqttclient.DefaultConfig()
	cfg.ConnectTimeout = 2 * time.Second
	cfg.OperationTimeout = 2 * time.Second
	session := mqttclient.NewSession(cfg, bus, logger.NoOpLogger{})
	t.Cleanup(session.Close)

	view := &fakeView{}
	settings := models.NewSettingsRepository(clientid.NewSeededGenerator(1, 2).Generate)
	h := NewHandlers(context.Background(), settings, models.NewClientState(), session, view, logger.NoOpLogger{})
	h.now = func() time.Time { return fixedNow }
	h.Attach(bus)

	return &handlerFixture{handlers: h, view: view, settings: settings, session: session, bus: bus}
}

func TestConfigurationHandlersUpdateViewAndStatus(t *testing.T) {
	f := newHandlerFixture(t)
	h := f.handlers

	tests := []struct {
		name   string
		action func()
		status string
	}{
		{"broker ip", func() { h.HandleSetBrokerIP("10.0.0.5") }, status.BrokerIPSet},
		{"port", func() { h.HandleSetPort("1884") }, status.PortSet},
		{"username", func() { h.HandleSetUsername("user") }, status.UsernameSet},
		{"password", func() { h.HandleSetPassword("pass") }, status.PasswordSet},
		{"qos", func() { h.HandleSetQoS("2") }, status.QoSSet},
		{"retain", func() { h.HandleSetRetain("True") }, status.RetainSet},
		{"clean session", func() { h.HandleSetCleanSession("False") }, status.CleanSessionSet},
		{"topic", func() { h.HandleSetTopic("home/lamp") }, status.TopicSet},
		{"client id", h.HandleGenerateClientID, status.ClientIDSet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.action()
			assert.Equal(t, tt.status, f.view.lastStatus())
		})
	}

	shown := f.view.snapshot
	assert.Equal(t, "10.0.0.5", shown.Settings.BrokerIP)
	assert.Equal(t, "1884", shown.Settings.Port)
	assert.Equal(t, "2", shown.Settings.QoS)
	assert.Equal(t, "True", shown.Settings.Retain)
	assert.Equal(t, "False", shown.Settings.CleanSession)
	assert.Equal(t, "home/lamp", shown.Settings.Topic)
	assert.True(t, strings.HasPrefix(shown.ClientID, "client_"))

	h.HandleResetSettings()
	assert.Equal(t, status.SettingsReset, f.view.lastStatus())
	assert.Equal(t, models.DefaultSettings(), f.view.snapshot.Settings)
}

func TestInvalidConfigurationIsReported(t *testing.T) {
	f := newHandlerFixture(t)

	f.handlers.HandleSetPort("eighty")
	assert.True(t, strings.HasPrefix(f.view.lastStatus(), "Error Has Occurred: "), f.view.lastStatus())
	assert.Equal(t, models.Unset, f.settings.Settings().Port)

	f.handlers.HandleSetQoS("5")
	assert.Contains(t, f.view.lastStatus(), "QoS must be 0, 1 or 2")

	f.handlers.HandleSetSubscribeQoS("x")
	assert.True(t, strings.HasPrefix(f.view.lastStatus(), "Error Has Occurred: "))
}

func TestSaveAndLoadSettings(t *testing.T) {
	f := newHandlerFixture(t)
	h := f.handlers

	h.HandleSetBrokerIP("broker.local")
	h.HandleSetPort("1883")
	h.HandleSetRetain("False")

	var buf bytes.Buffer
	f.view.saveTarget = nopWriteCloser{&buf}
	h.HandleSaveSettings()

	assert.Equal(t, "current_settings_05_03_24_14_07.json", f.view.saveName)
	assert.Equal(t, status.SettingsSaved, f.view.lastStatus())
	assert.Contains(t, buf.String(), `"Broker IP":"broker.local"`)

	h.HandleResetSettings()
	f.view.openSource = io.NopCloser(bytes.NewReader(buf.Bytes()))
	h.HandleLoadSettings()

	assert.Equal(t, status.SettingsLoaded, f.view.lastStatus())
	assert.Equal(t, "broker.local", f.view.snapshot.Settings.BrokerIP)
	assert.Equal(t, "1883", f.view.snapshot.Settings.Port)
	assert.Equal(t, "False", f.view.snapshot.Settings.Retain)
}

func TestCancelledDialogsLeaveStateAlone(t *testing.T) {
	f := newHandlerFixture(t)

	f.handlers.HandleSaveSettings()
	f.handlers.HandleLoadSettings()

	assert.Empty(t, f.view.lastStatus())
}

func TestDialogAndDecodeErrors(t *testing.T) {
	f := newHandlerFixture(t)

	f.view.dialogErr = errors.New("permission denied")
	f.handlers.HandleSaveSettings()
	assert.Equal(t, "Error Has Occurred: permission denied", f.view.lastStatus())

	f.view.dialogErr = nil
	f.view.openSource = io.NopCloser(strings.NewReader(`{"Broker IP": "x"}`))
	f.handlers.HandleLoadSettings()
	assert.True(t, strings.HasPrefix(f.view.lastStatus(), "Error Has Occurred: "))
	assert.Equal(t, models.Unset, f.settings.Settings().BrokerIP)
}

func TestClientActionsRequireConnection(t *testing.T) {
	f := newHandlerFixture(t)
	want := status.Format(status.ErrDisconnected)

	f.handlers.HandlePublish()
	assert.Equal(t, want, f.view.lastStatus())

	f.handlers.HandleSubscribe()
	assert.Equal(t, want, f.view.lastStatus())

	f.handlers.HandleDisconnect()
	assert.Equal(t, want, f.view.lastStatus())
}

func TestConnectRequiresBroker(t *testing.T) {
	f := newHandlerFixture(t)

	f.handlers.HandleConnect()
	assert.Equal(t, "UserWarning: You Didn't Set a Broker IP and Port.", f.view.lastStatus())

	f.handlers.HandleSetBrokerIP("127.0.0.1")
	f.handlers.HandleConnect()
	assert.Equal(t, "UserWarning: You Didn't Set a Broker IP and Port.", f.view.lastStatus())
}

func TestConnectFailureIsReported(t *testing.T) {
	f := newHandlerFixture(t)

	f.handlers.HandleSetBrokerIP("127.0.0.1")
	f.handlers.HandleSetPort(strconv.Itoa(testutil.FreePort(t)))
	f.handlers.HandleConnect()

	assert.Equal(t, "Error Has Occurred: Mqtt Client Couldn't Connect!", f.view.lastStatus())
	assert.False(t, f.view.isConnected())
}

func TestConnectedEventCarriesBroker(t *testing.T) {
	f := newHandlerFixture(t)

	require.True(t, f.bus.Publish(eventbus.Event{
		Type: eventbus.EventConnected,
		Data: map[string]interface{}{"broker": "tcp://10.0.0.9:1883"},
	}))

	require.Eventually(t, func() bool {
		return f.view.brokerURL() == "tcp://10.0.0.9:1883"
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, f.view.isConnected())
}

func TestClientSessionFlow(t *testing.T) {
	broker := testutil.StartBroker(t)
	f := newHandlerFixture(t)
	h := f.handlers

	h.HandleSetBrokerIP(broker.Host)
	h.HandleSetPort(strconv.Itoa(broker.Port))
	h.HandleGenerateClientID()

	h.HandleConnect()
	require.Equal(t, status.Connected, f.view.lastStatus())
	assert.True(t, f.view.isConnected())
	assert.Equal(t, "tcp://"+broker.Host+":"+strconv.Itoa(broker.Port), f.view.brokerURL())

	h.HandleConnect()
	assert.Equal(t, status.AlreadyConnected, f.view.lastStatus())

	h.HandleSubscribe()
	assert.Equal(t, status.Format(status.ErrNoSubscription), f.view.lastStatus())

	h.HandleSetSubscribeTopic("test/#")
	assert.Equal(t, status.SubscribeTopicSet("test/#"), f.view.lastStatus())
	h.HandleSetSubscribeQoS("1")
	assert.Equal(t, status.SubscribeQoSSet(1), f.view.lastStatus())

	h.HandleSubscribe()
	require.Equal(t, status.Subscribed("test/#", 1), f.view.lastStatus())

	h.HandleSubscribe()
	assert.Equal(t, status.Format(status.ErrAlreadySubscribed), f.view.lastStatus())

	h.HandlePublish()
	assert.Equal(t, status.Format(status.ErrNoMessage), f.view.lastStatus())

	h.HandleSetMessage("hello")
	assert.Equal(t, status.MessageSet, f.view.lastStatus())
	h.HandlePublish()
	assert.Equal(t, status.Format(status.ErrNoPublishTopic), f.view.lastStatus())

	h.HandleSetTopic("test/lamp")
	h.HandlePublish()
	assert.Equal(t, []string{"Sent:  hello  to: test/lamp at: 14:07:09 05/03/24"}, f.view.published)

	h.HandleSetMessage("")
	h.HandlePublish()
	assert.Equal(t, "Sent:    to: test/lamp at: 14:07:09 05/03/24", f.view.published[1])

	require.Eventually(t, func() bool {
		return len(f.view.receivedLines()) == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, strings.HasPrefix(f.view.receivedLines()[0], "Received: hello from: test/lamp at: "))

	h.HandleClearPublished()
	h.HandleClearReceived()
	assert.Empty(t, f.view.published)
	assert.Empty(t, f.view.receivedLines())

	h.HandleDisconnect()
	require.Eventually(t, func() bool {
		return f.view.lastStatus() == status.Disconnected("")
	}, 5*time.Second, 10*time.Millisecond)
	assert.False(t, f.view.isConnected())
}

func TestConnectOptionsDefaults(t *testing.T) {
	settings := models.DefaultSettings()
	settings.BrokerIP = "broker"
	settings.Port = "1883"

	opts, err := connectOptions(models.SettingsSnapshot{Settings: settings, ClientID: models.Unset})
	require.NoError(t, err)
	assert.Equal(t, mqttclient.ConnectOptions{Host: "broker", Port: 1883, CleanSession: true}, opts)

	settings.Username = "u"
	settings.Password = "p"
	settings.CleanSession = "False"
	opts, err = connectOptions(models.SettingsSnapshot{Settings: settings, ClientID: "client_x"})
	require.NoError(t, err)
	assert.Equal(t, mqttclient.ConnectOptions{
		Host: "broker", Port: 1883, ClientID: "client_x", Username: "u", Password: "p",
	}, opts)
}
