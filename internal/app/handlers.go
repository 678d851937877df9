package app

import (
	"context"
	"errors"
	"io"
	"time"

	"mqtt-client-gui/internal/eventbus"
	"mqtt-client-gui/internal/logger"
	"mqtt-client-gui/internal/models"
	"mqtt-client-gui/internal/mqttclient"
	"mqtt-client-gui/internal/status"
)

const handlersComponent = "Handlers"

// View is the part of the window the handlers drive
type View interface {
	UpdateStatus(text string)
	ShowConfiguration(snapshot models.SettingsSnapshot)
	SetConnected(connected bool, broker string)
	AppendPublished(line string)
	AppendReceived(line string)
	ClearPublished()
	ClearReceived()
	ChooseSaveFile(name string, fn func(io.WriteCloser, error))
	ChooseOpenFile(fn func(io.ReadCloser, error))
}

// Client is the broker session the handlers operate
type Client interface {
	IsConnected() bool
	Connect(ctx context.Context, opts mqttclient.ConnectOptions) error
	Disconnect() error
	Publish(ctx context.Context, topic, payload string, qos byte, retain bool) error
	Subscribe(ctx context.Context, topic string, qos byte) (byte, error)
}

// Handlers run every UI action. Broker operations block, so the window calls them
// from their own goroutine; session timeouts bound each one.
type Handlers struct {
	settings *models.SettingsRepository
	client   *models.ClientState
	session  Client
	view     View
	logger   logger.Logger

	ctx context.Context
	now func() time.Time
}

func NewHandlers(ctx context.Context, settings *models.SettingsRepository, client *models.ClientState,
	session Client, view View, log logger.Logger) *Handlers {
	return &Handlers{
		settings: settings,
		client:   client,
		session:  session,
		view:     view,
		logger:   log,
		ctx:      ctx,
		now:      time.Now,
	}
}

func (h *Handlers) HandleSetBrokerIP(text string) {
	h.settings.SetBrokerIP(text)
	h.configured(status.BrokerIPSet)
}

func (h *Handlers) HandleSetPort(text string) {
	if err := h.settings.SetPort(text); err != nil {
		h.fail("set_port", err)
		return
	}
	h.configured(status.PortSet)
}

func (h *Handlers) HandleSetUsername(text string) {
	h.settings.SetUsername(text)
	h.configured(status.UsernameSet)
}

func (h *Handlers) HandleSetPassword(text string) {
	h.settings.SetPassword(text)
	h.configured(status.PasswordSet)
}

func (h *Handlers) HandleSetQoS(text string) {
	if err := h.settings.SetQoS(text); err != nil {
		h.fail("set_qos", err)
		return
	}
	h.configured(status.QoSSet)
}

func (h *Handlers) HandleSetRetain(text string) {
	if err := h.settings.SetRetain(text); err != nil {
		h.fail("set_retain", err)
		return
	}
	h.configured(status.RetainSet)
}

func (h *Handlers) HandleSetCleanSession(text string) {
	if err := h.settings.SetCleanSession(text); err != nil {
		h.fail("set_clean_session", err)
		return
	}
	h.configured(status.CleanSessionSet)
}

func (h *Handlers) HandleSetTopic(text string) {
	h.settings.SetTopic(text)
	h.configured(status.TopicSet)
}

func (h *Handlers) HandleGenerateClientID() {
	id := h.settings.GenerateClientID()
	h.logger.Debug(handlersComponent, "client id generated", map[string]interface{}{
		"client_id": id,
	})
	h.configured(status.ClientIDSet)
}

// HandleSaveSettings asks for a destination and writes the settings as JSON
func (h *Handlers) HandleSaveSettings() {
	h.view.ChooseSaveFile(status.SettingsFileName(h.now()), func(writer io.WriteCloser, err error) {
		if err != nil {
			h.fail("save_settings", err)
			return
		}
		if writer == nil {
			return
		}

		saveErr := h.settings.Save(writer)
		if err := errors.Join(saveErr, writer.Close()); err != nil {
			h.fail("save_settings", err)
			return
		}

		h.logger.Info(handlersComponent, "settings saved", nil)
		h.view.UpdateStatus(status.SettingsSaved)
	})
}

// HandleLoadSettings asks for a settings file and replaces the current configuration
func (h *Handlers) HandleLoadSettings() {
	h.view.ChooseOpenFile(func(reader io.ReadCloser, err error) {
		if err != nil {
			h.fail("load_settings", err)
			return
		}
		if reader == nil {
			return
		}

		loadErr := h.settings.Load(reader)
		if err := errors.Join(loadErr, reader.Close()); err != nil {
			h.fail("load_settings", err)
			return
		}

		h.logger.Info(handlersComponent, "settings loaded", nil)
		h.configured(status.SettingsLoaded)
	})
}

func (h *Handlers) HandleResetSettings() {
	h.settings.Reset()
	h.configured(status.SettingsReset)
}

func (h *Handlers) HandleSetMessage(text string) {
	h.client.SetMessage(text)
	h.view.UpdateStatus(status.MessageSet)
}

func (h *Handlers) HandleSetSubscribeTopic(text string) {
	h.client.SetSubscribeTopic(text)
	h.view.UpdateStatus(status.SubscribeTopicSet(text))
}

func (h *Handlers) HandleSetSubscribeQoS(text string) {
	if err := h.client.SetSubscribeQoS(text); err != nil {
		h.fail("set_subscribe_qos", err)
		return
	}
	qos, _ := models.ParseQoS(text)
	h.view.UpdateStatus(status.SubscribeQoSSet(qos))
}

// HandleConnect blocks until the broker answers or the session's connect timeout elapses
func (h *Handlers) HandleConnect() {
	if h.session.IsConnected() {
		h.view.UpdateStatus(status.AlreadyConnected)
		return
	}

	opts, err := connectOptions(h.settings.Snapshot())
	if err != nil {
		h.fail("connect", err)
		return
	}

	if err := h.session.Connect(h.ctx, opts); err != nil {
		h.view.SetConnected(false, "")
		if status.IsWarning(err) {
			h.fail("connect", err)
			return
		}
		h.logger.Error(handlersComponent, err, map[string]interface{}{
			"action": "connect",
			"broker": opts.BrokerURL(),
		})
		h.view.UpdateStatus(status.Failure(status.ConnectFailed))
		return
	}

	h.view.SetConnected(true, opts.BrokerURL())
	h.view.UpdateStatus(status.Connected)
}

func (h *Handlers) HandleDisconnect() {
	if !h.session.IsConnected() {
		h.fail("disconnect", status.ErrDisconnected)
		return
	}

	h.view.UpdateStatus(status.DisconnectRequested)
	if err := h.session.Disconnect(); err != nil {
		h.fail("disconnect", err)
	}
}

// HandlePublish sends the configured message on the configured topic
func (h *Handlers) HandlePublish() {
	if !h.session.IsConnected() {
		h.fail("publish", status.ErrDisconnected)
		return
	}

	message, ok := h.client.Message()
	if !ok {
		h.fail("publish", status.ErrNoMessage)
		return
	}

	settings := h.settings.Settings()
	if models.IsUnset(settings.Topic) || settings.Topic == "" {
		h.fail("publish", status.ErrNoPublishTopic)
		return
	}
	qos, _ := settings.QoSLevel()
	retain, _ := settings.RetainFlag()

	if err := h.session.Publish(h.ctx, settings.Topic, message, qos, retain); err != nil {
		h.fail("publish", err)
		return
	}

	h.view.AppendPublished(status.SentLine(message, settings.Topic, h.now()))
}

func (h *Handlers) HandleSubscribe() {
	if !h.session.IsConnected() {
		h.fail("subscribe", status.ErrDisconnected)
		return
	}

	topic, qos, ok := h.client.Subscription()
	if !ok {
		h.fail("subscribe", status.ErrNoSubscription)
		return
	}

	granted, err := h.session.Subscribe(h.ctx, topic, qos)
	if err != nil {
		h.fail("subscribe", err)
		return
	}

	h.view.UpdateStatus(status.Subscribed(topic, granted))
}

func (h *Handlers) HandleClearPublished() {
	h.view.ClearPublished()
}

func (h *Handlers) HandleClearReceived() {
	h.view.ClearReceived()
}

// Attach maps session events onto the view
func (h *Handlers) Attach(bus *eventbus.Bus) {
	bus.Subscribe(eventbus.EventConnected, eventbus.NewHandlerFunc(func(e eventbus.Event) {
		h.view.SetConnected(true, e.String("broker"))
	}))

	bus.Subscribe(eventbus.EventConnectFailed, eventbus.NewHandlerFunc(func(eventbus.Event) {
		h.view.SetConnected(false, "")
	}))

	bus.Subscribe(eventbus.EventDisconnected, eventbus.NewHandlerFunc(func(e eventbus.Event) {
		h.view.SetConnected(false, "")
		h.view.UpdateStatus(status.Disconnected(e.String("reason")))
	}))

	bus.Subscribe(eventbus.EventMessage, eventbus.NewHandlerFunc(func(e eventbus.Event) {
		at := e.Timestamp
		if at.IsZero() {
			at = h.now()
		}
		h.view.AppendReceived(status.ReceivedLine(e.String("payload"), e.String("topic"), at))
	}))
}

func (h *Handlers) configured(message string) {
	h.view.ShowConfiguration(h.settings.Snapshot())
	h.view.UpdateStatus(message)
}

func (h *Handlers) fail(action string, err error) {
	fields := map[string]interface{}{"action": action}
	if status.IsWarning(err) {
		fields["warning"] = err.Error()
		h.logger.Warning(handlersComponent, "operation rejected", fields)
	} else {
		h.logger.Error(handlersComponent, err, fields)
	}
	h.view.UpdateStatus(status.Format(err))
}

func connectOptions(snapshot models.SettingsSnapshot) (mqttclient.ConnectOptions, error) {
	s := snapshot.Settings

	port, ok := s.PortNumber()
	if !ok || models.IsUnset(s.BrokerIP) || s.BrokerIP == "" {
		return mqttclient.ConnectOptions{}, status.ErrNoBroker
	}

	clean, ok := s.CleanSessionFlag()
	if !ok {
		clean = true
	}

	return mqttclient.ConnectOptions{
		Host:         s.BrokerIP,
		Port:         port,
		ClientID:     optional(snapshot.ClientID),
		Username:     optional(s.Username),
		Password:     optional(s.Password),
		CleanSession: clean,
	}, nil
}

func optional(value string) string {
	if models.IsUnset(value) {
		return ""
	}
	return value
}
