// Package mqttclient wraps the paho MQTT client with the connect, publish,
// subscribe and disconnect operations the UI drives. Library callbacks are
// forwarded as events on the event bus.
package mqttclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"mqtt-client-gui/internal/eventbus"
	"mqtt-client-gui/internal/logger"
	"mqtt-client-gui/internal/status"
)

const (
	component       = "Session"
	disconnectQuiet = 250 // milliseconds
	subscribeFailed = 0x80
)

var (
	ErrTimeout           = errors.New("operation timed out")
	ErrSubscribeRejected = errors.New("subscription rejected by broker")
)

// EventPublisher receives session events. PublishWait may block; the paho
// router waits with it, so a slow consumer slows delivery instead of losing events.
type EventPublisher interface {
	PublishWait(ctx context.Context, event eventbus.Event) error
}

// OperationObserver records operation latency
type OperationObserver interface {
	ObserveOperation(operation string, started time.Time)
}

type Config struct {
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
	KeepAlive        time.Duration
	AutoReconnect    bool
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   5 * time.Second,
		OperationTimeout: 5 * time.Second,
		KeepAlive:        60 * time.Second,
	}
}

// ConnectOptions describes the broker and the identity to connect with
type ConnectOptions struct {
	Host         string
	Port         int
	ClientID     string
	Username     string
	Password     string
	CleanSession bool
}

// BrokerURL returns the tcp:// address paho dials
func (o ConnectOptions) BrokerURL() string {
	return "tcp://" + net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

type Session struct {
	config   Config
	events   EventPublisher
	logger   logger.Logger
	observer OperationObserver

	// ops serialises connect, disconnect and subscribe
	ops sync.Mutex

	mu         sync.RWMutex
	client     mqtt.Client
	broker     string
	connected  bool
	subscribed bool
	topic      string
}

func NewSession(config Config, events EventPublisher, log logger.Logger) *Session {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &Session{
		config: config,
		events: events,
		logger: log,
	}
}

// SetObserver installs an operation latency observer
func (s *Session) SetObserver(observer OperationObserver) {
	s.observer = observer
}

func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Session) IsSubscribed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscribed
}

// SubscribedTopic returns the active subscription filter, "" when none
func (s *Session) SubscribedTopic() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topic
}

// Connect dials the broker and waits for the CONNACK. It is a no-op while a
// connection is already up.
func (s *Session) Connect(ctx context.Context, opts ConnectOptions) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	if s.IsConnected() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(opts.Host) == "" || opts.Port == 0 {
		return status.ErrNoBroker
	}

	started := time.Now()
	defer s.observe("connect", started)

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL()).
		SetClientID(opts.ClientID).
		SetCleanSession(opts.CleanSession).
		SetConnectTimeout(s.config.ConnectTimeout).
		SetKeepAlive(s.config.KeepAlive).
		SetAutoReconnect(s.config.AutoReconnect).
		SetConnectRetry(false).
		SetOrderMatters(true)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	clientOpts.SetOnConnectHandler(s.onConnect)
	clientOpts.SetConnectionLostHandler(s.onConnectionLost)
	clientOpts.SetDefaultPublishHandler(s.onMessage)

	client := mqtt.NewClient(clientOpts)

	s.mu.Lock()
	s.client = client
	s.broker = opts.BrokerURL()
	s.mu.Unlock()

	s.logger.Info(component, "connecting to broker", map[string]interface{}{
		"broker":        opts.BrokerURL(),
		"client_id":     opts.ClientID,
		"clean_session": opts.CleanSession,
	})

	if err := waitToken(ctx, client.Connect(), s.config.ConnectTimeout); err != nil {
		client.Disconnect(0)

		s.mu.Lock()
		if s.client == client {
			s.client = nil
			s.connected = false
		}
		s.mu.Unlock()

		s.publish(eventbus.EventConnectFailed, map[string]interface{}{
			"broker": opts.BrokerURL(),
			"error":  err.Error(),
		})
		return fmt.Errorf("connect to %s: %w", opts.BrokerURL(), err)
	}

	s.mu.Lock()
	s.connected = true
	s.subscribed = false
	s.mu.Unlock()

	return nil
}

// Disconnect closes the connection after a short quiesce period
func (s *Session) Disconnect() error {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.mu.Lock()
	client := s.client
	if client == nil || !s.connected {
		s.mu.Unlock()
		return status.ErrDisconnected
	}
	s.client = nil
	s.connected = false
	s.subscribed = false
	s.topic = ""
	s.mu.Unlock()

	client.Disconnect(disconnectQuiet)

	s.logger.Info(component, "disconnected from broker", nil)
	s.publish(eventbus.EventDisconnected, map[string]interface{}{"reason": ""})
	return nil
}

// Publish sends one message and waits for the broker acknowledgement the QoS
// level requires
func (s *Session) Publish(ctx context.Context, topic, payload string, qos byte, retain bool) error {
	client, err := s.connectedClient()
	if err != nil {
		return err
	}
	if topic == "" {
		return status.ErrNoPublishTopic
	}

	started := time.Now()
	defer s.observe("publish", started)

	if err := waitToken(ctx, client.Publish(topic, qos, retain, payload), s.config.OperationTimeout); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	s.logger.Debug(component, "message published", map[string]interface{}{
		"topic":  topic,
		"qos":    qos,
		"retain": retain,
	})
	s.publish(eventbus.EventPublished, map[string]interface{}{
		"topic":   topic,
		"payload": payload,
		"qos":     qos,
	})
	return nil
}

// Subscribe registers a single topic filter. Only one subscription is active at a time.
func (s *Session) Subscribe(ctx context.Context, topic string, qos byte) (byte, error) {
	s.ops.Lock()
	defer s.ops.Unlock()

	client, err := s.connectedClient()
	if err != nil {
		return 0, err
	}
	if topic == "" {
		return 0, status.ErrNoSubscription
	}

	s.mu.Lock()
	if s.subscribed {
		s.mu.Unlock()
		return 0, status.ErrAlreadySubscribed
	}
	s.subscribed = true
	s.mu.Unlock()

	started := time.Now()
	defer s.observe("subscribe", started)

	token := client.Subscribe(topic, qos, nil)
	granted, err := s.awaitSubscription(ctx, token, topic)
	if err != nil {
		s.mu.Lock()
		s.subscribed = false
		s.mu.Unlock()
		return 0, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	s.mu.Lock()
	s.topic = topic
	s.mu.Unlock()

	s.logger.Info(component, "subscribed", map[string]interface{}{
		"topic":       topic,
		"granted_qos": granted,
	})
	s.publish(eventbus.EventSubscribed, map[string]interface{}{
		"topic":       topic,
		"granted_qos": granted,
	})
	return granted, nil
}

func (s *Session) awaitSubscription(ctx context.Context, token mqtt.Token, topic string) (byte, error) {
	if err := waitToken(ctx, token, s.config.OperationTimeout); err != nil {
		return 0, err
	}

	st, ok := token.(*mqtt.SubscribeToken)
	if !ok {
		return 0, nil
	}
	granted, ok := st.Result()[topic]
	if !ok {
		return 0, nil
	}
	if granted == subscribeFailed {
		return 0, ErrSubscribeRejected
	}
	return granted, nil
}

// Close drops the connection without reporting a missing one
func (s *Session) Close() {
	if err := s.Disconnect(); err != nil && !errors.Is(err, status.ErrDisconnected) {
		s.logger.Error(component, err, nil)
	}
}

// Shutdown satisfies the shutdown manager's component contract
func (s *Session) Shutdown() {
	s.Close()
}

func (s *Session) connectedClient() (mqtt.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client == nil || !s.connected {
		return nil, status.ErrDisconnected
	}
	return s.client, nil
}

func (s *Session) onConnect(client mqtt.Client) {
	s.mu.Lock()
	if s.client != client {
		s.mu.Unlock()
		return
	}
	s.connected = true
	broker := s.broker
	s.mu.Unlock()

	opts := client.OptionsReader()
	s.logger.Info(component, "connected to broker", map[string]interface{}{
		"client_id": opts.ClientID(),
		"broker":    broker,
	})
	s.publish(eventbus.EventConnected, map[string]interface{}{
		"client_id": opts.ClientID(),
		"broker":    broker,
	})
}

func (s *Session) onConnectionLost(client mqtt.Client, err error) {
	s.mu.Lock()
	if s.client != client {
		s.mu.Unlock()
		return
	}
	s.connected = false
	s.subscribed = false
	s.topic = ""
	s.mu.Unlock()

	reason := ""
	if err != nil {
		reason = err.Error()
	}
	s.logger.Warning(component, "connection lost", map[string]interface{}{
		"reason": reason,
	})
	s.publish(eventbus.EventDisconnected, map[string]interface{}{"reason": reason})
}

func (s *Session) onMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := strings.ToValidUTF8(string(msg.Payload()), "")

	s.logger.Debug(component, "message received", map[string]interface{}{
		"topic": msg.Topic(),
		"bytes": len(msg.Payload()),
	})
	s.publish(eventbus.EventMessage, map[string]interface{}{
		"topic":    msg.Topic(),
		"payload":  payload,
		"qos":      msg.Qos(),
		"retained": msg.Retained(),
	})
}

func (s *Session) publish(eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	event := eventbus.Event{Type: eventType, Timestamp: time.Now(), Data: data}
	if err := s.events.PublishWait(context.Background(), event); err != nil {
		s.logger.Warning(component, "event not delivered", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func (s *Session) observe(operation string, started time.Time) {
	if s.observer != nil {
		s.observer.ObserveOperation(operation, started)
	}
}

// waitToken blocks until the token completes, the timeout elapses or ctx ends
func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
