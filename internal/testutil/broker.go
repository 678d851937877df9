// Package testutil starts in-process MQTT brokers for tests.
package testutil

import (
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/require"

	"mqtt-client-gui/internal/eventbus"
)

// Broker is a mochi server listening on a loopback port
type Broker struct {
	Host   string
	Port   int
	Server *mochi.Server

	stopOnce sync.Once
}

// StartBroker runs an allow-all broker on a free loopback port for the duration of t
func StartBroker(t *testing.T) *Broker {
	t.Helper()

	port := FreePort(t)

	server := mochi.New(&mochi.Options{
		InlineClient: true,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, server.AddHook(new(auth.AllowHook), nil))

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	tcp := listeners.NewTCP(listeners.Config{ID: "test", Address: addr})
	require.NoError(t, server.AddListener(tcp))

	go func() {
		_ = server.Serve()
	}()

	b := &Broker{Host: "127.0.0.1", Port: port, Server: server}
	t.Cleanup(b.Stop)
	return b
}

// Stop closes the broker and every client connection
func (b *Broker) Stop() {
	b.stopOnce.Do(func() {
		_ = b.Server.Close()
	})
}

// FreePort returns a loopback port nothing is listening on
func FreePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// EventCollector records bus events of the given types on a channel
type EventCollector struct {
	C chan eventbus.Event
}

func CollectEvents(bus *eventbus.Bus, types ...string) *EventCollector {
	c := &EventCollector{C: make(chan eventbus.Event, 64)}
	handler := eventbus.NewHandlerFunc(func(e eventbus.Event) {
		c.C <- e
	})
	for _, typ := range types {
		bus.Subscribe(typ, handler)
	}
	return c
}

// Next waits for the next event of the given type, skipping others
func (c *EventCollector) Next(t *testing.T, eventType string) eventbus.Event {
	t.Helper()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-c.C:
			if e.Type == eventType {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", eventType)
			return eventbus.Event{}
		}
	}
}
