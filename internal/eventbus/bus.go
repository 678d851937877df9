package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session events
const (
	EventConnected     = "mqtt.connected"
	EventConnectFailed = "mqtt.connect_failed"
	EventDisconnected  = "mqtt.disconnected"
	EventPublished     = "mqtt.published"
	EventSubscribed    = "mqtt.subscribed"
	EventMessage       = "mqtt.message"
	EventAutomation    = "automation.performed"
)

var ErrClosed = errors.New("event bus is shut down")

type Event struct {
	Type      string
	Timestamp time.Time
	Data      map[string]interface{}
	Context   context.Context
}

// String returns Data[key] as a string, or "" when absent
func (e Event) String(key string) string {
	v, ok := e.Data[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

type EventHandler interface {
	Handle(event Event)
	GetID() string
}

// HandlerFunc adapts a function into an EventHandler with a unique identity
type HandlerFunc struct {
	id string
	fn func(Event)
}

func NewHandlerFunc(fn func(Event)) *HandlerFunc {
	return &HandlerFunc{id: uuid.NewString(), fn: fn}
}

func (h *HandlerFunc) Handle(event Event) { h.fn(event) }
func (h *HandlerFunc) GetID() string      { return h.id }

type Bus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	buffer      chan Event
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	closeOnce   sync.Once
	onPanic     func(handlerID string, recovered interface{})
}

func NewBus(bufferSize int) *Bus {
	ctx, cancel := context.WithCancel(context.Background())

	bus := &Bus{
		subscribers: make(map[string][]EventHandler),
		buffer:      make(chan Event, bufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}

	bus.startWorker()
	return bus
}

// SetPanicHandler installs a callback for handlers that panic
func (b *Bus) SetPanicHandler(fn func(handlerID string, recovered interface{})) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onPanic = fn
}

// Publish queues the event and returns false when the buffer is full or the bus
// is shut down
func (b *Bus) Publish(event Event) bool {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case <-b.ctx.Done():
		return false
	default:
	}

	select {
	case b.buffer <- event:
		return true
	default:
		return false
	}
}

// PublishWait queues the event, waiting for buffer space until ctx ends or the
// bus shuts down
func (b *Bus) PublishWait(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case <-b.ctx.Done():
		return ErrClosed
	default:
	}

	select {
	case b.buffer <- event:
		return nil
	case <-b.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

func (b *Bus) Unsubscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.subscribers[eventType]
	for i, h := range handlers {
		if h.GetID() == handler.GetID() {
			b.subscribers[eventType] = append(handlers[:i:i], handlers[i+1:]...)
			break
		}
	}
}

// Shutdown stops accepting events, delivers what is already queued and waits
// for the worker to exit.
func (b *Bus) Shutdown() {
	b.closeOnce.Do(func() {
		b.cancel()
		b.wg.Wait()
	})
}

func (b *Bus) startWorker() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		for {
			select {
			case event := <-b.buffer:
				b.dispatchEvent(event)
			case <-b.ctx.Done():
				b.drain()
				return
			}
		}
	}()
}

func (b *Bus) drain() {
	for {
		select {
		case event := <-b.buffer:
			b.dispatchEvent(event)
		default:
			return
		}
	}
}

// dispatchEvent delivers to handlers one at a time so every handler observes
// events in publish order.
func (b *Bus) dispatchEvent(event Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.subscribers[event.Type]))
	copy(handlers, b.subscribers[event.Type])
	onPanic := b.onPanic
	b.mu.RUnlock()

	for _, handler := range handlers {
		func(h EventHandler) {
			defer func() {
				if r := recover(); r != nil && onPanic != nil {
					onPanic(h.GetID(), r)
				}
			}()
			h.Handle(event)
		}(handler)
	}
}
