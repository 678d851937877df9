// Package metrics provides Prometheus instrumentation for the MQTT client.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mqtt-client-gui/internal/eventbus"
)

const DefaultNamespace = "mqtt_client"

// Metrics holds the client's counters and histograms
type Metrics struct {
	ConnectionAttempts *prometheus.CounterVec
	Disconnections     prometheus.Counter
	MessagesPublished  prometheus.Counter
	MessagesReceived   prometheus.Counter
	Subscriptions      prometheus.Counter
	AutomationActions  *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers every metric on reg. A nil reg gets a private registry.
func New(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		ConnectionAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connection_attempts_total",
				Help:      "Broker connection attempts by result",
			},
			[]string{"result"},
		),
		Disconnections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disconnections_total",
			Help:      "Disconnections, requested or lost",
		}),
		MessagesPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "Messages published",
		}),
		MessagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages received on subscribed topics",
		}),
		Subscriptions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_total",
			Help:      "Successful topic subscriptions",
		}),
		AutomationActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "automation_actions_total",
				Help:      "Automation actions by action and result",
			},
			[]string{"action", "result"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of broker operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		gatherer: reg,
	}
}

// ObserveOperation records how long a connect/publish/subscribe call took
func (m *Metrics) ObserveOperation(operation string, started time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Attach subscribes the metrics to session and automation events
func (m *Metrics) Attach(bus *eventbus.Bus) {
	bus.Subscribe(eventbus.EventConnected, eventbus.NewHandlerFunc(func(eventbus.Event) {
		m.ConnectionAttempts.WithLabelValues("success").Inc()
	}))
	bus.Subscribe(eventbus.EventConnectFailed, eventbus.NewHandlerFunc(func(eventbus.Event) {
		m.ConnectionAttempts.WithLabelValues("failure").Inc()
	}))
	bus.Subscribe(eventbus.EventDisconnected, eventbus.NewHandlerFunc(func(eventbus.Event) {
		m.Disconnections.Inc()
	}))
	bus.Subscribe(eventbus.EventPublished, eventbus.NewHandlerFunc(func(eventbus.Event) {
		m.MessagesPublished.Inc()
	}))
	bus.Subscribe(eventbus.EventMessage, eventbus.NewHandlerFunc(func(eventbus.Event) {
		m.MessagesReceived.Inc()
	}))
	bus.Subscribe(eventbus.EventSubscribed, eventbus.NewHandlerFunc(func(eventbus.Event) {
		m.Subscriptions.Inc()
	}))
	bus.Subscribe(eventbus.EventAutomation, eventbus.NewHandlerFunc(func(e eventbus.Event) {
		m.AutomationActions.WithLabelValues(e.String("action"), e.String("result")).Inc()
	}))
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
