package app

import (
	"context"

	"mqtt-client-gui/internal/logger"
	"mqtt-client-gui/internal/shutdown"
)

type Lifecycle struct {
	manager *shutdown.Manager
	logger  logger.Logger
}

func NewLifecycle(manager *shutdown.Manager, log logger.Logger) *Lifecycle {
	return &Lifecycle{
		manager: manager,
		logger:  log,
	}
}

// Register adds a component; register dependencies before their dependents
func (l *Lifecycle) Register(name string, component shutdown.Shutdownable) {
	l.manager.Register(name, component)
}

func (l *Lifecycle) Listen(onSignal func()) {
	l.manager.Listen(onSignal)
}

func (l *Lifecycle) Context() context.Context {
	return l.manager.Context()
}

// Shutdown stops components in reverse dependency order; later calls are no-ops
func (l *Lifecycle) Shutdown() {
	select {
	case <-l.manager.Done():
		return
	default:
	}

	l.logger.Info("Lifecycle", "shutdown sequence initiated", nil)
	l.manager.Shutdown()
}
