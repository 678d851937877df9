package app

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"

	"mqtt-client-gui/internal/automation"
	"mqtt-client-gui/internal/clientid"
	"mqtt-client-gui/internal/config"
	"mqtt-client-gui/internal/eventbus"
	"mqtt-client-gui/internal/gui"
	"mqtt-client-gui/internal/gui/components"
	"mqtt-client-gui/internal/logger"
	"mqtt-client-gui/internal/metrics"
	"mqtt-client-gui/internal/models"
	"mqtt-client-gui/internal/mqttclient"
	"mqtt-client-gui/internal/shutdown"
	"mqtt-client-gui/internal/status"
)

const (
	AppName         = "MQTT Client"
	AppID           = "com.mqttclient.gui"
	AppVersion      = "1.0.0"
	MinWindowWidth  = 960
	MinWindowHeight = 640
)

type Application struct {
	fyneApp    fyne.App
	window     fyne.Window
	config     config.Config
	logger     logger.Logger
	guiManager *gui.Manager
	handlers   *Handlers
	bus        *eventbus.Bus
	session    *mqttclient.Session
	metrics    *metrics.Metrics
	automator  *automation.Automator
	settings   *models.SettingsRepository
	lifecycle  *Lifecycle
	hasTray    bool
}

func NewApplication(cfg config.Config, log logger.Logger) (*Application, error) {
	fyneApp := fyneapp.NewWithID(AppID)
	return newApplication(fyneApp, cfg, log)
}

func newApplication(fyneApp fyne.App, cfg config.Config, log logger.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	window := fyneApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(MinWindowWidth, MinWindowHeight))
	window.CenterOnScreen()
	window.SetMaster()

	log.Info("Application", "starting application", map[string]interface{}{
		"version":            AppVersion,
		"automation_enabled": cfg.AutomationEnabled,
		"metrics_addr":       cfg.MetricsAddr,
	})

	shutdownManager := shutdown.NewManager(log, cfg.OperationTimeout)

	bus := eventbus.NewBus(cfg.EventBufferSize)
	bus.SetPanicHandler(func(handlerID string, recovered interface{}) {
		log.Error("EventBus", fmt.Errorf("handler panic: %v", recovered), map[string]interface{}{
			"handler": handlerID,
		})
	})

	appMetrics := metrics.New(metrics.DefaultNamespace, nil)
	appMetrics.Attach(bus)

	session := mqttclient.NewSession(mqttclient.Config{
		ConnectTimeout:   cfg.ConnectTimeout,
		OperationTimeout: cfg.OperationTimeout,
		KeepAlive:        cfg.KeepAlive,
		AutoReconnect:    cfg.AutoReconnect,
	}, bus, log)
	session.SetObserver(appMetrics)

	var automator *automation.Automator
	if cfg.AutomationEnabled {
		automator = automation.New(automation.DefaultActions(), automation.ExecRunner{}, log)
		automator.Attach(bus)
	}

	generator := clientid.NewGenerator()
	settings := models.NewSettingsRepository(generator.Generate)
	clientState := models.NewClientState()

	guiManager := gui.NewManager(window, log, cfg.MessageLogLimit, status.Welcome)
	handlers := NewHandlers(shutdownManager.Context(), settings, clientState, session, guiManager, log)
	handlers.Attach(bus)

	lifecycle := NewLifecycle(shutdownManager, log)
	lifecycle.Register("event bus", shutdown.Func(bus.Shutdown))
	if automator != nil {
		lifecycle.Register("automation", automator)
	}
	lifecycle.Register("mqtt session", session)
	lifecycle.Register("gui manager", guiManager)

	application := &Application{
		fyneApp:    fyneApp,
		window:     window,
		config:     cfg,
		logger:     log,
		guiManager: guiManager,
		handlers:   handlers,
		bus:        bus,
		session:    session,
		metrics:    appMetrics,
		automator:  automator,
		settings:   settings,
		lifecycle:  lifecycle,
	}

	application.setupHandlers()
	application.setupTray()
	application.setupWindowEvents()

	log.Info("Application", "initialization complete", nil)
	return application, nil
}

func (a *Application) setupHandlers() {
	h := a.handlers

	a.guiManager.SetConfigHandlers(components.ConfigHandlers{
		SetBrokerIP:      h.HandleSetBrokerIP,
		SetPort:          h.HandleSetPort,
		SetUsername:      h.HandleSetUsername,
		SetPassword:      h.HandleSetPassword,
		SetTopic:         h.HandleSetTopic,
		SetQoS:           h.HandleSetQoS,
		SetRetain:        h.HandleSetRetain,
		SetCleanSession:  h.HandleSetCleanSession,
		GenerateClientID: h.HandleGenerateClientID,
		Save:             h.HandleSaveSettings,
		Load:             h.HandleLoadSettings,
		Reset:            h.HandleResetSettings,
	})

	a.guiManager.SetClientHandlers(components.ClientHandlers{
		Connect:           func() { go h.HandleConnect() },
		Disconnect:        func() { go h.HandleDisconnect() },
		Publish:           func() { go h.HandlePublish() },
		Subscribe:         func() { go h.HandleSubscribe() },
		SetMessage:        h.HandleSetMessage,
		SetSubscribeTopic: h.HandleSetSubscribeTopic,
		SetSubscribeQoS:   h.HandleSetSubscribeQoS,
		ClearPublished:    h.HandleClearPublished,
		ClearReceived:     h.HandleClearReceived,
		MinimizeToTray:    a.minimizeToTray,
	})
}

// setupTray installs the Show/Hide menu when the driver has a system tray
func (a *Application) setupTray() {
	desk, ok := a.fyneApp.(desktop.App)
	if !ok {
		a.logger.Debug("Application", "system tray unavailable", nil)
		return
	}

	menu := fyne.NewMenu(AppName,
		fyne.NewMenuItem("Show", a.guiManager.ShowWindow),
		fyne.NewMenuItem("Hide", a.guiManager.HideWindow),
	)
	desk.SetSystemTrayMenu(menu)
	a.hasTray = true
}

func (a *Application) minimizeToTray() {
	if !a.hasTray {
		a.guiManager.UpdateStatus(status.Format(status.Warning("System Tray Is Not Available.")))
		return
	}
	a.guiManager.HideWindow()
}

func (a *Application) setupWindowEvents() {
	a.window.SetCloseIntercept(func() {
		a.logger.Info("Application", "close requested", nil)
		a.guiManager.ConfirmQuit(a.Quit, func() {
			a.logger.Info("Application", "quit canceled", nil)
			a.guiManager.UpdateStatus(status.Format(status.ErrQuitCanceled))
		})
	})
}

func (a *Application) Run() error {
	a.window.SetContent(a.guiManager.GetMainContainer())
	a.guiManager.ShowConfiguration(a.settings.Snapshot())

	a.logger.Info("Application", "GUI displayed", nil)
	a.window.ShowAndRun()

	a.lifecycle.Shutdown()
	return nil
}

// Quit stops every component and ends the fyne event loop
func (a *Application) Quit() {
	a.lifecycle.Shutdown()
	fyne.Do(a.fyneApp.Quit)
}

// ListenForSignals quits the application on SIGINT/SIGTERM
func (a *Application) ListenForSignals() {
	a.lifecycle.Listen(func() {
		fyne.Do(a.fyneApp.Quit)
	})
}

func (a *Application) Metrics() *metrics.Metrics {
	return a.metrics
}

// Context is cancelled once shutdown begins
func (a *Application) Context() context.Context {
	return a.lifecycle.Context()
}

func (a *Application) Shutdown() {
	a.lifecycle.Shutdown()
}
