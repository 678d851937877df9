package main

import (
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"mqtt-client-gui/internal/app"
	"mqtt-client-gui/internal/config"
	"mqtt-client-gui/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration failed: %v", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Configuration failed: %v", err)
	}
	appLogger := logger.New(os.Stderr, level, cfg.JSONLogs)

	application, err := app.NewApplication(cfg, appLogger)
	if err != nil {
		log.Fatalf("Application initialization failed: %v", err)
	}

	g, ctx := errgroup.WithContext(application.Context())
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			appLogger.Info("Main", "serving metrics", map[string]interface{}{
				"addr": cfg.MetricsAddr,
			})
			return application.Metrics().Serve(ctx, cfg.MetricsAddr)
		})
	}

	application.ListenForSignals()

	if err := application.Run(); err != nil {
		log.Fatalf("Application execution failed: %v", err)
	}

	application.Shutdown()
	if err := g.Wait(); err != nil {
		appLogger.Error("Main", err, nil)
		os.Exit(1)
	}

	appLogger.Info("Main", "application terminated", nil)
}
