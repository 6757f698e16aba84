// faultlined is the host daemon for the Faultline incident engine. It wires
// configuration, logging, metrics and the event bus, exposes the ingest and
// reporting HTTP API, and drives periodic incident detection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HerbHall/faultline/internal/config"
	"github.com/HerbHall/faultline/internal/event"
	"github.com/HerbHall/faultline/internal/httpapi"
	"github.com/HerbHall/faultline/internal/monitor"
	"github.com/HerbHall/faultline/internal/notify"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	// Load configuration before the logger so log level/format apply.
	v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("faultlined starting")

	engineCfg, err := config.Monitor(v)
	if err != nil {
		logger.Fatal("invalid monitor configuration", zap.Error(err))
	}

	bus := event.NewBus(logger.Named("bus"))
	engine := monitor.New(engineCfg,
		monitor.WithLogger(logger.Named("monitor")),
		monitor.WithBus(bus),
		monitor.WithMetricsSink(monitor.NewPromSink(prometheus.DefaultRegisterer)),
	)

	// Optional webhook channel for alert delivery.
	if url := v.GetString("alerts.webhook.url"); url != "" {
		hook := notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:     url,
			Secret:  v.GetString("alerts.webhook.secret"),
			Headers: v.GetStringMapString("alerts.webhook.headers"),
		})
		engine.Subscribe(hook.Subscriber(logger.Named("webhook")))
		logger.Info("webhook alert channel enabled", zap.String("url", url))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodic re-evaluation of detection rules; the engine itself is
	// purely call-driven.
	interval := v.GetDuration("detect.interval")
	go runDetector(ctx, engine, interval, logger)

	srv := httpapi.New(v.GetString("server.addr"), engine, logger.Named("http"))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	engine.Stop()
	logger.Info("faultlined stopped")
}

// runDetector polls DetectIncidents until the context is canceled.
func runDetector(ctx context.Context, engine *monitor.Engine, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			open := engine.DetectIncidents()
			if len(open) > 0 {
				logger.Debug("detection pass complete", zap.Int("open_incidents", len(open)))
			}
		}
	}
}
