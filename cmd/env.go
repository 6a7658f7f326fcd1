package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"plancraft/internal/client"
	"plancraft/internal/config"
	"plancraft/internal/formatting"
	"plancraft/internal/metrics"
	"plancraft/internal/notify"
	"plancraft/pkg/logging"
)

// environment bundles what a command needs once the config is loaded.
type environment struct {
	cfg       config.Config
	formatter formatting.Formatter
	notifier  notify.Notifier
	registry  *prometheus.Registry
	collector *metrics.Collector
	level     logging.LogLevel

	stopMetrics func()
}

func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.LoadConfig(configDir())
	if err != nil {
		var ce config.ConfigurationError
		if errors.As(err, &ce) {
			return nil, errors.New(ce.DetailedError())
		}
		return nil, err
	}

	levelText := logLevel
	if levelText == "" {
		levelText = cfg.Logging.Level
	}
	level, err := logging.ParseLevel(levelText)
	if err != nil {
		return nil, err
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())

	format, err := formatting.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if len(cfg.Notify.Templates) > 0 {
		tn, err := notify.NewTemplateNotifier(notifier, cfg.Notify.Templates)
		if err != nil {
			return nil, fmt.Errorf("invalid notification templates: %w", err)
		}
		notifier = tn
	}

	registry := prometheus.NewRegistry()
	env := &environment{
		cfg:         cfg,
		formatter:   formatting.New(formatting.Options{Format: format}),
		notifier:    notifier,
		registry:    registry,
		collector:   metrics.New(registry),
		level:       level,
		stopMetrics: func() {},
	}
	if metricsAddr != "" {
		env.stopMetrics = serveMetrics(metricsAddr, registry)
	}
	return env, nil
}

// close releases what loadEnvironment started.
func (e *environment) close() {
	e.stopMetrics()
}

func (e *environment) newClient(ctx context.Context) (*client.Client, error) {
	opts := e.cfg.API.ClientOptions()
	opts.UserAgent = "plancraft/" + GetVersion()
	return client.New(ctx, opts)
}

// serveMetrics exposes registry on addr until the returned stop function
// is called.
func serveMetrics(addr string, registry *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logging.Info("Metrics", "Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics", err, "Metrics server stopped")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
