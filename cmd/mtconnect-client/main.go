// Package main implements the entry point for the MTConnect Agent client.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/mtconnect-client/bridge/nats"
	"github.com/c360/mtconnect-client/bridge/wsbroadcast"
	"github.com/c360/mtconnect-client/component"
	"github.com/c360/mtconnect-client/config"
	"github.com/c360/mtconnect-client/health"
	"github.com/c360/mtconnect-client/metric"
	"github.com/c360/mtconnect-client/session"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "mtconnect-client"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	file, err := loadConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("configuration is valid")
		return nil
	}

	safeCfg := config.NewSafeConfig(file)
	registry := metric.NewMetricsRegistry()
	monitor := health.NewMonitor()

	sessionClient, bridges, err := buildSessionClient(safeCfg.Get(), registry, monitor)
	if err != nil {
		return err
	}

	var httpServer *http.Server
	if addr := safeCfg.Get().MetricsAddr; addr != "" {
		httpServer = newAmbientHTTPServer(addr, registry, monitor)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("ambient http server failed", "error", err)
			}
		}()
	}

	return runWithSignalHandling(sessionClient, bridges, httpServer, cliCfg.ShutdownTimeout)
}

func initializeCLI() (*CLIConfig, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("starting mtconnect-client", "version", Version, "build_time", BuildTime, "config_path", cliCfg.ConfigPath)
	return cliCfg, false, nil
}

func loadConfiguration(cliCfg *CLIConfig) (*config.File, error) {
	file, err := config.LoadFile(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.ApplyEnvOverrides(file)
	return file, nil
}

// buildSessionClient wires a session.Client, then builds each enabled
// republish bridge against the client's own Subscription Surface. Bridges
// run independently of the Client's internal bridge list (session.WithBridge)
// because they need a *session.Subscriptions that only exists once the
// client has been constructed.
func buildSessionClient(file *config.File, registry *metric.MetricsRegistry, monitor *health.Monitor) (*session.Client, []component.Lifecycle, error) {
	cfg := file.ToSessionConfiguration()

	client, err := session.New(cfg, session.WithMetrics(registry.CoreMetrics()))
	if err != nil {
		return nil, nil, fmt.Errorf("build session client: %w", err)
	}

	var bridges []component.Lifecycle
	subs := client.Subscriptions()

	if file.NatsURL != "" {
		bridges = append(bridges, nats.NewBridge(file.NatsURL, subs, file.DeviceName, registry.CoreMetrics(), slog.Default()))
	}
	if file.WSBroadcastAddr != "" {
		bridges = append(bridges, wsbroadcast.NewBridge(file.WSBroadcastAddr, "/ws", subs, file.DeviceName, slog.Default()))
	}

	monitor.UpdateHealthy("session", "constructed")
	return client, bridges, nil
}

func newAmbientHTTPServer(addr string, registry *metric.MetricsRegistry, monitor *health.Monitor) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry.PrometheusRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		status := monitor.AggregateHealth(appName)
		w.Header().Set("Content-Type", "application/json")
		if !status.IsHealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func runWithSignalHandling(client *session.Client, bridges []component.Lifecycle, httpServer *http.Server, shutdownTimeout time.Duration) error {
	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	for _, b := range bridges {
		if err := b.Initialize(); err != nil {
			return fmt.Errorf("initialize bridge: %w", err)
		}
		b := b
		go func() {
			if err := b.Start(signalCtx); err != nil {
				slog.Error("bridge exited with error", "error", err)
			}
		}()
	}

	go func() {
		if err := client.Start(signalCtx); err != nil {
			slog.Error("session client exited with error", "error", err)
		}
	}()

	slog.Info("mtconnect-client started")
	<-signalCtx.Done()
	slog.Info("received shutdown signal")

	if err := client.Stop(shutdownTimeout); err != nil {
		slog.Error("session client stop failed", "error", err)
	}
	for _, b := range bridges {
		if err := b.Stop(shutdownTimeout); err != nil {
			slog.Error("bridge stop failed", "error", err)
		}
	}
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}

	slog.Info("mtconnect-client shutdown complete")
	return nil
}
