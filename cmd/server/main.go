// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the synthroute server.
// The server routes synthesis requests across multiple OpenAI-compatible
// backends with health-aware failover and a deterministic local fallback.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/mindmesh/synthroute/internal/api"
	"github.com/mindmesh/synthroute/internal/backend"
	"github.com/mindmesh/synthroute/internal/buildinfo"
	"github.com/mindmesh/synthroute/internal/config"
	"github.com/mindmesh/synthroute/internal/events"
	"github.com/mindmesh/synthroute/internal/executor"
	"github.com/mindmesh/synthroute/internal/health"
	"github.com/mindmesh/synthroute/internal/intent"
	"github.com/mindmesh/synthroute/internal/logging"
	"github.com/mindmesh/synthroute/internal/queue"
	"github.com/mindmesh/synthroute/internal/service"
	"github.com/mindmesh/synthroute/internal/strategy"
	"github.com/mindmesh/synthroute/internal/synthesis"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	fmt.Printf("synthroute Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Configure File Path")
	flag.Parse()

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		return
	}

	// Load environment variables from .env if present.
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Errorf("failed to load config from %s: %v", configPath, err)
		return
	}

	applyLogSettings(cfg)

	bus := events.NewBus()
	defer bus.Shutdown()
	subscribeEventLog(bus)

	registry, err := buildRegistry(cfg)
	if err != nil {
		log.Errorf("failed to build backend registry: %v", err)
		return
	}

	oracle := health.NewOracle(healthConfig(cfg), cfg.BackendNames(), bus)
	roles := strategy.Backends{
		Precision:    cfg.Roles.Precision,
		Creative:     cfg.Roles.Creative,
		HighCapacity: cfg.Roles.HighCapacity,
	}
	selector := strategy.NewSelector(intent.NewClassifier(), oracle, roles)
	local := synthesis.NewLocal(cfg.Fragments)
	exec := executor.New(registry, oracle, executor.NewAffinityTable(roles), local, bus)

	ctrl := queue.NewController(queue.Config{
		HighWorkers:       cfg.Admission.HighWorkers,
		HighOverflow:      cfg.Admission.HighOverflow,
		QueueCapacity:     cfg.Admission.QueueCapacity,
		BackgroundWorkers: cfg.Admission.BackgroundWorkers,
	}, exec, bus)
	defer ctrl.Stop()

	svc := service.New(selector, ctrl, synthesis.NewCombiner(), local)
	server := api.NewServer(svc, oracle, ctrl)

	// Hot reload applies log settings only. Backend and admission changes
	// need a restart; the watcher logs a notice so operators know.
	watcher, err := config.NewWatcher(configPath, func(updated *config.Config) {
		applyLogSettings(updated)
		log.Info("configuration reloaded; backend and admission changes take effect on restart")
	})
	if err != nil {
		log.WithError(err).Warn("config watcher unavailable, hot reload disabled")
	} else {
		defer func() { _ = watcher.Stop() }()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("synthroute listening on %s", addr)
		if errServe := httpServer.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			log.Errorf("server error: %v", errServe)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if errShutdown := httpServer.Shutdown(shutdownCtx); errShutdown != nil {
		log.Errorf("shutdown error: %v", errShutdown)
	}
}

// applyLogSettings pushes the config's logging section onto the global
// logger. Called at startup and again on every config reload.
func applyLogSettings(cfg *config.Config) {
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	if err := logging.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogDir); err != nil {
		log.WithError(err).Warn("failed to configure log output")
	}
}

// buildRegistry constructs one client per configured backend.
func buildRegistry(cfg *config.Config) (*backend.Registry, error) {
	clients := make([]backend.Client, 0, len(cfg.Backends))
	for _, bc := range cfg.Backends {
		clients = append(clients, backend.NewOpenAICompat(backend.Config{
			Name:              bc.Name,
			BaseURL:           bc.BaseURL,
			APIKey:            bc.APIKey,
			Model:             bc.Model,
			Timeout:           bc.Timeout.Std(),
			RequestsPerMinute: bc.RequestsPerMinute,
			MaxTokens:         bc.MaxTokens,
			Temperature:       bc.Temperature,
			SystemPrompt:      bc.SystemPrompt,
		}))
	}
	return backend.NewRegistry(clients...)
}

// healthConfig maps the config file's health section onto oracle settings,
// keeping defaults for fields left at zero.
func healthConfig(cfg *config.Config) health.Config {
	hc := health.DefaultConfig()
	if cfg.Health.EWMAAlpha > 0 {
		hc.EWMAAlpha = cfg.Health.EWMAAlpha
	}
	if cfg.Health.Window.Std() > 0 {
		hc.Window = cfg.Health.Window.Std()
	}
	if cfg.Health.ErrorRateThreshold > 0 {
		hc.ErrorRateThreshold = cfg.Health.ErrorRateThreshold
	}
	if cfg.Health.MinSamples > 0 {
		hc.MinSamples = cfg.Health.MinSamples
	}
	if cfg.Health.Cooldown.Std() > 0 {
		hc.Cooldown = cfg.Health.Cooldown.Std()
	}
	return hc
}

// subscribeEventLog mirrors routing events into the structured log so
// circuit and failover activity is visible without the metrics endpoint.
func subscribeEventLog(bus *events.Bus) {
	logEvent := func(ev *events.Event) {
		log.WithFields(log.Fields{
			"event":      string(ev.Type),
			"backend":    ev.Backend,
			"request_id": ev.RequestID,
		}).Info("routing event")
	}
	bus.Subscribe(events.EventCircuitOpened, logEvent)
	bus.Subscribe(events.EventCircuitClosed, logEvent)
	bus.Subscribe(events.EventFailover, logEvent)
	bus.Subscribe(events.EventLocalFallback, logEvent)
	bus.Subscribe(events.EventQueueSaturated, logEvent)
}
