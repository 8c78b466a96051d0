package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/api/rest"
	"github.com/fortuna/courtvision/internal/api/websocket"
	"github.com/fortuna/courtvision/internal/assistant"
	"github.com/fortuna/courtvision/internal/config"
	"github.com/fortuna/courtvision/internal/logging"
	"github.com/fortuna/courtvision/internal/scheduler"
	"github.com/fortuna/courtvision/internal/service"
)

const serviceName = "courtvision"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	log.WithFields(logrus.Fields{
		"service": serviceName,
		"version": service.Version,
		"env":     cfg.Env,
	}).Info("Starting trend and matchup service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := service.New(ctx, cfg, service.Options{RedisAttempts: 10, RedisDelay: 2 * time.Second}, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to assemble service")
	}
	defer svc.Close()

	tools := assistant.NewMCPServer(svc.Engine, service.Version)

	deps := rest.Deps{
		Engine: svc.Engine,
		MCP:    tools.Handler(),
		Health: svc.Health(),
		Log:    log,
	}
	if svc.Chat != nil {
		deps.Assistant = svc.Chat
	}
	if svc.Snapshots != nil {
		deps.History = svc.Snapshots
	}

	restServer := rest.NewServer(cfg.RESTPort, deps)
	go func() {
		log.WithField("port", cfg.RESTPort).Info("REST API listening")
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("REST server error")
		}
	}()

	wsServer := websocket.NewServer(log)
	go func() {
		if err := wsServer.Start(ctx, cfg.WSPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("WebSocket server error")
		}
	}()

	var sched *scheduler.Orchestrator
	if cfg.EnableScheduler {
		sched = scheduler.NewOrchestrator(svc.Engine, scheduler.DefaultConfig(), log)
		sched.AddSink("websocket", wsServer.BroadcastSnapshot)
		if svc.Publisher != nil {
			sched.AddSink("redis_stream", svc.Publish)
		}
		if svc.Snapshots != nil {
			sched.AddSink("postgres", svc.Persist)
			sched.SetPruner(svc.Snapshots.Prune)
		}
		if err := sched.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start scheduler")
		}
	}

	log.WithFields(logrus.Fields{
		"rest":      "http://0.0.0.0:" + cfg.RESTPort,
		"websocket": "ws://0.0.0.0:" + cfg.WSPort + "/ws/trends",
		"mcp":       "http://0.0.0.0:" + cfg.RESTPort + "/mcp",
		"scheduler": cfg.EnableScheduler,
	}).Info("Service started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.WithField("signal", sig.String()).Info("Shutting down gracefully")

	if sched != nil {
		sched.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("REST server shutdown error")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("WebSocket server shutdown error")
	}

	log.Info("Service stopped")
}
