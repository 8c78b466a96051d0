package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/assistant"
	"github.com/fortuna/courtvision/internal/config"
	"github.com/fortuna/courtvision/internal/engine"
	"github.com/fortuna/courtvision/internal/logging"
	"github.com/fortuna/courtvision/internal/service"
)

const appName = "courtvision-briefing"

func main() {
	var (
		mode     = flag.String("mode", "context", "Output: context, snapshot, trends, leaders, watch or deep-dive")
		player   = flag.String("player", "", "Player name for -mode deep-dive")
		question = flag.String("ask", "", "Ask the assistant a question about the current snapshot")
		persist  = flag.Bool("persist", false, "Store the snapshot in DATABASE_URL")
		publish  = flag.Bool("publish", false, "Append the snapshot to the Redis stream")
		memory   = flag.Bool("memory", false, "Ignore REDIS_URL and DATABASE_URL")
		timeout  = flag.Duration("timeout", 2*time.Minute, "Overall deadline")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	// Logs go to stderr so stdout stays pipeable JSON.
	log := logging.New(cfg.LogLevel, "text")
	log.SetOutput(os.Stderr)
	log.WithField("version", service.Version).Infof("=== %s ===", appName)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc, err := service.New(ctx, cfg, service.Options{
		SkipRedis:    *memory,
		SkipDatabase: *memory || !*persist,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to assemble service")
	}
	defer svc.Close()

	out, err := run(ctx, svc, *mode, *player, *question)
	if err != nil {
		log.WithError(err).Fatal("Briefing failed")
	}

	if *persist || *publish {
		snap := svc.Engine.Snapshot(ctx)
		if *persist {
			if svc.Snapshots == nil {
				log.Fatal("-persist needs a reachable DATABASE_URL")
			}
			if err := svc.Persist(ctx, snap); err != nil {
				log.WithError(err).Fatal("Failed to store snapshot")
			}
			log.WithField("records", len(snap.Trends)).Info("Snapshot stored")
		}
		if *publish {
			if svc.Publisher == nil {
				log.Fatal("-publish needs a reachable REDIS_URL")
			}
			if err := svc.Publish(ctx, snap); err != nil {
				log.WithError(err).Fatal("Failed to publish snapshot")
			}
			log.Info("Snapshot published")
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.WithError(err).Fatal("Failed to write output")
	}
}

func run(ctx context.Context, svc *service.Service, mode, player, question string) (interface{}, error) {
	eng := svc.Engine

	if question != "" {
		if svc.Chat == nil {
			return nil, assistant.ErrNotConfigured
		}
		payload := assistant.FromSnapshot(eng.Snapshot(ctx))
		answer, err := svc.Chat.Ask(ctx, payload, question)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"question":    question,
			"answer":      answer,
			"model":       svc.Chat.Model(),
			"unavailable": payload.Unavailable,
		}, nil
	}

	switch strings.ToLower(mode) {
	case "context":
		return assistant.FromSnapshot(eng.Snapshot(ctx)), nil
	case "snapshot":
		return eng.Snapshot(ctx), nil
	case "trends":
		records, err := eng.Trends(ctx)
		return map[string]interface{}{"season": eng.Season(), "trends": records, "unavailable": engine.Unavailable(err)}, nil
	case "leaders":
		leaders, err := eng.Leaders(ctx)
		return map[string]interface{}{"season": eng.Season(), "leaders": leaders, "unavailable": engine.Unavailable(err)}, nil
	case "watch":
		watch, err := eng.Watch(ctx)
		return map[string]interface{}{"watch": watch, "unavailable": engine.Unavailable(err)}, nil
	case "deep-dive":
		if strings.TrimSpace(player) == "" {
			return nil, fmt.Errorf("-mode deep-dive needs -player")
		}
		return eng.DeepDive(ctx, player)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}
