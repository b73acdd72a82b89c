package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/benchview/internal/benchapi"
	appcfg "github.com/park285/benchview/internal/config"
	"github.com/park285/benchview/internal/feed"
	"github.com/park285/benchview/internal/obslog"
	"github.com/park285/benchview/internal/session"
	"github.com/park285/benchview/internal/sim"
	"github.com/park285/benchview/internal/stream"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("log init error: %v", err)
	}
	logger := obslog.L()

	var opener feed.Opener
	if cfg.Simulate {
		script := sim.DefaultScript()
		if cfg.SimScript != "" {
			script, err = sim.LoadScript(cfg.SimScript)
			if err != nil {
				log.Fatalf("script error: %v", err)
			}
		}
		opener = sim.Opener(cfg.InitialMs, script, logger)
	} else {
		opener = stream.Opener(cfg.BaseURL, logger)
	}

	sess := session.New(opener,
		session.WithReconnectDelay(time.Duration(cfg.ReconnectDelayMs)*time.Millisecond),
		session.WithLogger(logger),
		session.WithListener(stateLogger(logger)),
	)

	if cfg.Simulate {
		// The simulator announces its own match id; any placeholder
		// works here.
		if err := sess.Start("local"); err != nil {
			log.Fatalf("start error: %v", err)
		}
	} else {
		api := benchapi.NewClient(cfg.BaseURL)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		engines, err := api.ListEngines(ctx)
		cancel()
		if err != nil {
			log.Fatalf("list engines error: %v", err)
		}
		for _, e := range engines {
			logger.Info("engine available",
				zap.String("id", e.ID),
				zap.String("name", e.Name),
				zap.String("author", e.Author))
		}

		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		matchID, err := sess.StartNew(ctx, api, cfg.WhiteEngineID, cfg.BlackEngineID, cfg.InitialMs)
		cancel()
		if err != nil {
			log.Fatalf("start match error: %v", err)
		}
		logger.Info("match created", zap.String("match_id", matchID))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	sess.Stop()
	_ = logger.Sync()
}

// stateLogger logs status transitions and moves at info and the noisy
// clock ticks at debug.
func stateLogger(logger *zap.Logger) func(session.State) {
	var mu sync.Mutex
	var lastStatus session.Status
	var lastPly int

	return func(st session.State) {
		mu.Lock()
		statusChanged := st.Status != lastStatus
		plyChanged := st.Ply != lastPly
		lastStatus = st.Status
		lastPly = st.Ply
		mu.Unlock()

		switch {
		case statusChanged:
			fields := []zap.Field{
				zap.String("status", string(st.Status)),
				zap.String("match_id", st.MatchID),
			}
			if st.Result != nil {
				fields = append(fields,
					zap.String("result", st.Result.Result),
					zap.String("reason", st.Result.Reason))
			}
			if st.Err != "" {
				fields = append(fields, zap.String("error", st.Err))
			}
			logger.Info("session status", fields...)
		case plyChanged:
			logger.Info("move",
				zap.Int("ply", st.Ply),
				zap.String("uci", st.LastMove),
				zap.String("moves", st.MovesText))
		default:
			if st.Clocks != nil {
				logger.Debug("clock",
					zap.Int64("white_ms", st.Clocks.WhiteMs),
					zap.Int64("black_ms", st.Clocks.BlackMs))
			}
		}
	}
}
