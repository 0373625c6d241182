package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cosci-dev/cosci/internal/backend"
	"github.com/cosci-dev/cosci/internal/channel"
	"github.com/cosci-dev/cosci/internal/config"
	"github.com/cosci-dev/cosci/internal/controller"
	"github.com/cosci-dev/cosci/internal/dispatch"
	"github.com/cosci-dev/cosci/internal/domain"
	"go.uber.org/zap"
)

const pollInterval = 250 * time.Millisecond

func main() {
	goal := flag.String("goal", "", "research goal to investigate")
	iterations := flag.Int("iterations", 3, "refinement iterations to run")
	perIteration := flag.Int("hypotheses", 1, "hypotheses generated per iteration")
	detect := flag.Bool("detect", false, "print the inferred research domain before starting")
	connectTimeout := flag.Duration("connect-timeout", 10*time.Second, "how long to wait for the update channel")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if *goal == "" {
		fmt.Fprintln(os.Stderr, "usage: cosci -goal \"...\" [-iterations N] [-hypotheses N] [-detect]")
		os.Exit(2)
	}

	client := backend.New(config.APIBaseURL(), config.HTTPTimeout(),
		config.RateLimitRPS(), config.RateLimitBurst(), logger)

	ctx := context.Background()

	if err := client.Health(ctx); err != nil {
		logger.Fatal("research service unreachable", zap.Error(err))
	}

	if *detect {
		dc, err := client.DetectDomain(ctx, *goal)
		if err != nil {
			logger.Warn("domain detection failed", zap.Error(err))
		} else {
			fmt.Printf("domain: %s (%s)\n", dc.Domain, dc.ResearchFocus)
		}
	}

	var mgr *channel.Manager
	ctrl := controller.New(client, connectedFunc(func() bool {
		return mgr != nil && mgr.Connected()
	}), logger)
	defer ctrl.Close()
	ctrl.SetDebounceWindow(config.DebounceWindow())

	mgr = channel.NewManager(config.ChannelURL(),
		dispatch.NewDispatcher(ctrl, logger).Dispatch, logger)
	mgr.SetRetryDelays(config.ReconnectCloseDelay(), config.ReconnectFailDelay())
	mgr.Start()
	defer mgr.Stop()

	if !waitConnected(mgr, *connectTimeout) {
		logger.Fatal("update channel never connected", zap.String("url", config.ChannelURL()))
	}

	sessionID, err := ctrl.Start(ctx, *goal, domain.SessionConfig{
		MaxIterations:          *iterations,
		HypothesesPerIteration: *perIteration,
	})
	if err != nil {
		logger.Fatal("failed to start research", zap.Error(err))
	}
	logger.Info("session started", zap.String("session_id", sessionID))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			logger.Info("interrupted, cancelling session")
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = ctrl.Stop(stopCtx)
			cancel()
			return

		case <-ticker.C:
			snap := ctrl.Snapshot()
			switch snap.Session.Status {
			case domain.StatusCompleted:
				// Final consistency read against the service-side record.
				if remote, err := client.GetSession(ctx, sessionID); err != nil {
					logger.Warn("final session read failed", zap.Error(err))
				} else if remote.Status != string(domain.StatusCompleted) {
					logger.Warn("service-side session status disagrees",
						zap.String("remote_status", remote.Status))
				}
				printResults(ctrl)
				return
			case domain.StatusError:
				logger.Error("research failed", zap.String("error", snap.Session.LastError))
				os.Exit(1)
			}
		}
	}
}

type connectedFunc func() bool

func (f connectedFunc) Connected() bool { return f() }

func waitConnected(mgr *channel.Manager, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if mgr.Connected() {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// printResults writes the reviewed hypotheses to stdout grouped by score
// tier, best tier first.
func printResults(ctrl *controller.Controller) {
	ready := ctrl.ReadyHypotheses()
	if len(ready) == 0 {
		fmt.Println("no reviewed hypotheses were produced")
		return
	}

	byTier := make(map[domain.ScoreTier][]domain.Hypothesis)
	for _, h := range ready {
		tier := domain.ComputeTier(h.Score)
		byTier[tier] = append(byTier[tier], h)
	}

	fmt.Printf("\n%d hypotheses ready\n", len(ready))
	for _, tier := range domain.AllTiers() {
		group := byTier[tier]
		if len(group) == 0 {
			continue
		}
		fmt.Printf("\n[%s] %s\n", tier, domain.TierLabel(tier))
		for _, h := range group {
			fmt.Printf("  %.2f  %s\n", h.Score, h.Content)
			if h.Review != "" {
				fmt.Printf("        review: %s\n", h.Review)
			}
			for _, src := range h.LiteratureSources {
				fmt.Printf("        source: %s (%s)\n", src.Title, src.Year)
			}
		}
	}
}
