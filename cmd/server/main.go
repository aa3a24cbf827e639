package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"domainagent/internal/assistant"
	"domainagent/internal/chat"
	"domainagent/internal/platform/config"
	"domainagent/internal/platform/httpserver"
	"domainagent/internal/platform/logger"
	"domainagent/internal/platform/metrics"
	"domainagent/internal/platform/ratelimit"
	"domainagent/internal/turn"
	turnmetrics "domainagent/internal/turn/metrics"
	"domainagent/internal/verification"
	"domainagent/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "domain-agent: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.DefaultRegisterer
	httpMetrics := metrics.New(reg)
	turnMetrics := turnmetrics.New(reg)

	mode, err := turn.ParseMatchMode(cfg.Assist.MatchMode)
	if err != nil {
		return fmt.Errorf("REASON_MATCH_MODE: %w", err)
	}

	chatClient := chat.New(cfg.Chat.BaseURL,
		chat.WithTimeout(cfg.Chat.Timeout),
		chat.WithLogger(log),
	)
	verifyClient := verification.New(cfg.Verify.BaseURL,
		verification.WithTimeout(cfg.Verify.Timeout),
		verification.WithLogger(log),
	)
	breaker := circuit.New("verification",
		circuit.WithFailureThreshold(cfg.Verify.BreakerFailures),
		circuit.WithSuccessThreshold(cfg.Verify.BreakerSuccesses),
		circuit.WithCooldown(cfg.Verify.BreakerCooldown),
	)
	verifier := verification.NewGuarded(verifyClient, breaker,
		verification.WithGuardLogger(log),
		verification.WithStateHook(func(state circuit.State) {
			turnMetrics.SetVerifyCircuitOpen(state == circuit.StateOpen)
		}),
	)

	snapshots, err := openSnapshots(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer snapshots.close()

	svc, err := assistant.New(chatClient, verifier, snapshots.store,
		assistant.WithLogger(log),
		assistant.WithMetrics(turnMetrics),
		assistant.WithMatchMode(mode),
		assistant.WithGreeting(cfg.Assist.GreetingText(assistant.DefaultGreeting)),
		assistant.WithSuggester(verifyClient),
	)
	if err != nil {
		return fmt.Errorf("build assistant: %w", err)
	}

	var window *ratelimit.Window
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Requests > 0 {
		window = ratelimit.NewWindow(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		limiter = window
	}

	router := newRouter(routerDeps{
		cfg:       cfg,
		logger:    log,
		metrics:   httpMetrics,
		service:   svc,
		gatherer:  prometheus.DefaultGatherer,
		readiness: snapshots.health,
		limiter:   limiter,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting domain-agent",
			"addr", cfg.Server.Addr,
			"snapshot_backend", cfg.Snapshot.Backend,
			"match_mode", mode,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sweep(gctx, cfg.Snapshot, svc, snapshots.expirer, window, log)
		return nil
	})

	return g.Wait()
}

// sweep periodically releases idle conversations from memory and purges
// expired snapshots from stores that do not expire them natively. Idle rate
// limit keys are dropped on the same tick.
func sweep(ctx context.Context, cfg config.Snapshot, svc *assistant.Service, expirer expirer, window *ratelimit.Window, log *slog.Logger) {
	if cfg.SweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dropped := svc.DropIdle(now.Add(-cfg.IdleAfter))
			var purged int64
			if expirer != nil {
				n, err := expirer.DeleteExpired(ctx)
				if err != nil {
					log.WarnContext(ctx, "snapshot sweep failed", "error", err)
				}
				purged = n
			}
			if window != nil {
				window.Sweep()
			}
			if dropped > 0 || purged > 0 {
				log.InfoContext(ctx, "snapshot sweep",
					"idle_conversations_released", dropped,
					"snapshots_purged", purged,
				)
			}
		}
	}
}
