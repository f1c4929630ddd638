// Command core runs the scheduler, attention router, and commitment
// engine as one process: dispatch/execute/evaluate workers, fail-closed
// and weekly-review sweeps, and the HTTP surface for provider callbacks
// and operator reads, grounded on the cmd/scheduler and
// cmd/server merged into a single binary (spec §5).
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/attentive-assistant/core/internal/attention"
	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/commitment"
	"github.com/attentive-assistant/core/internal/config"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/health"
	"github.com/attentive-assistant/core/internal/metrics"
	"github.com/attentive-assistant/core/internal/notify"
	"github.com/attentive-assistant/core/internal/notify/resend"
	"github.com/attentive-assistant/core/internal/obslog"
	"github.com/attentive-assistant/core/internal/retrypolicy"
	"github.com/attentive-assistant/core/internal/scheduling"
	"github.com/attentive-assistant/core/internal/store"
	"github.com/attentive-assistant/core/internal/store/postgres"
	httptransport "github.com/attentive-assistant/core/internal/transport/http"
	"github.com/attentive-assistant/core/internal/transport/http/handler"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := obslog.New(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()
	db := postgres.NewDB(pool)
	logger.Info("db connected")

	metrics.Register()

	clock := clockid.SystemClock{}
	ids := clockid.UUIDGenerator{}

	taskIntents := postgres.NewTaskIntentRepository(db)
	schedules := postgres.NewScheduleRepository(db)
	executions := postgres.NewExecutionRepository(db)
	auditLogs := postgres.NewAuditLogRepository(db)

	attnContexts := postgres.NewAttentionContextRepository(db)
	attnPreferences := postgres.NewAttentionPreferencesRepository(db)
	notifHistory := postgres.NewNotificationHistoryRepository(db)
	failClosedQueue := postgres.NewFailClosedQueueRepository(db)
	deferredSignals := postgres.NewDeferredSignalRepository(db)
	escalationLog := postgres.NewEscalationLogRepository(db)
	reviewLog := postgres.NewReviewLogRepository(db)

	commitments := postgres.NewCommitmentRepository(db)
	commitmentProgress := postgres.NewCommitmentProgressRepository(db)
	scheduleLinks := postgres.NewCommitmentScheduleLinkRepository(db)
	transitionProposals := postgres.NewTransitionProposalRepository(db)
	creationProposals := postgres.NewCreationProposalRepository(db)

	transports := buildTransports(cfg, logger)

	router := attention.NewRouter(attention.RouterDeps{
		DB:            db,
		Contexts:      attnContexts,
		Preferences:   attnPreferences,
		History:       notifHistory,
		FailClosed:    failClosedQueue,
		Deferred:      deferredSignals,
		EscalationLog: escalationLog,
		Audit:         auditLogs,
		Transports:    transports,
		Clock:         clock,
		IDs:           ids,
		Logger:        logger,
	})

	commitmentService := commitment.NewService(db, commitments, transitionProposals, clock, ids)
	linkService := commitment.NewLinkService(db, scheduleLinks)
	missDetector := commitment.NewMissDetector(linkService, commitmentService, router, clock, logger)
	proposalService := commitment.NewProposalService(creationProposals, router, ids)
	reviewService := commitment.NewReviewService(commitments, reviewLog, router, clock)
	progressService := commitment.NewProgressService(db, commitments, commitmentProgress)

	schedulingService := scheduling.NewService(db, taskIntents, schedules, executions, auditLogs, scheduling.NoopProviderAdapter{}, clock, ids)
	callbackBridge := scheduling.NewCallbackBridge(db, schedules, executions, auditLogs)

	invoker := scheduling.NewReminderInvoker(taskIntents, router, missDetector, clock, logger)
	policy := retrypolicy.Policy{
		MaxAttempts:        cfg.DefaultMaxAttempts,
		BackoffStrategy:    retrypolicy.Strategy(cfg.DefaultBackoffStrategy),
		BackoffBaseSeconds: cfg.DefaultBackoffBaseSeconds,
	}

	dispatcher := scheduling.NewDispatcher(db, schedules, executions, auditLogs, clock, ids, logger,
		time.Duration(cfg.DispatchIntervalSec)*time.Second, cfg.WorkerCount)
	executor := scheduling.NewExecutor(db, executions, schedules, taskIntents, auditLogs, invoker, router, clock, ids, logger,
		time.Duration(cfg.PollIntervalSec)*time.Second, cfg.WorkerCount, policy)
	predicateEvaluator := scheduling.NewPredicateEvaluator(db, schedules, executions, auditLogs, scheduling.NoopResolver{},
		clock, ids, logger, time.Duration(cfg.DispatchIntervalSec)*time.Second, cfg.WorkerCount)

	go dispatcher.Start(ctx)
	go executor.Start(ctx)
	go predicateEvaluator.Start(ctx)
	go runFailClosedSweep(ctx, failClosedQueue, router, clock, time.Duration(cfg.FailClosedRetryDelayMinutes)*time.Minute, logger)
	go runWeeklyReview(ctx, reviewService, cfg, logger)

	notifierReady := cfg.Env != "local"
	checker := health.NewChecker(pool, notifierReady, logger, prometheus.DefaultRegisterer)

	scheduleHandler := handler.NewScheduleHandler(schedulingService, logger)
	commitmentHandler := handler.NewCommitmentHandler(commitmentService, progressService, logger)
	proposalHandler := handler.NewProposalHandler(proposalService, clock, logger)
	healthHandler := handler.NewHealthHandler(checker)
	callbackHandler := handler.NewCallbackHandler(callbackBridge, logger)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(scheduleHandler, commitmentHandler, proposalHandler, healthHandler,
			callbackHandler, []byte(cfg.JWTSecret), cfg.CallbackSharedSecret, logger),
	}
	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", "error", err)
		}
	}()
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

// buildTransports wires one notify.Transport per channel. ENV=local logs
// every channel instead of sending; the pack carries no Signal or
// Obsidian-sync client, so "signal" and "obsidian" stay log-only in every
// environment (DESIGN.md) while "digest" and "web" send real email via
// Resend.
func buildTransports(cfg *config.Config, logger *slog.Logger) map[string]notify.Transport {
	logTransport := &notify.LogTransport{Logger: logger}
	if cfg.Env == "local" {
		return map[string]notify.Transport{
			"signal": logTransport, "obsidian": logTransport, "digest": logTransport, "web": logTransport,
		}
	}

	email := resend.New(cfg.ResendAPIKey, cfg.ResendFrom, func(owner string) string { return owner })
	return map[string]notify.Transport{
		"signal": logTransport, "obsidian": logTransport, "digest": email, "web": email,
	}
}

// runFailClosedSweep periodically retries fail-closed-queued envelopes
// whose retry_at has passed (spec §4.5, fail-closed queueing).
func runFailClosedSweep(ctx context.Context, queue store.FailClosedQueue, router *attention.Router, clock clockid.Clock, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := attention.ReprocessQueue(ctx, queue, clock.Now(), 50, func(ctx context.Context, env domain.RoutingEnvelope) error {
				_, err := router.Route(ctx, env)
				return err
			})
			if err != nil {
				logger.Error("fail-closed reprocess sweep", "error", err)
			}
		}
	}
}

// runWeeklyReview checks the wall clock once a minute and fires the weekly
// review when the weekday and HH:MM match the configured day/time, so it
// runs once per week (spec §4.9).
func runWeeklyReview(ctx context.Context, svc *commitment.ReviewService, cfg *config.Config, logger *slog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if int(now.Weekday()) != cfg.ReviewDayOfWeek {
				continue
			}
			if now.Format("15:04") != cfg.ReviewTimeOfDay {
				continue
			}
			if _, err := svc.Run(ctx, primaryOwner(cfg)); err != nil {
				logger.Error("weekly review", "error", err)
			}
		}
	}
}

// primaryOwner returns the first configured owner. This is a single-owner
// personal assistant, so the allowlist carries exactly one entry in
// practice even though its config shape allows more.
func primaryOwner(cfg *config.Config) string {
	if cfg.OwnerAllowlist != "" {
		return strings.Split(cfg.OwnerAllowlist, ",")[0]
	}
	for _, v := range cfg.OwnerAllowlistChannels {
		return strings.Split(v, ",")[0]
	}
	return ""
}
