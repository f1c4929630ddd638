package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/attentive-assistant/core/internal/attention"
	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/metrics"
	"github.com/attentive-assistant/core/internal/retrypolicy"
	"github.com/attentive-assistant/core/internal/store"
)

// Executor polls queued and retry-due executions and runs them through an
// Invoker, applying retrypolicy on failure. Grounded on
// Worker (processBatch/runJob), generalized from a single HTTP call to the
// pluggable Invoker and from a fixed backoff to retrypolicy.Policy. A
// permanent failure is also submitted to the attention router (spec §4.3
// step 5), so a schedule that dies for good still produces an outbound
// signal instead of failing silently.
type Executor struct {
	db           store.Beginner
	executions   store.Executions
	schedules    store.Schedules
	taskIntents  store.TaskIntents
	audit        store.AuditLogs
	invoker      Invoker
	router       *attention.Router
	clock        clockid.Clock
	ids          clockid.IDGenerator
	logger       *slog.Logger
	pollInterval time.Duration
	concurrency  int
	policy       retrypolicy.Policy
}

func NewExecutor(db store.Beginner, executions store.Executions, schedules store.Schedules, taskIntents store.TaskIntents, audit store.AuditLogs, invoker Invoker, router *attention.Router, clock clockid.Clock, ids clockid.IDGenerator, logger *slog.Logger, pollInterval time.Duration, concurrency int, policy retrypolicy.Policy) *Executor {
	return &Executor{
		db: db, executions: executions, schedules: schedules, taskIntents: taskIntents, audit: audit,
		invoker: invoker, router: router, clock: clock, ids: ids,
		logger:       logger.With("component", "executor"),
		pollInterval: pollInterval, concurrency: concurrency, policy: policy,
	}
}

func (e *Executor) Start(ctx context.Context) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()
	e.logger.Info("executor started", "concurrency", e.concurrency)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("executor shut down")
			return
		case <-ticker.C:
			e.processBatch(ctx)
		}
	}
}

func (e *Executor) processBatch(ctx context.Context) {
	now := e.clock.Now()
	due, err := e.executions.ListRetryDue(ctx, nil, now, e.concurrency)
	if err != nil {
		e.logger.Error("list retry-due executions", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, exec := range due {
		wg.Add(1)
		go func(ex *domain.Execution) {
			defer wg.Done()
			e.run(ctx, ex)
		}(exec)
	}
	wg.Wait()
}

func (e *Executor) run(ctx context.Context, exec *domain.Execution) {
	metrics.ExecutionsInFlight.Inc()
	defer metrics.ExecutionsInFlight.Dec()

	sched, err := e.schedules.Get(ctx, nil, exec.ScheduleID)
	if err != nil {
		e.logger.Error("load schedule for execution", "execution_id", exec.ID, "error", err)
		return
	}

	started := e.clock.Now()
	exec.Status = domain.ExecutionRunning
	exec.StartedAt = &started
	exec.AttemptCount++
	if err := e.markRunning(ctx, exec); err != nil {
		e.logger.Error("mark execution running", "execution_id", exec.ID, "error", err)
		return
	}

	result := e.invoker.Invoke(ctx, sched.ID, sched.TaskIntentID, exec.TraceID)
	finished := e.clock.Now()
	exec.FinishedAt = &finished

	if result.Succeeded {
		exec.Status = domain.ExecutionSucceeded
		exec.LastError = nil
		sched.ConsecutiveFailureCount = 0
		if err := e.complete(ctx, exec, sched, domain.ExecutionSucceeded, "succeeded"); err != nil {
			e.logger.Error("complete execution", "execution_id", exec.ID, "error", err)
		}
		metrics.ExecutionsCompletedTotal.WithLabelValues("succeeded").Inc()
		return
	}

	exec.LastError = &domain.ExecutionError{Code: result.ErrorCode, Message: result.ErrorMsg}
	sched.ConsecutiveFailureCount++

	if retrypolicy.ShouldRetry(exec.AttemptCount, exec.MaxAttempts) {
		exec.RetryCount++
		retryAt, err := retrypolicy.ComputeRetryAt(finished, exec.RetryCount, e.policy.BackoffStrategy, e.policy.BackoffBaseSeconds)
		if err != nil {
			e.logger.Error("compute retry at", "execution_id", exec.ID, "error", err)
			return
		}
		exec.Status = domain.ExecutionRetryScheduled
		exec.NextRetryAt = &retryAt
		if err := e.complete(ctx, exec, sched, domain.ExecutionRetryScheduled, "retry_scheduled"); err != nil {
			e.logger.Error("schedule retry", "execution_id", exec.ID, "error", err)
		}
		metrics.ExecutionsCompletedTotal.WithLabelValues("retry_scheduled").Inc()
		return
	}

	exec.Status = domain.ExecutionFailed
	if err := e.complete(ctx, exec, sched, domain.ExecutionFailed, "failed_permanently"); err != nil {
		e.logger.Error("fail execution", "execution_id", exec.ID, "error", err)
	}
	metrics.ExecutionsCompletedTotal.WithLabelValues("failed").Inc()
	e.notifyFailure(ctx, exec, sched)
}

// markRunning transitions exec to running and records the matching audit
// row in the same transaction, so testable property 1 (latest audit status
// equals the execution's current status) holds while it is in flight.
func (e *Executor) markRunning(ctx context.Context, exec *domain.Execution) error {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := e.executions.Update(ctx, tx, exec); err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	if err := e.audit.RecordExecution(ctx, tx, &domain.ExecutionAuditLog{
		ExecutionID: exec.ID, ScheduleID: exec.ScheduleID, TraceID: exec.TraceID,
		ActorType: domain.ActorSystem, Status: domain.ExecutionRunning, Reason: "started",
	}); err != nil {
		return fmt.Errorf("record execution audit: %w", err)
	}
	return tx.Commit(ctx)
}

// notifyFailure submits a permanently-failed execution to the attention
// router (spec §4.3 step 5) so it surfaces as an outbound signal instead of
// dying silently. Routing failures are logged, not propagated: a
// notification-delivery problem must not re-fail an execution that already
// reached its terminal state.
func (e *Executor) notifyFailure(ctx context.Context, exec *domain.Execution, sched *domain.Schedule) {
	intent, err := e.taskIntents.Get(ctx, nil, sched.TaskIntentID)
	if err != nil {
		e.logger.Error("load task intent for failure notification", "execution_id", exec.ID, "error", err)
		return
	}

	errMsg := ""
	if exec.LastError != nil {
		errMsg = exec.LastError.Message
	}

	env := domain.RoutingEnvelope{
		Version:         "1",
		SignalType:      "schedule.execution_failed",
		SignalReference: exec.TraceID,
		Actor:           domain.ActorSystem,
		Owner:           intent.CreatedBy,
		Urgency:         0.7,
		ChannelCost:     0.3,
		ContentType:     "text/plain",
		Timestamp:       e.clock.Now(),
		Notification: &domain.NotificationDescriptor{
			Version:         "1",
			SourceComponent: "executor",
			OriginSignal:    "schedule.execution_failed",
			Confidence:      1,
			Provenance: []domain.ProvenanceInput{{
				InputType:   "execution",
				Reference:   exec.ID,
				Description: fmt.Sprintf("%s: exhausted retries (%s)", intent.Summary, errMsg),
			}},
		},
	}

	result, err := e.router.Route(ctx, env)
	if err != nil {
		e.logger.Error("route failure notification", "execution_id", exec.ID, "error", err)
		return
	}
	e.logger.Info("execution failure routed", "execution_id", exec.ID, "decision", result.FinalDecision, "channel", result.Channel)
}

func (e *Executor) complete(ctx context.Context, exec *domain.Execution, sched *domain.Schedule, status domain.ExecutionStatus, reason string) error {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := e.executions.Update(ctx, tx, exec); err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	statusStr := string(status)
	sched.LastRunStatus = &statusStr
	if err := e.schedules.Update(ctx, tx, sched); err != nil {
		return fmt.Errorf("update schedule failure count: %w", err)
	}
	if err := e.audit.RecordExecution(ctx, tx, &domain.ExecutionAuditLog{
		ExecutionID: exec.ID, ScheduleID: exec.ScheduleID, TraceID: exec.TraceID,
		ActorType: domain.ActorSystem, Status: status, Reason: reason,
	}); err != nil {
		return fmt.Errorf("record execution audit: %w", err)
	}
	return tx.Commit(ctx)
}
