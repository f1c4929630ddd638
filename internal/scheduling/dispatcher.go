package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/metrics"
	"github.com/attentive-assistant/core/internal/store"
)

// Dispatcher claims due schedules and materializes one queued Execution per
// fire, advancing next_run_at in the same transaction, the same shape as
// the Dispatcher.dispatch/ScheduleRepository.ClaimAndFire, split
// here across store.Schedules.ClaimDue (the locking claim query) and this
// package (the fire/advance logic), since SPEC_FULL's polymorphic
// definitions need kind-aware next-run computation the repository layer
// shouldn't own.
type Dispatcher struct {
	db         store.Beginner
	schedules  store.Schedules
	executions store.Executions
	audit      store.AuditLogs
	clock      clockid.Clock
	ids        clockid.IDGenerator
	logger     *slog.Logger
	interval   time.Duration
	batchSize  int
}

func NewDispatcher(db store.Beginner, schedules store.Schedules, executions store.Executions, audit store.AuditLogs, clock clockid.Clock, ids clockid.IDGenerator, logger *slog.Logger, interval time.Duration, batchSize int) *Dispatcher {
	return &Dispatcher{
		db: db, schedules: schedules, executions: executions, audit: audit,
		clock: clock, ids: ids, logger: logger.With("component", "dispatcher"),
		interval: interval, batchSize: batchSize,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	d.logger.Info("dispatcher started", "interval", d.interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher shut down")
			return
		case <-ticker.C:
			if err := d.dispatch(ctx); err != nil {
				d.logger.Error("dispatch cycle", "error", err)
			}
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context) error {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := d.clock.Now()
	due, err := d.schedules.ClaimDue(ctx, tx, now, d.batchSize)
	if err != nil {
		return fmt.Errorf("claim due schedules: %w", err)
	}
	if len(due) == 0 {
		return tx.Commit(ctx)
	}

	for _, sched := range due {
		if err := d.fire(ctx, tx, sched, now); err != nil {
			return fmt.Errorf("fire schedule %s: %w", sched.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit dispatch tx: %w", err)
	}
	d.logger.Info("dispatcher fired schedules", "count", len(due))
	return nil
}

func (d *Dispatcher) fire(ctx context.Context, tx store.Tx, sched *domain.Schedule, now time.Time) error {
	traceID := d.ids.NewID()

	exec := &domain.Execution{
		ScheduleID:   sched.ID,
		TraceID:      traceID,
		ScheduledFor: sched.NextRunAt,
		Status:       domain.ExecutionQueued,
		MaxAttempts:  3,
	}
	if err := d.executions.Create(ctx, tx, exec); err != nil {
		return fmt.Errorf("create execution: %w", err)
	}
	if err := d.audit.RecordExecution(ctx, tx, &domain.ExecutionAuditLog{
		ExecutionID: exec.ID, ScheduleID: sched.ID, TraceID: traceID,
		ActorType: domain.ActorScheduled, Status: domain.ExecutionQueued, Reason: "dispatched",
	}); err != nil {
		return fmt.Errorf("record execution audit: %w", err)
	}

	before := sched.LastRunAt
	sched.LastRunAt = &now
	sched.LastExecutionID = &exec.ID

	if sched.Definition.Kind == domain.KindOneTime {
		sched.State = domain.ScheduleCompleted
	} else {
		next, err := ComputeNextRun(sched.Definition, sched.Timezone, sched.NextRunAt)
		if err != nil {
			return fmt.Errorf("compute next run: %w", err)
		}
		sched.NextRunAt = next
	}
	if err := d.schedules.Update(ctx, tx, sched); err != nil {
		return fmt.Errorf("advance schedule: %w", err)
	}
	if err := d.audit.RecordSchedule(ctx, tx, &domain.ScheduleAuditLog{
		ScheduleID: sched.ID, ActorType: domain.ActorScheduled, TraceID: traceID,
		Reason:     "fired",
		DiffBefore: map[string]any{"last_run_at": before},
		DiffAfter:  map[string]any{"last_run_at": sched.LastRunAt, "next_run_at": sched.NextRunAt, "state": sched.State},
	}); err != nil {
		return fmt.Errorf("record schedule audit: %w", err)
	}
	metrics.ExecutionsCompletedTotal.WithLabelValues("queued").Inc()
	return nil
}
