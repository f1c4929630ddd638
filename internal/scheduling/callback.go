package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/attentive-assistant/core/internal/apperr"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
)

// CallbackRequest is an externally-emitted trigger notification for a
// schedule, grounded on original_source's callback_bridge.py payload shape.
type CallbackRequest struct {
	ScheduleID    string
	TraceID       string
	TriggerSource string
	EmittedAt     time.Time
	ScheduledFor  *time.Time // defaults to EmittedAt when absent
}

// CallbackBridge turns an external trigger notification into a queued
// Execution, idempotently keyed on (schedule_id, trace_id) so a redelivered
// callback never double-fires (spec testable property: idempotent
// callback).
type CallbackBridge struct {
	db         store.Beginner
	schedules  store.Schedules
	executions store.Executions
	audit      store.AuditLogs
}

func NewCallbackBridge(db store.Beginner, schedules store.Schedules, executions store.Executions, audit store.AuditLogs) *CallbackBridge {
	return &CallbackBridge{db: db, schedules: schedules, executions: executions, audit: audit}
}

// Handle validates req, returns the existing execution if (schedule_id,
// trace_id) was already recorded, otherwise creates a new queued execution.
func (b *CallbackBridge) Handle(ctx context.Context, req CallbackRequest) (exec *domain.Execution, duplicate bool, err error) {
	if req.ScheduleID == "" {
		return nil, false, apperr.New(apperr.KindValidation, "schedule_id is required")
	}
	if req.TraceID == "" {
		return nil, false, apperr.New(apperr.KindValidation, "trace_id is required")
	}
	if req.TriggerSource == "" {
		return nil, false, apperr.New(apperr.KindValidation, "trigger_source is required")
	}
	scheduledFor := req.EmittedAt
	if req.ScheduledFor != nil {
		scheduledFor = *req.ScheduledFor
	}
	if req.EmittedAt.Sub(scheduledFor) > 24*time.Hour {
		return nil, false, apperr.New(apperr.KindValidation, "scheduled_for is more than 24h behind emitted_at")
	}

	tx, err := b.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if existing, err := b.executions.FindByScheduleAndTrace(ctx, tx, req.ScheduleID, req.TraceID); err != nil {
		return nil, false, fmt.Errorf("lookup existing execution: %w", err)
	} else if existing != nil {
		return existing, true, tx.Commit(ctx)
	}

	sched, err := b.schedules.Get(ctx, tx, req.ScheduleID)
	if err != nil {
		return nil, false, err
	}
	if sched.State != domain.ScheduleActive {
		return nil, false, apperr.Wrap(apperr.KindValidation, "schedule is not active", domain.ErrScheduleNotActive)
	}

	exec = &domain.Execution{
		ScheduleID:   req.ScheduleID,
		TraceID:      req.TraceID,
		ScheduledFor: scheduledFor,
		Status:       domain.ExecutionQueued,
		MaxAttempts:  3,
	}
	if err := b.executions.Create(ctx, tx, exec); err != nil {
		return nil, false, fmt.Errorf("create execution from callback: %w", err)
	}
	if err := b.audit.RecordExecution(ctx, tx, &domain.ExecutionAuditLog{
		ExecutionID: exec.ID, ScheduleID: exec.ScheduleID, TraceID: exec.TraceID,
		ActorType: domain.ActorSystem, Status: domain.ExecutionQueued,
		Reason: "callback:" + req.TriggerSource,
	}); err != nil {
		return nil, false, fmt.Errorf("record callback execution audit: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit tx: %w", err)
	}
	return exec, false, nil
}
