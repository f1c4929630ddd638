// Package scheduling implements task intents, polymorphic schedules,
// executions, and their audit trail (spec §3/§4.1-§4.4), grounded on
// internal/usecase/schedule.go (ScheduleUsecase) and
// internal/scheduler/*.go, generalized from a single cron-only webhook
// schedule to all four schedule kinds and richer execution
// lifecycle.
package scheduling

import (
	"context"
	"fmt"

	"github.com/attentive-assistant/core/internal/apperr"
	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
)

// Service implements schedule CRUD and state transitions. Every mutation
// writes a ScheduleAuditLog row in the same transaction (testable
// property 5), the same discipline as the ClaimAndFire.
type Service struct {
	db          store.Beginner
	taskIntents store.TaskIntents
	schedules   store.Schedules
	executions  store.Executions
	audit       store.AuditLogs
	adapter     ProviderAdapter
	clock       clockid.Clock
	ids         clockid.IDGenerator
}

func NewService(db store.Beginner, taskIntents store.TaskIntents, schedules store.Schedules, executions store.Executions, audit store.AuditLogs, adapter ProviderAdapter, clock clockid.Clock, ids clockid.IDGenerator) *Service {
	if adapter == nil {
		adapter = NoopProviderAdapter{}
	}
	return &Service{db: db, taskIntents: taskIntents, schedules: schedules, executions: executions, audit: audit, adapter: adapter, clock: clock, ids: ids}
}

// CreateScheduleInput describes a new schedule tied to a (possibly new)
// task intent.
type CreateScheduleInput struct {
	TaskIntentID string // empty means create a new task intent from the fields below
	Summary      string
	Detail       string
	OriginRef    string
	CreatedBy    string

	Timezone   string
	Definition domain.ScheduleDefinition

	Actor   domain.Actor
	ActorID string
	TraceID string
}

// CreateSchedule validates the definition for its kind, computes the
// initial next_run_at, and persists the schedule plus its audit row
// atomically.
func (s *Service) CreateSchedule(ctx context.Context, in CreateScheduleInput) (*domain.Schedule, error) {
	if err := ValidateDefinition(in.Definition, in.Timezone); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	taskIntentID := in.TaskIntentID
	if taskIntentID == "" {
		ti := &domain.TaskIntent{
			Summary:   in.Summary,
			Detail:    in.Detail,
			OriginRef: in.OriginRef,
			CreatedBy: in.CreatedBy,
		}
		if err := s.taskIntents.Create(ctx, tx, ti); err != nil {
			return nil, fmt.Errorf("create task intent: %w", err)
		}
		taskIntentID = ti.ID
	}

	next, err := ComputeNextRun(in.Definition, in.Timezone, s.clock.Now())
	if err != nil {
		return nil, err
	}

	sched := &domain.Schedule{
		TaskIntentID: taskIntentID,
		Timezone:     in.Timezone,
		Definition:   in.Definition,
		State:        domain.ScheduleActive,
		NextRunAt:    next,
	}
	if err := s.schedules.Create(ctx, tx, sched); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	if err := s.audit.RecordSchedule(ctx, tx, &domain.ScheduleAuditLog{
		ScheduleID: sched.ID,
		ActorType:  in.Actor,
		ActorID:    in.ActorID,
		TraceID:    in.TraceID,
		Reason:     "created",
		DiffAfter:  map[string]any{"state": sched.State, "next_run_at": sched.NextRunAt},
	}); err != nil {
		return nil, fmt.Errorf("record schedule audit: %w", err)
	}

	if err := s.adapter.RegisterSchedule(ctx, SchedulePayload{ScheduleID: sched.ID, Kind: sched.Definition.Kind, Timezone: sched.Timezone, Definition: sched.Definition}); err != nil {
		return nil, apperr.Wrap(apperr.KindProviderError, "register schedule with provider", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return sched, nil
}

// transitionInput is shared by Pause/Resume/Cancel.
type transitionInput struct {
	ScheduleID string
	To         domain.ScheduleState
	Reason     string
	Actor      domain.Actor
	ActorID    string
	TraceID    string
}

func (s *Service) transition(ctx context.Context, in transitionInput) (*domain.Schedule, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sched, err := s.schedules.Get(ctx, tx, in.ScheduleID)
	if err != nil {
		return nil, err
	}
	from := sched.State
	if !domain.CanTransitionSchedule(from, in.To, true) {
		return nil, apperr.Wrap(apperr.KindValidation, "illegal schedule state transition", domain.ErrIllegalTransition)
	}
	if from == in.To {
		return sched, tx.Commit(ctx)
	}

	sched.State = in.To
	if err := s.schedules.Update(ctx, tx, sched); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	if err := s.audit.RecordSchedule(ctx, tx, &domain.ScheduleAuditLog{
		ScheduleID: sched.ID,
		ActorType:  in.Actor,
		ActorID:    in.ActorID,
		TraceID:    in.TraceID,
		Reason:     in.Reason,
		DiffBefore: map[string]any{"state": from},
		DiffAfter:  map[string]any{"state": in.To},
	}); err != nil {
		return nil, fmt.Errorf("record schedule audit: %w", err)
	}

	if err := s.driveAdapter(ctx, sched.ID, in.To); err != nil {
		return nil, apperr.Wrap(apperr.KindProviderError, "update provider timer", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return sched, nil
}

// driveAdapter calls the ProviderAdapter method matching a schedule's new
// state: paused/active map to the adapter's pause/resume, and canceled maps
// to delete since the original provider has no separate "cancel" verb
// (adapter_interface.py). Completed carries no adapter action.
func (s *Service) driveAdapter(ctx context.Context, scheduleID string, to domain.ScheduleState) error {
	switch to {
	case domain.SchedulePaused:
		return s.adapter.PauseSchedule(ctx, scheduleID)
	case domain.ScheduleActive:
		return s.adapter.ResumeSchedule(ctx, scheduleID)
	case domain.ScheduleCanceled:
		return s.adapter.DeleteSchedule(ctx, scheduleID)
	default:
		return nil
	}
}

func (s *Service) PauseSchedule(ctx context.Context, scheduleID string, actor domain.Actor, actorID, traceID string) (*domain.Schedule, error) {
	return s.transition(ctx, transitionInput{ScheduleID: scheduleID, To: domain.SchedulePaused, Reason: "paused", Actor: actor, ActorID: actorID, TraceID: traceID})
}

func (s *Service) ResumeSchedule(ctx context.Context, scheduleID string, actor domain.Actor, actorID, traceID string) (*domain.Schedule, error) {
	return s.transition(ctx, transitionInput{ScheduleID: scheduleID, To: domain.ScheduleActive, Reason: "resumed", Actor: actor, ActorID: actorID, TraceID: traceID})
}

func (s *Service) CancelSchedule(ctx context.Context, scheduleID string, actor domain.Actor, actorID, traceID string) (*domain.Schedule, error) {
	return s.transition(ctx, transitionInput{ScheduleID: scheduleID, To: domain.ScheduleCanceled, Reason: "canceled", Actor: actor, ActorID: actorID, TraceID: traceID})
}

// DeleteSchedule retires a schedule for good (spec §4.1 operations list): it
// is distinct from CancelSchedule only in caller intent and audit reason.
// Both land the schedule in ScheduleCanceled and both delete the provider's
// timer, since the system has no separate notion of a soft-deleted
// schedule: a canceled schedule never fires again either way.
func (s *Service) DeleteSchedule(ctx context.Context, scheduleID string, actor domain.Actor, actorID, traceID string) (*domain.Schedule, error) {
	return s.transition(ctx, transitionInput{ScheduleID: scheduleID, To: domain.ScheduleCanceled, Reason: "deleted", Actor: actor, ActorID: actorID, TraceID: traceID})
}

// UpdateDefinition replaces a schedule's recurrence definition. task_intent_id
// is immutable (spec §4.1 invariant): the caller cannot move a schedule to
// a different task intent through this path.
func (s *Service) UpdateDefinition(ctx context.Context, scheduleID string, def domain.ScheduleDefinition, actor domain.Actor, actorID, traceID string) (*domain.Schedule, error) {
	if err := ValidateDefinition(def, ""); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sched, err := s.schedules.Get(ctx, tx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.State != domain.ScheduleActive && sched.State != domain.SchedulePaused {
		return nil, apperr.New(apperr.KindValidation, "cannot redefine a terminal schedule")
	}

	before := sched.Definition
	next, err := ComputeNextRun(def, sched.Timezone, s.clock.Now())
	if err != nil {
		return nil, err
	}
	sched.Definition = def
	sched.NextRunAt = next
	if err := s.schedules.Update(ctx, tx, sched); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	if err := s.audit.RecordSchedule(ctx, tx, &domain.ScheduleAuditLog{
		ScheduleID: sched.ID,
		ActorType:  actor,
		ActorID:    actorID,
		TraceID:    traceID,
		Reason:     "definition_updated",
		DiffBefore: map[string]any{"kind": before.Kind},
		DiffAfter:  map[string]any{"kind": def.Kind, "next_run_at": next},
	}); err != nil {
		return nil, fmt.Errorf("record schedule audit: %w", err)
	}

	if err := s.adapter.UpdateSchedule(ctx, SchedulePayload{ScheduleID: sched.ID, Kind: def.Kind, Timezone: sched.Timezone, Definition: def}); err != nil {
		return nil, apperr.Wrap(apperr.KindProviderError, "update schedule with provider", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return sched, nil
}

// RunNow immediately queues an out-of-band execution for scheduleID,
// outside the normal fire cycle (spec §4.1 RunNow operation). The
// transaction shape mirrors Dispatcher.fire: create the execution, record
// its queued audit row, commit.
func (s *Service) RunNow(ctx context.Context, scheduleID string, actor domain.Actor, actorID, traceID string) (*domain.Execution, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sched, err := s.schedules.Get(ctx, tx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.State != domain.ScheduleActive && sched.State != domain.SchedulePaused {
		return nil, apperr.New(apperr.KindValidation, "cannot run a terminal schedule")
	}

	if traceID == "" {
		traceID = s.ids.NewID()
	}

	exec := &domain.Execution{
		ScheduleID:   sched.ID,
		TraceID:      traceID,
		ScheduledFor: s.clock.Now(),
		Status:       domain.ExecutionQueued,
		MaxAttempts:  3,
	}
	if err := s.executions.Create(ctx, tx, exec); err != nil {
		return nil, fmt.Errorf("create execution: %w", err)
	}
	if err := s.audit.RecordExecution(ctx, tx, &domain.ExecutionAuditLog{
		ExecutionID: exec.ID, ScheduleID: sched.ID, TraceID: traceID,
		ActorType: actor, Status: domain.ExecutionQueued, Reason: "run_now",
	}); err != nil {
		return nil, fmt.Errorf("record execution audit: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return exec, nil
}

func (s *Service) GetSchedule(ctx context.Context, id string) (*domain.Schedule, error) {
	return s.schedules.Get(ctx, nil, id)
}

// ListSchedules returns the most recently created schedules.
func (s *Service) ListSchedules(ctx context.Context, limit int) ([]*domain.Schedule, error) {
	return s.schedules.List(ctx, nil, limit)
}

// ListScheduleAudits returns scheduleID's audit trail, oldest-first.
func (s *Service) ListScheduleAudits(ctx context.Context, scheduleID string) ([]*domain.ScheduleAuditLog, error) {
	return s.audit.ListScheduleAudit(ctx, nil, scheduleID)
}

// GetExecution returns a single execution by id.
func (s *Service) GetExecution(ctx context.Context, id string) (*domain.Execution, error) {
	return s.executions.Get(ctx, nil, id)
}

// ListExecutions returns scheduleID's executions, newest-first.
func (s *Service) ListExecutions(ctx context.Context, scheduleID string, limit int) ([]*domain.Execution, error) {
	return s.executions.ListBySchedule(ctx, nil, scheduleID, limit)
}
