package scheduling_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/attentive-assistant/core/internal/apperr"
	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/scheduling"
	"github.com/attentive-assistant/core/internal/store"
)

type fakeTaskIntents struct{}

func (fakeTaskIntents) Create(ctx context.Context, tx store.Tx, ti *domain.TaskIntent) error {
	return nil
}
func (fakeTaskIntents) Get(ctx context.Context, tx store.Tx, id string) (*domain.TaskIntent, error) {
	return &domain.TaskIntent{ID: id}, nil
}
func (fakeTaskIntents) Supersede(ctx context.Context, tx store.Tx, oldID, newID string) error {
	return nil
}

type fakeAdapter struct {
	register func(ctx context.Context, p scheduling.SchedulePayload) error
	update   func(ctx context.Context, p scheduling.SchedulePayload) error
	pause    func(ctx context.Context, scheduleID string) error
	resume   func(ctx context.Context, scheduleID string) error
	delete   func(ctx context.Context, scheduleID string) error
}

func (f *fakeAdapter) RegisterSchedule(ctx context.Context, p scheduling.SchedulePayload) error {
	if f.register != nil {
		return f.register(ctx, p)
	}
	return nil
}
func (f *fakeAdapter) UpdateSchedule(ctx context.Context, p scheduling.SchedulePayload) error {
	if f.update != nil {
		return f.update(ctx, p)
	}
	return nil
}
func (f *fakeAdapter) PauseSchedule(ctx context.Context, id string) error {
	if f.pause != nil {
		return f.pause(ctx, id)
	}
	return nil
}
func (f *fakeAdapter) ResumeSchedule(ctx context.Context, id string) error {
	if f.resume != nil {
		return f.resume(ctx, id)
	}
	return nil
}
func (f *fakeAdapter) DeleteSchedule(ctx context.Context, id string) error {
	if f.delete != nil {
		return f.delete(ctx, id)
	}
	return nil
}

func newTestService(schedules *fakeSchedules, executions *fakeExecutions, audit *fakeAuditLogs, adapter scheduling.ProviderAdapter) *scheduling.Service {
	return scheduling.NewService(fakeBeginner{}, fakeTaskIntents{}, schedules, executions, audit, adapter,
		clockid.Frozen{At: time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)}, &clockid.StaticGenerator{IDs: []string{"trace-static"}})
}

func TestService_RunNow_CreatesQueuedExecutionAndAudit(t *testing.T) {
	schedules := &fakeSchedules{
		get: func(ctx context.Context, tx store.Tx, id string) (*domain.Schedule, error) {
			return &domain.Schedule{ID: id, State: domain.ScheduleActive}, nil
		},
	}
	var created *domain.Execution
	var audited *domain.ExecutionAuditLog
	executions := &fakeExecutions{
		create: func(ctx context.Context, tx store.Tx, e *domain.Execution) error {
			e.ID = "exec-now"
			created = e
			return nil
		},
	}
	audit := &fakeAuditLogs{
		recordExecution: func(ctx context.Context, tx store.Tx, l *domain.ExecutionAuditLog) error {
			audited = l
			return nil
		},
	}
	svc := newTestService(schedules, executions, audit, &fakeAdapter{})

	exec, err := svc.RunNow(context.Background(), "sched-1", domain.ActorHuman, "user-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec != created || exec.Status != domain.ExecutionQueued {
		t.Errorf("got %+v, want a queued execution", exec)
	}
	if exec.TraceID == "" {
		t.Error("want a generated trace id when none is supplied")
	}
	if audited == nil || audited.Reason != "run_now" || audited.Status != domain.ExecutionQueued {
		t.Errorf("audited = %+v, want reason run_now with status queued", audited)
	}
}

func TestService_RunNow_RejectsTerminalSchedule(t *testing.T) {
	schedules := &fakeSchedules{
		get: func(ctx context.Context, tx store.Tx, id string) (*domain.Schedule, error) {
			return &domain.Schedule{ID: id, State: domain.ScheduleCanceled}, nil
		},
	}
	svc := newTestService(schedules, &fakeExecutions{}, &fakeAuditLogs{}, &fakeAdapter{})

	_, err := svc.RunNow(context.Background(), "sched-1", domain.ActorHuman, "user-1", "")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want KindValidation for a canceled schedule", err)
	}
}

func TestService_PauseSchedule_DrivesAdapterPause(t *testing.T) {
	schedules := &fakeSchedules{
		get: func(ctx context.Context, tx store.Tx, id string) (*domain.Schedule, error) {
			return &domain.Schedule{ID: id, State: domain.ScheduleActive}, nil
		},
	}
	var paused string
	adapter := &fakeAdapter{pause: func(ctx context.Context, id string) error { paused = id; return nil }}
	svc := newTestService(schedules, &fakeExecutions{}, &fakeAuditLogs{}, adapter)

	sched, err := svc.PauseSchedule(context.Background(), "sched-1", domain.ActorHuman, "user-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sched.State != domain.SchedulePaused {
		t.Errorf("got state %v, want paused", sched.State)
	}
	if paused != "sched-1" {
		t.Errorf("adapter pause called with %q, want sched-1", paused)
	}
}

func TestService_PauseSchedule_AdapterFailureSurfacesProviderError(t *testing.T) {
	schedules := &fakeSchedules{
		get: func(ctx context.Context, tx store.Tx, id string) (*domain.Schedule, error) {
			return &domain.Schedule{ID: id, State: domain.ScheduleActive}, nil
		},
	}
	adapter := &fakeAdapter{pause: func(ctx context.Context, id string) error { return errors.New("provider down") }}
	svc := newTestService(schedules, &fakeExecutions{}, &fakeAuditLogs{}, adapter)

	_, err := svc.PauseSchedule(context.Background(), "sched-1", domain.ActorHuman, "user-1", "")
	if apperr.KindOf(err) != apperr.KindProviderError {
		t.Fatalf("got %v, want KindProviderError when the adapter call fails", err)
	}
}

func TestService_DeleteSchedule_CancelsAndDrivesAdapterDelete(t *testing.T) {
	schedules := &fakeSchedules{
		get: func(ctx context.Context, tx store.Tx, id string) (*domain.Schedule, error) {
			return &domain.Schedule{ID: id, State: domain.ScheduleActive}, nil
		},
	}
	var deleted string
	adapter := &fakeAdapter{delete: func(ctx context.Context, id string) error { deleted = id; return nil }}
	var audited *domain.ScheduleAuditLog
	audit := &fakeAuditLogs{recordSchedule: func(ctx context.Context, tx store.Tx, l *domain.ScheduleAuditLog) error {
		audited = l
		return nil
	}}
	svc := newTestService(schedules, &fakeExecutions{}, audit, adapter)

	sched, err := svc.DeleteSchedule(context.Background(), "sched-1", domain.ActorHuman, "user-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sched.State != domain.ScheduleCanceled {
		t.Errorf("got state %v, want canceled", sched.State)
	}
	if deleted != "sched-1" {
		t.Errorf("adapter delete called with %q, want sched-1", deleted)
	}
	if audited == nil || audited.Reason != "deleted" {
		t.Errorf("audited = %+v, want reason deleted", audited)
	}
}
