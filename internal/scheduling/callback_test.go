package scheduling_test

import (
	"context"
	"testing"
	"time"

	"github.com/attentive-assistant/core/internal/apperr"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/scheduling"
	"github.com/attentive-assistant/core/internal/store"
)

type fakeTx struct{}

func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeBeginner struct{}

func (fakeBeginner) Begin(ctx context.Context) (store.Tx, error) { return fakeTx{}, nil }

type fakeSchedules struct {
	get func(ctx context.Context, tx store.Tx, id string) (*domain.Schedule, error)
}

func (f *fakeSchedules) Create(ctx context.Context, tx store.Tx, s *domain.Schedule) error {
	panic("not implemented")
}
func (f *fakeSchedules) Get(ctx context.Context, tx store.Tx, id string) (*domain.Schedule, error) {
	return f.get(ctx, tx, id)
}
func (f *fakeSchedules) Update(ctx context.Context, tx store.Tx, s *domain.Schedule) error {
	panic("not implemented")
}
func (f *fakeSchedules) ListDue(ctx context.Context, tx store.Tx, asOf time.Time, limit int) ([]*domain.Schedule, error) {
	panic("not implemented")
}
func (f *fakeSchedules) ListConditional(ctx context.Context, tx store.Tx, asOf time.Time, limit int) ([]*domain.Schedule, error) {
	panic("not implemented")
}
func (f *fakeSchedules) ClaimDue(ctx context.Context, tx store.Tx, asOf time.Time, limit int) ([]*domain.Schedule, error) {
	panic("not implemented")
}
func (f *fakeSchedules) List(ctx context.Context, tx store.Tx, limit int) ([]*domain.Schedule, error) {
	panic("not implemented")
}

type fakeExecutions struct {
	findByScheduleAndTrace func(ctx context.Context, tx store.Tx, scheduleID, traceID string) (*domain.Execution, error)
	create                 func(ctx context.Context, tx store.Tx, e *domain.Execution) error
}

func (f *fakeExecutions) Create(ctx context.Context, tx store.Tx, e *domain.Execution) error {
	return f.create(ctx, tx, e)
}
func (f *fakeExecutions) Get(ctx context.Context, tx store.Tx, id string) (*domain.Execution, error) {
	panic("not implemented")
}
func (f *fakeExecutions) Update(ctx context.Context, tx store.Tx, e *domain.Execution) error {
	panic("not implemented")
}
func (f *fakeExecutions) FindByScheduleAndTrace(ctx context.Context, tx store.Tx, scheduleID, traceID string) (*domain.Execution, error) {
	return f.findByScheduleAndTrace(ctx, tx, scheduleID, traceID)
}
func (f *fakeExecutions) ListRetryDue(ctx context.Context, tx store.Tx, asOf time.Time, limit int) ([]*domain.Execution, error) {
	panic("not implemented")
}
func (f *fakeExecutions) ListBySchedule(ctx context.Context, tx store.Tx, scheduleID string, limit int) ([]*domain.Execution, error) {
	panic("not implemented")
}

type fakeAuditLogs struct {
	recordExecution func(ctx context.Context, tx store.Tx, l *domain.ExecutionAuditLog) error
	recordSchedule  func(ctx context.Context, tx store.Tx, l *domain.ScheduleAuditLog) error
}

func (f *fakeAuditLogs) RecordSchedule(ctx context.Context, tx store.Tx, l *domain.ScheduleAuditLog) error {
	if f.recordSchedule != nil {
		return f.recordSchedule(ctx, tx, l)
	}
	return nil
}
func (f *fakeAuditLogs) RecordExecution(ctx context.Context, tx store.Tx, l *domain.ExecutionAuditLog) error {
	return f.recordExecution(ctx, tx, l)
}
func (f *fakeAuditLogs) RecordPredicateEvaluation(ctx context.Context, tx store.Tx, l *domain.PredicateEvaluationAuditLog) error {
	panic("not implemented")
}
func (f *fakeAuditLogs) FindPredicateEvaluation(ctx context.Context, tx store.Tx, evaluationID string) (*domain.PredicateEvaluationAuditLog, error) {
	panic("not implemented")
}
func (f *fakeAuditLogs) RecordRoutingDecision(ctx context.Context, tx store.Tx, l *domain.RoutingDecisionAuditLog) error {
	panic("not implemented")
}
func (f *fakeAuditLogs) ListExecutionAudit(ctx context.Context, tx store.Tx, executionID string) ([]*domain.ExecutionAuditLog, error) {
	panic("not implemented")
}
func (f *fakeAuditLogs) ListScheduleAudit(ctx context.Context, tx store.Tx, scheduleID string) ([]*domain.ScheduleAuditLog, error) {
	panic("not implemented")
}

func TestCallbackBridge_Handle_RejectsMissingFields(t *testing.T) {
	bridge := scheduling.NewCallbackBridge(fakeBeginner{}, &fakeSchedules{}, &fakeExecutions{}, &fakeAuditLogs{})
	_, _, err := bridge.Handle(context.Background(), scheduling.CallbackRequest{})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want KindValidation", err)
	}
}

func TestCallbackBridge_Handle_DuplicateReturnsExistingExecution(t *testing.T) {
	existing := &domain.Execution{ID: "exec-1", ScheduleID: "sched-1", TraceID: "trace-1"}
	executions := &fakeExecutions{
		findByScheduleAndTrace: func(ctx context.Context, tx store.Tx, scheduleID, traceID string) (*domain.Execution, error) {
			return existing, nil
		},
	}
	bridge := scheduling.NewCallbackBridge(fakeBeginner{}, &fakeSchedules{}, executions, &fakeAuditLogs{})
	req := scheduling.CallbackRequest{ScheduleID: "sched-1", TraceID: "trace-1", TriggerSource: "timer", EmittedAt: time.Now()}
	exec, duplicate, err := bridge.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !duplicate {
		t.Error("want duplicate=true on replay")
	}
	if exec != existing {
		t.Errorf("got %+v, want the existing execution returned unchanged", exec)
	}
}

func TestCallbackBridge_Handle_CreatesQueuedExecution(t *testing.T) {
	schedules := &fakeSchedules{
		get: func(ctx context.Context, tx store.Tx, id string) (*domain.Schedule, error) {
			return &domain.Schedule{ID: id, State: domain.ScheduleActive}, nil
		},
	}
	var created *domain.Execution
	var audited *domain.ExecutionAuditLog
	executions := &fakeExecutions{
		findByScheduleAndTrace: func(ctx context.Context, tx store.Tx, scheduleID, traceID string) (*domain.Execution, error) {
			return nil, nil
		},
		create: func(ctx context.Context, tx store.Tx, e *domain.Execution) error {
			e.ID = "new-exec"
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
	bridge := scheduling.NewCallbackBridge(fakeBeginner{}, schedules, executions, audit)
	req := scheduling.CallbackRequest{ScheduleID: "sched-1", TraceID: "trace-1", TriggerSource: "timer", EmittedAt: time.Now()}
	exec, duplicate, err := bridge.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if duplicate {
		t.Error("want duplicate=false for a first-time callback")
	}
	if exec != created || exec.Status != domain.ExecutionQueued {
		t.Errorf("got %+v", exec)
	}
	if audited == nil || audited.Reason != "callback:timer" {
		t.Errorf("audited = %+v, want reason callback:timer", audited)
	}
}

func TestCallbackBridge_Handle_RejectsInactiveSchedule(t *testing.T) {
	schedules := &fakeSchedules{
		get: func(ctx context.Context, tx store.Tx, id string) (*domain.Schedule, error) {
			return &domain.Schedule{ID: id, State: domain.SchedulePaused}, nil
		},
	}
	executions := &fakeExecutions{
		findByScheduleAndTrace: func(ctx context.Context, tx store.Tx, scheduleID, traceID string) (*domain.Execution, error) {
			return nil, nil
		},
	}
	bridge := scheduling.NewCallbackBridge(fakeBeginner{}, schedules, executions, &fakeAuditLogs{})
	req := scheduling.CallbackRequest{ScheduleID: "sched-1", TraceID: "trace-1", TriggerSource: "timer", EmittedAt: time.Now()}
	_, _, err := bridge.Handle(context.Background(), req)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want KindValidation for a non-active schedule", err)
	}
}

func TestCallbackBridge_Handle_RejectsStaleScheduledFor(t *testing.T) {
	emitted := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	scheduledFor := emitted.Add(-48 * time.Hour)
	bridge := scheduling.NewCallbackBridge(fakeBeginner{}, &fakeSchedules{}, &fakeExecutions{}, &fakeAuditLogs{})
	req := scheduling.CallbackRequest{
		ScheduleID: "sched-1", TraceID: "trace-1", TriggerSource: "timer",
		EmittedAt: emitted, ScheduledFor: &scheduledFor,
	}
	_, _, err := bridge.Handle(context.Background(), req)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("got %v, want KindValidation for stale scheduled_for", err)
	}
}
