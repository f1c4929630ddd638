package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/metrics"
	"github.com/attentive-assistant/core/internal/store"
)

// SubjectResolver resolves a conditional schedule's predicate_subject to an
// observed value at evaluation time. Injected so the evaluator stays
// agnostic of where subjects live (spec §4.4).
type SubjectResolver interface {
	Resolve(ctx context.Context, subject string) (value string, ok bool, err error)
}

// PredicateEvaluator periodically evaluates conditional schedules' predicates
// and dispatches a real execution when TRUE. Unlike a cron-only schedule,
// a conditional schedule has no fixed next_run_at to dispatch on; this is
// built in the poll-loop/service idiom with an injected resolver for
// testability.
type PredicateEvaluator struct {
	db        store.Beginner
	schedules store.Schedules
	executions store.Executions
	audit     store.AuditLogs
	resolver  SubjectResolver
	clock     clockid.Clock
	ids       clockid.IDGenerator
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewPredicateEvaluator(db store.Beginner, schedules store.Schedules, executions store.Executions, audit store.AuditLogs, resolver SubjectResolver, clock clockid.Clock, ids clockid.IDGenerator, logger *slog.Logger, interval time.Duration, batchSize int) *PredicateEvaluator {
	return &PredicateEvaluator{
		db: db, schedules: schedules, executions: executions, audit: audit,
		resolver: resolver, clock: clock, ids: ids,
		logger: logger.With("component", "predicate_evaluator"), interval: interval, batchSize: batchSize,
	}
}

func (p *PredicateEvaluator) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.logger.Info("predicate evaluator started", "interval", p.interval)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("predicate evaluator shut down")
			return
		case <-ticker.C:
			p.evaluateDue(ctx)
		}
	}
}

func (p *PredicateEvaluator) evaluateDue(ctx context.Context) {
	now := p.clock.Now()
	due, err := p.schedules.ListConditional(ctx, nil, now, p.batchSize)
	if err != nil {
		p.logger.Error("list due conditional schedules", "error", err)
		return
	}
	for _, sched := range due {
		if err := p.evaluate(ctx, sched, now); err != nil {
			p.logger.Error("evaluate predicate", "schedule_id", sched.ID, "error", err)
		}
	}
}

func (p *PredicateEvaluator) evaluate(ctx context.Context, sched *domain.Schedule, now time.Time) error {
	evaluationID := fmt.Sprintf("%s:%d", sched.ID, now.Unix())
	def := sched.Definition

	value, ok, err := p.resolver.Resolve(ctx, *def.PredicateSubject)
	status, resultCode, errorCode := "FALSE", "", ""
	if err != nil {
		status, errorCode = "ERROR", "resolver_error"
	} else if !ok {
		status, resultCode = "FALSE", "subject_absent"
	} else {
		matched, evalErr := EvaluatePredicate(def, value)
		if evalErr != nil {
			status, errorCode = "ERROR", "predicate_error"
		} else if matched {
			status, resultCode = "TRUE", "matched"
		} else {
			status, resultCode = "FALSE", "not_matched"
		}
	}
	metrics.PredicateEvaluationsTotal.WithLabelValues(status).Inc()

	tx, txErr := p.db.Begin(ctx)
	if txErr != nil {
		return fmt.Errorf("begin tx: %w", txErr)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := p.audit.RecordPredicateEvaluation(ctx, tx, &domain.PredicateEvaluationAuditLog{
		EvaluationID: evaluationID, ScheduleID: sched.ID,
		Status: status, ResultCode: resultCode, Observed: value, ErrorCode: errorCode,
	}); err != nil {
		return fmt.Errorf("record predicate evaluation: %w", err)
	}

	next := now.Add(time.Duration(*def.EvaluationCadenceSec) * time.Second)
	sched.LastEvaluatedAt = &now
	statusCopy := status
	sched.LastEvaluatedStatus = &statusCopy
	if errorCode != "" {
		sched.LastEvaluatedErrorCode = &errorCode
	}
	sched.NextRunAt = next

	var firedTraceID string
	if status == "TRUE" {
		traceID := p.ids.NewID()
		firedTraceID = traceID
		exec := &domain.Execution{
			ScheduleID: sched.ID, TraceID: traceID, ScheduledFor: now,
			Status: domain.ExecutionQueued, MaxAttempts: 3,
		}
		if err := p.executions.Create(ctx, tx, exec); err != nil {
			return fmt.Errorf("create execution from predicate match: %w", err)
		}
		if err := p.audit.RecordExecution(ctx, tx, &domain.ExecutionAuditLog{
			ExecutionID: exec.ID, ScheduleID: sched.ID, TraceID: traceID,
			ActorType: domain.ActorScheduled, Status: domain.ExecutionQueued, Reason: "predicate_matched",
		}); err != nil {
			return fmt.Errorf("record execution audit: %w", err)
		}
		sched.LastExecutionID = &exec.ID
	}

	if err := p.schedules.Update(ctx, tx, sched); err != nil {
		return fmt.Errorf("advance conditional schedule: %w", err)
	}
	if firedTraceID != "" {
		p.logger.Info("conditional schedule fired", "schedule_id", sched.ID, "trace_id", firedTraceID)
	}
	return tx.Commit(ctx)
}

// EvaluatePredicate compares the observed value against the definition's
// literal per its operator and declared value type (spec §4.4). "matches"
// defaults to literal equality; see DESIGN.md's Open Question decision.
func EvaluatePredicate(def domain.ScheduleDefinition, observed string) (bool, error) {
	if def.PredicateOperator == nil {
		return false, fmt.Errorf("predicate_operator is required")
	}
	op := *def.PredicateOperator

	if op == domain.OpExists {
		return observed != "", nil
	}

	var literal string
	if def.PredicateLiteral != nil {
		literal = *def.PredicateLiteral
	}

	valueType := domain.ValueTypeString
	if def.PredicateValueType != nil {
		valueType = *def.PredicateValueType
	}

	switch op {
	case domain.OpEQ:
		return compareEqual(observed, literal, valueType)
	case domain.OpNEQ:
		eq, err := compareEqual(observed, literal, valueType)
		return !eq, err
	case domain.OpMatches:
		return observed == literal, nil
	case domain.OpGT, domain.OpGTE, domain.OpLT, domain.OpLTE:
		return compareOrdered(observed, literal, op)
	default:
		return false, fmt.Errorf("unsupported predicate operator %q", op)
	}
}

func compareEqual(observed, literal string, valueType domain.PredicateValueType) (bool, error) {
	switch valueType {
	case domain.ValueTypeBool:
		ob, err1 := strconv.ParseBool(observed)
		lb, err2 := strconv.ParseBool(literal)
		if err1 != nil || err2 != nil {
			return false, fmt.Errorf("invalid bool comparison")
		}
		return ob == lb, nil
	case domain.ValueTypeNumber:
		of, err1 := strconv.ParseFloat(observed, 64)
		lf, err2 := strconv.ParseFloat(literal, 64)
		if err1 != nil || err2 != nil {
			return false, fmt.Errorf("invalid number comparison")
		}
		return of == lf, nil
	default:
		return observed == literal, nil
	}
}

func compareOrdered(observed, literal string, op domain.PredicateOperator) (bool, error) {
	of, err1 := strconv.ParseFloat(observed, 64)
	lf, err2 := strconv.ParseFloat(literal, 64)
	if err1 != nil || err2 != nil {
		return false, fmt.Errorf("ordered comparison requires numeric values")
	}
	switch op {
	case domain.OpGT:
		return of > lf, nil
	case domain.OpGTE:
		return of >= lf, nil
	case domain.OpLT:
		return of < lf, nil
	case domain.OpLTE:
		return of <= lf, nil
	default:
		return false, fmt.Errorf("unsupported ordered operator %q", op)
	}
}
