package postgres

import (
	"context"
	"fmt"

	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
	"github.com/jackc/pgx/v5"
)

// AuditLogRepository implements store.AuditLogs. Every Record* method is
// intended to be called with the same store.Tx as the domain mutation it
// describes, the same same-transaction discipline as
// ClaimAndFire (spec testable property 5).
type AuditLogRepository struct{ db *DB }

func NewAuditLogRepository(db *DB) *AuditLogRepository { return &AuditLogRepository{db: db} }

func (r *AuditLogRepository) RecordSchedule(ctx context.Context, storeTx store.Tx, l *domain.ScheduleAuditLog) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO schedule_audit_logs (
			schedule_id, actor_type, actor_id, trace_id, reason, diff_before, diff_after
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, occurred_at`,
		l.ScheduleID, l.ActorType, l.ActorID, l.TraceID, l.Reason, l.DiffBefore, l.DiffAfter)
	return row.Scan(&l.ID, &l.OccurredAt)
}

func (r *AuditLogRepository) RecordExecution(ctx context.Context, storeTx store.Tx, l *domain.ExecutionAuditLog) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO execution_audit_logs (
			execution_id, schedule_id, trace_id, actor_type, status, reason
		) VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, occurred_at`,
		l.ExecutionID, l.ScheduleID, l.TraceID, l.ActorType, l.Status, l.Reason)
	return row.Scan(&l.ID, &l.OccurredAt)
}

func (r *AuditLogRepository) RecordPredicateEvaluation(ctx context.Context, storeTx store.Tx, l *domain.PredicateEvaluationAuditLog) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO predicate_evaluation_audit_logs (
			evaluation_id, schedule_id, status, result_code, observed, error_code
		) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (evaluation_id) DO UPDATE SET evaluation_id = EXCLUDED.evaluation_id
		RETURNING id, evaluated_at`,
		l.EvaluationID, l.ScheduleID, l.Status, l.ResultCode, l.Observed, l.ErrorCode)
	return row.Scan(&l.ID, &l.EvaluatedAt)
}

func (r *AuditLogRepository) FindPredicateEvaluation(ctx context.Context, storeTx store.Tx, evaluationID string) (*domain.PredicateEvaluationAuditLog, error) {
	row := r.db.q(storeTx).QueryRow(ctx, `
		SELECT id, evaluation_id, schedule_id, status, result_code, observed, error_code, evaluated_at
		FROM predicate_evaluation_audit_logs WHERE evaluation_id = $1`, evaluationID)
	var l domain.PredicateEvaluationAuditLog
	err := row.Scan(&l.ID, &l.EvaluationID, &l.ScheduleID, &l.Status, &l.ResultCode, &l.Observed, &l.ErrorCode, &l.EvaluatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *AuditLogRepository) RecordRoutingDecision(ctx context.Context, storeTx store.Tx, l *domain.RoutingDecisionAuditLog) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO routing_decision_audit_logs (
			signal_reference, actor_type, actor_id, trace_id, reason,
			base_assessment, final_decision, channel
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, decided_at`,
		l.SignalReference, l.ActorType, l.ActorID, l.TraceID, l.Reason,
		l.BaseAssessment, l.FinalDecision, l.Channel)
	return row.Scan(&l.ID, &l.DecidedAt)
}

// ListScheduleAudit returns scheduleID's audit trail, oldest-first, for
// the admin read-only surface.
func (r *AuditLogRepository) ListScheduleAudit(ctx context.Context, storeTx store.Tx, scheduleID string) ([]*domain.ScheduleAuditLog, error) {
	rows, err := r.db.q(storeTx).Query(ctx, `
		SELECT id, schedule_id, actor_type, actor_id, trace_id, reason, diff_before, diff_after, occurred_at
		FROM schedule_audit_logs WHERE schedule_id = $1 ORDER BY occurred_at ASC`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list schedule audit: %w", err)
	}
	defer rows.Close()
	var out []*domain.ScheduleAuditLog
	for rows.Next() {
		var l domain.ScheduleAuditLog
		if err := rows.Scan(&l.ID, &l.ScheduleID, &l.ActorType, &l.ActorID, &l.TraceID, &l.Reason, &l.DiffBefore, &l.DiffAfter, &l.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *AuditLogRepository) ListExecutionAudit(ctx context.Context, storeTx store.Tx, executionID string) ([]*domain.ExecutionAuditLog, error) {
	rows, err := r.db.q(storeTx).Query(ctx, `
		SELECT id, execution_id, schedule_id, trace_id, actor_type, status, reason, occurred_at
		FROM execution_audit_logs WHERE execution_id = $1 ORDER BY occurred_at ASC`, executionID)
	if err != nil {
		return nil, fmt.Errorf("list execution audit: %w", err)
	}
	defer rows.Close()
	var out []*domain.ExecutionAuditLog
	for rows.Next() {
		var l domain.ExecutionAuditLog
		if err := rows.Scan(&l.ID, &l.ExecutionID, &l.ScheduleID, &l.TraceID, &l.ActorType, &l.Status, &l.Reason, &l.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
