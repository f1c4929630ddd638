package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
	"github.com/jackc/pgx/v5"
)

// ExecutionRepository implements store.Executions, grounded on
// JobRepository reschedule/fail/complete methods, generalized to
// the richer Execution lifecycle and the (schedule_id, trace_id) idempotency
// key (spec §4.2/§9) instead of the idempotency_key column.
type ExecutionRepository struct{ db *DB }

func NewExecutionRepository(db *DB) *ExecutionRepository { return &ExecutionRepository{db: db} }

const executionSelect = `
	SELECT id, schedule_id, trace_id, scheduled_for, status,
	       attempt_count, max_attempts, retry_count, next_retry_at,
	       last_error_code, last_error_message,
	       started_at, finished_at, created_at, updated_at
	FROM executions`

func (r *ExecutionRepository) Create(ctx context.Context, storeTx store.Tx, e *domain.Execution) error {
	var code, msg *string
	if e.LastError != nil {
		code, msg = &e.LastError.Code, &e.LastError.Message
	}
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO executions (
			schedule_id, trace_id, scheduled_for, status,
			attempt_count, max_attempts, retry_count, next_retry_at,
			last_error_code, last_error_message, started_at, finished_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, schedule_id, trace_id, scheduled_for, status,
		          attempt_count, max_attempts, retry_count, next_retry_at,
		          last_error_code, last_error_message,
		          started_at, finished_at, created_at, updated_at`,
		e.ScheduleID, e.TraceID, e.ScheduledFor, e.Status,
		e.AttemptCount, e.MaxAttempts, e.RetryCount, e.NextRetryAt,
		code, msg, e.StartedAt, e.FinishedAt)
	scanned, err := scanExecution(row)
	if err != nil {
		return mapConflict(err, "duplicate execution for (schedule_id, trace_id)")
	}
	*e = *scanned
	return nil
}

func (r *ExecutionRepository) Get(ctx context.Context, storeTx store.Tx, id string) (*domain.Execution, error) {
	row := r.db.q(storeTx).QueryRow(ctx, executionSelect+` WHERE id = $1`, id)
	e, err := scanExecution(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrExecutionNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *ExecutionRepository) Update(ctx context.Context, storeTx store.Tx, e *domain.Execution) error {
	var code, msg *string
	if e.LastError != nil {
		code, msg = &e.LastError.Code, &e.LastError.Message
	}
	tag, err := r.db.q(storeTx).Exec(ctx, `
		UPDATE executions SET
			status = $2, attempt_count = $3, retry_count = $4, next_retry_at = $5,
			last_error_code = $6, last_error_message = $7,
			started_at = $8, finished_at = $9, updated_at = NOW()
		WHERE id = $1`,
		e.ID, e.Status, e.AttemptCount, e.RetryCount, e.NextRetryAt,
		code, msg, e.StartedAt, e.FinishedAt)
	if err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExecutionNotFound
	}
	return nil
}

func (r *ExecutionRepository) FindByScheduleAndTrace(ctx context.Context, storeTx store.Tx, scheduleID, traceID string) (*domain.Execution, error) {
	row := r.db.q(storeTx).QueryRow(ctx, executionSelect+` WHERE schedule_id = $1 AND trace_id = $2`, scheduleID, traceID)
	e, err := scanExecution(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r *ExecutionRepository) ListRetryDue(ctx context.Context, storeTx store.Tx, asOf time.Time, limit int) ([]*domain.Execution, error) {
	rows, err := r.db.q(storeTx).Query(ctx, executionSelect+`
		WHERE (status = 'queued' AND scheduled_for <= $1)
		   OR (status = 'retry_scheduled' AND next_retry_at <= $1)
		ORDER BY COALESCE(next_retry_at, scheduled_for) ASC LIMIT $2`, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("list retry-due executions: %w", err)
	}
	defer rows.Close()
	var out []*domain.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListBySchedule returns scheduleID's executions newest-first, for the
// admin read-only surface.
func (r *ExecutionRepository) ListBySchedule(ctx context.Context, storeTx store.Tx, scheduleID string, limit int) ([]*domain.Execution, error) {
	rows, err := r.db.q(storeTx).Query(ctx, executionSelect+`
		WHERE schedule_id = $1
		ORDER BY scheduled_for DESC LIMIT $2`, scheduleID, limit)
	if err != nil {
		return nil, fmt.Errorf("list executions by schedule: %w", err)
	}
	defer rows.Close()
	var out []*domain.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanExecution(row rowScanner) (*domain.Execution, error) {
	var e domain.Execution
	var code, msg *string
	err := row.Scan(&e.ID, &e.ScheduleID, &e.TraceID, &e.ScheduledFor, &e.Status,
		&e.AttemptCount, &e.MaxAttempts, &e.RetryCount, &e.NextRetryAt,
		&code, &msg, &e.StartedAt, &e.FinishedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if code != nil {
		e.LastError = &domain.ExecutionError{Code: *code, Message: derefStr(msg)}
	}
	return &e, nil
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
