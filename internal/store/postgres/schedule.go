package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
	"github.com/jackc/pgx/v5"
)

// TaskIntentRepository implements store.TaskIntents.
type TaskIntentRepository struct{ db *DB }

func NewTaskIntentRepository(db *DB) *TaskIntentRepository { return &TaskIntentRepository{db: db} }

func (r *TaskIntentRepository) Create(ctx context.Context, storeTx store.Tx, ti *domain.TaskIntent) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO task_intents (summary, detail, origin_ref, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, summary, detail, origin_ref, created_by, superseded_by, created_at, updated_at`,
		ti.Summary, ti.Detail, ti.OriginRef, ti.CreatedBy)
	scanned, err := scanTaskIntent(row)
	if err != nil {
		return mapConflict(err, "task intent conflict")
	}
	*ti = *scanned
	return nil
}

func (r *TaskIntentRepository) Get(ctx context.Context, storeTx store.Tx, id string) (*domain.TaskIntent, error) {
	row := r.db.q(storeTx).QueryRow(ctx, `
		SELECT id, summary, detail, origin_ref, created_by, superseded_by, created_at, updated_at
		FROM task_intents WHERE id = $1`, id)
	ti, err := scanTaskIntent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTaskIntentNotFound
		}
		return nil, err
	}
	return ti, nil
}

func (r *TaskIntentRepository) Supersede(ctx context.Context, storeTx store.Tx, oldID, newID string) error {
	tag, err := r.db.q(storeTx).Exec(ctx,
		`UPDATE task_intents SET superseded_by = $2, updated_at = NOW() WHERE id = $1`, oldID, newID)
	if err != nil {
		return fmt.Errorf("supersede task intent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskIntentNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskIntent(row rowScanner) (*domain.TaskIntent, error) {
	var ti domain.TaskIntent
	err := row.Scan(&ti.ID, &ti.Summary, &ti.Detail, &ti.OriginRef, &ti.CreatedBy,
		&ti.SupersededBy, &ti.CreatedAt, &ti.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ti, nil
}

// ScheduleRepository implements store.Schedules, grounded on
// ScheduleRepository (internal/infrastructure/postgres/schedule_repo.go),
// generalized from the fixed cron_expr/url/method columns to the
// polymorphic ScheduleDefinition (stored as jsonb).
type ScheduleRepository struct{ db *DB }

func NewScheduleRepository(db *DB) *ScheduleRepository { return &ScheduleRepository{db: db} }

func (r *ScheduleRepository) Create(ctx context.Context, storeTx store.Tx, s *domain.Schedule) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO schedules (
			task_intent_id, timezone, kind, definition, state, next_run_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, task_intent_id, timezone, kind, definition, state,
		          next_run_at, last_run_at, last_run_status,
		          consecutive_failure_count, last_execution_id,
		          last_evaluated_at, last_evaluated_status, last_evaluated_error_code,
		          created_at, updated_at`,
		s.TaskIntentID, s.Timezone, s.Definition.Kind, s.Definition, s.State, s.NextRunAt)
	scanned, err := scanSchedule(row)
	if err != nil {
		return mapConflict(err, "schedule conflict")
	}
	*s = *scanned
	return nil
}

func (r *ScheduleRepository) Get(ctx context.Context, storeTx store.Tx, id string) (*domain.Schedule, error) {
	row := r.db.q(storeTx).QueryRow(ctx, scheduleSelect+` WHERE id = $1`, id)
	s, err := scanSchedule(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrScheduleNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *ScheduleRepository) Update(ctx context.Context, storeTx store.Tx, s *domain.Schedule) error {
	tag, err := r.db.q(storeTx).Exec(ctx, `
		UPDATE schedules SET
			timezone = $2, definition = $3, state = $4, next_run_at = $5,
			last_run_at = $6, last_run_status = $7, consecutive_failure_count = $8,
			last_execution_id = $9, last_evaluated_at = $10, last_evaluated_status = $11,
			last_evaluated_error_code = $12, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.Timezone, s.Definition, s.State, s.NextRunAt,
		s.LastRunAt, s.LastRunStatus, s.ConsecutiveFailureCount,
		s.LastExecutionID, s.LastEvaluatedAt, s.LastEvaluatedStatus, s.LastEvaluatedErrorCode)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}
	return nil
}

const scheduleSelect = `
	SELECT id, task_intent_id, timezone, kind, definition, state,
	       next_run_at, last_run_at, last_run_status,
	       consecutive_failure_count, last_execution_id,
	       last_evaluated_at, last_evaluated_status, last_evaluated_error_code,
	       created_at, updated_at
	FROM schedules`

func (r *ScheduleRepository) ListDue(ctx context.Context, storeTx store.Tx, asOf time.Time, limit int) ([]*domain.Schedule, error) {
	return r.listWhere(ctx, storeTx,
		`WHERE state = 'active' AND kind != 'conditional' AND next_run_at <= $1 ORDER BY next_run_at ASC LIMIT $2`,
		asOf, limit)
}

func (r *ScheduleRepository) ListConditional(ctx context.Context, storeTx store.Tx, asOf time.Time, limit int) ([]*domain.Schedule, error) {
	return r.listWhere(ctx, storeTx,
		`WHERE state = 'active' AND kind = 'conditional' AND next_run_at <= $1
		 ORDER BY next_run_at ASC LIMIT $2`,
		asOf, limit)
}

// ClaimDue selects and locks due schedules FOR UPDATE SKIP LOCKED within
// the caller's transaction. Grounded directly on the
// ClaimAndFire claim query, generalized past cron-only schedules.
func (r *ScheduleRepository) ClaimDue(ctx context.Context, storeTx store.Tx, asOf time.Time, limit int) ([]*domain.Schedule, error) {
	return r.listWhere(ctx, storeTx,
		`WHERE state = 'active' AND kind != 'conditional' AND next_run_at <= $1
		 ORDER BY next_run_at ASC LIMIT $2 FOR UPDATE SKIP LOCKED`,
		asOf, limit)
}

// List returns the most recently created schedules, for the admin
// read-only surface.
func (r *ScheduleRepository) List(ctx context.Context, storeTx store.Tx, limit int) ([]*domain.Schedule, error) {
	return r.listWhere(ctx, storeTx, `ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *ScheduleRepository) listWhere(ctx context.Context, storeTx store.Tx, where string, args ...any) ([]*domain.Schedule, error) {
	rows, err := r.db.q(storeTx).Query(ctx, scheduleSelect+" "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()
	var out []*domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSchedule(row rowScanner) (*domain.Schedule, error) {
	var s domain.Schedule
	var kind domain.ScheduleKind
	err := row.Scan(&s.ID, &s.TaskIntentID, &s.Timezone, &kind, &s.Definition, &s.State,
		&s.NextRunAt, &s.LastRunAt, &s.LastRunStatus,
		&s.ConsecutiveFailureCount, &s.LastExecutionID,
		&s.LastEvaluatedAt, &s.LastEvaluatedStatus, &s.LastEvaluatedErrorCode,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Definition.Kind = kind
	return &s, nil
}
