package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
	"github.com/jackc/pgx/v5"
)

// AttentionContextRepository implements store.AttentionContexts. No
// direct upstream analogue exists; built in the upsert-by-natural-key idiom
// (ON CONFLICT DO UPDATE), used elsewhere in the pack for per-key settings.
type AttentionContextRepository struct{ db *DB }

func NewAttentionContextRepository(db *DB) *AttentionContextRepository {
	return &AttentionContextRepository{db: db}
}

func (r *AttentionContextRepository) Get(ctx context.Context, storeTx store.Tx, owner string) (*domain.AttentionContext, error) {
	row := r.db.q(storeTx).QueryRow(ctx, `
		SELECT owner, quiet_hours, do_not_disturb, interruptible_windows
		FROM attention_contexts WHERE owner = $1`, owner)
	var c domain.AttentionContext
	err := row.Scan(&c.Owner, &c.QuietHours, &c.DoNotDisturb, &c.InterruptibleWindows)
	if err != nil {
		if err == pgx.ErrNoRows {
			return &domain.AttentionContext{Owner: owner}, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *AttentionContextRepository) Upsert(ctx context.Context, storeTx store.Tx, c *domain.AttentionContext) error {
	_, err := r.db.q(storeTx).Exec(ctx, `
		INSERT INTO attention_contexts (owner, quiet_hours, do_not_disturb, interruptible_windows)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (owner) DO UPDATE SET
			quiet_hours = EXCLUDED.quiet_hours,
			do_not_disturb = EXCLUDED.do_not_disturb,
			interruptible_windows = EXCLUDED.interruptible_windows`,
		c.Owner, c.QuietHours, c.DoNotDisturb, c.InterruptibleWindows)
	if err != nil {
		return fmt.Errorf("upsert attention context: %w", err)
	}
	return nil
}

// AttentionPreferencesRepository implements store.AttentionPreferences.
type AttentionPreferencesRepository struct{ db *DB }

func NewAttentionPreferencesRepository(db *DB) *AttentionPreferencesRepository {
	return &AttentionPreferencesRepository{db: db}
}

func (r *AttentionPreferencesRepository) Get(ctx context.Context, storeTx store.Tx, owner string) (*domain.AttentionPreferences, error) {
	row := r.db.q(storeTx).QueryRow(ctx, `
		SELECT owner, channel_preferences, escalation_thresholds, always_notify
		FROM attention_preferences WHERE owner = $1`, owner)
	var p domain.AttentionPreferences
	err := row.Scan(&p.Owner, &p.ChannelPreferences, &p.EscalationThresholds, &p.AlwaysNotify)
	if err != nil {
		if err == pgx.ErrNoRows {
			return &domain.AttentionPreferences{Owner: owner}, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *AttentionPreferencesRepository) Upsert(ctx context.Context, storeTx store.Tx, p *domain.AttentionPreferences) error {
	_, err := r.db.q(storeTx).Exec(ctx, `
		INSERT INTO attention_preferences (owner, channel_preferences, escalation_thresholds, always_notify)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (owner) DO UPDATE SET
			channel_preferences = EXCLUDED.channel_preferences,
			escalation_thresholds = EXCLUDED.escalation_thresholds,
			always_notify = EXCLUDED.always_notify`,
		p.Owner, p.ChannelPreferences, p.EscalationThresholds, p.AlwaysNotify)
	if err != nil {
		return fmt.Errorf("upsert attention preferences: %w", err)
	}
	return nil
}

// NotificationHistoryRepository implements store.NotificationHistory.
type NotificationHistoryRepository struct{ db *DB }

func NewNotificationHistoryRepository(db *DB) *NotificationHistoryRepository {
	return &NotificationHistoryRepository{db: db}
}

func (r *NotificationHistoryRepository) Record(ctx context.Context, storeTx store.Tx, e *domain.NotificationHistoryEntry) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO notification_history (owner, signal_reference, channel, outcome)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at`, e.Owner, e.SignalReference, e.Channel, e.Outcome)
	return row.Scan(&e.ID, &e.CreatedAt)
}

func (r *NotificationHistoryRepository) CountSince(ctx context.Context, storeTx store.Tx, owner, channel string, since time.Time) (int, error) {
	var n int
	err := r.db.q(storeTx).QueryRow(ctx, `
		SELECT COUNT(*) FROM notification_history
		WHERE owner = $1 AND channel = $2 AND created_at >= $3
		  AND (outcome LIKE 'NOTIFY%' OR outcome LIKE 'ESCALATE%')`,
		owner, channel, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count notification history: %w", err)
	}
	return n, nil
}

// FailClosedQueueRepository implements store.FailClosedQueue, grounded on
// original_source's fail_closed.py reprocessing sweep.
type FailClosedQueueRepository struct{ db *DB }

func NewFailClosedQueueRepository(db *DB) *FailClosedQueueRepository {
	return &FailClosedQueueRepository{db: db}
}

func (r *FailClosedQueueRepository) Enqueue(ctx context.Context, storeTx store.Tx, e *domain.FailClosedQueueEntry) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO fail_closed_queue (envelope, reason, retry_at)
		VALUES ($1,$2,$3)
		RETURNING id, queued_at`, e.Envelope, e.Reason, e.RetryAt)
	return row.Scan(&e.ID, &e.QueuedAt)
}

func (r *FailClosedQueueRepository) ListDue(ctx context.Context, storeTx store.Tx, asOf time.Time, limit int) ([]*domain.FailClosedQueueEntry, error) {
	rows, err := r.db.q(storeTx).Query(ctx, `
		SELECT id, envelope, reason, queued_at, retry_at
		FROM fail_closed_queue WHERE retry_at <= $1 ORDER BY retry_at ASC LIMIT $2`, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("list fail-closed due: %w", err)
	}
	defer rows.Close()
	var out []*domain.FailClosedQueueEntry
	for rows.Next() {
		var e domain.FailClosedQueueEntry
		if err := rows.Scan(&e.ID, &e.Envelope, &e.Reason, &e.QueuedAt, &e.RetryAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *FailClosedQueueRepository) Delete(ctx context.Context, storeTx store.Tx, id string) error {
	_, err := r.db.q(storeTx).Exec(ctx, `DELETE FROM fail_closed_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fail-closed entry: %w", err)
	}
	return nil
}

// DeferredSignalRepository implements store.DeferredSignals.
type DeferredSignalRepository struct{ db *DB }

func NewDeferredSignalRepository(db *DB) *DeferredSignalRepository {
	return &DeferredSignalRepository{db: db}
}

func (r *DeferredSignalRepository) Enqueue(ctx context.Context, storeTx store.Tx, s *domain.DeferredSignal) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO deferred_signals (owner, topic, category, envelope)
		VALUES ($1,$2,$3,$4)
		RETURNING id, queued_at`, s.Owner, s.Topic, s.Category, s.Envelope)
	return row.Scan(&s.ID, &s.QueuedAt)
}

func (r *DeferredSignalRepository) ListByOwnerTopic(ctx context.Context, storeTx store.Tx, owner, topic string) ([]*domain.DeferredSignal, error) {
	rows, err := r.db.q(storeTx).Query(ctx, `
		SELECT id, owner, topic, category, envelope, queued_at
		FROM deferred_signals WHERE owner = $1 AND topic = $2 ORDER BY queued_at ASC`, owner, topic)
	if err != nil {
		return nil, fmt.Errorf("list deferred signals: %w", err)
	}
	defer rows.Close()
	var out []*domain.DeferredSignal
	for rows.Next() {
		var s domain.DeferredSignal
		if err := rows.Scan(&s.ID, &s.Owner, &s.Topic, &s.Category, &s.Envelope, &s.QueuedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *DeferredSignalRepository) DeleteBatch(ctx context.Context, storeTx store.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.q(storeTx).Exec(ctx, `DELETE FROM deferred_signals WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("delete deferred signal batch: %w", err)
	}
	return nil
}

// BatchRepository implements store.Batches.
type BatchRepository struct{ db *DB }

func NewBatchRepository(db *DB) *BatchRepository { return &BatchRepository{db: db} }

func (r *BatchRepository) Create(ctx context.Context, storeTx store.Tx, b *domain.Batch) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO batches (owner, topic, category, summary, rank)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`, b.Owner, b.Topic, b.Category, b.Summary, b.Rank)
	return row.Scan(&b.ID, &b.CreatedAt)
}

func (r *BatchRepository) ListUndelivered(ctx context.Context, storeTx store.Tx, owner string) ([]*domain.Batch, error) {
	rows, err := r.db.q(storeTx).Query(ctx, `
		SELECT id, owner, topic, category, summary, rank, created_at, delivered_at
		FROM batches WHERE owner = $1 AND delivered_at IS NULL ORDER BY rank DESC, created_at ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list undelivered batches: %w", err)
	}
	defer rows.Close()
	var out []*domain.Batch
	for rows.Next() {
		var b domain.Batch
		if err := rows.Scan(&b.ID, &b.Owner, &b.Topic, &b.Category, &b.Summary, &b.Rank, &b.CreatedAt, &b.DeliveredAt); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (r *BatchRepository) MarkDelivered(ctx context.Context, storeTx store.Tx, id string, at time.Time) error {
	_, err := r.db.q(storeTx).Exec(ctx, `UPDATE batches SET delivered_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark batch delivered: %w", err)
	}
	return nil
}

// EscalationLogRepository implements store.EscalationLog.
type EscalationLogRepository struct{ db *DB }

func NewEscalationLogRepository(db *DB) *EscalationLogRepository { return &EscalationLogRepository{db: db} }

func (r *EscalationLogRepository) Record(ctx context.Context, storeTx store.Tx, e *domain.EscalationLogEntry) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO escalation_log (owner, signal_type, signal_reference, trigger, level)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, timestamp`, e.Owner, e.SignalType, e.SignalReference, e.Trigger, e.Level)
	return row.Scan(&e.ID, &e.Timestamp)
}

func (r *EscalationLogRepository) ListByOwnerSignalType(ctx context.Context, storeTx store.Tx, owner, signalType string, since time.Time) ([]*domain.EscalationLogEntry, error) {
	rows, err := r.db.q(storeTx).Query(ctx, `
		SELECT id, owner, signal_type, signal_reference, trigger, level, timestamp
		FROM escalation_log WHERE owner = $1 AND signal_type = $2 AND timestamp >= $3
		ORDER BY timestamp ASC`, owner, signalType, since)
	if err != nil {
		return nil, fmt.Errorf("list escalation log: %w", err)
	}
	defer rows.Close()
	var out []*domain.EscalationLogEntry
	for rows.Next() {
		var e domain.EscalationLogEntry
		if err := rows.Scan(&e.ID, &e.Owner, &e.SignalType, &e.SignalReference, &e.Trigger, &e.Level, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ReviewLogRepository implements store.ReviewLog.
type ReviewLogRepository struct{ db *DB }

func NewReviewLogRepository(db *DB) *ReviewLogRepository { return &ReviewLogRepository{db: db} }

func (r *ReviewLogRepository) Record(ctx context.Context, storeTx store.Tx, e *domain.ReviewLogEntry) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO review_log (owner, included)
		VALUES ($1,$2)
		RETURNING id, ran_at`, e.Owner, e.Included)
	return row.Scan(&e.ID, &e.RanAt)
}

func (r *ReviewLogRepository) Latest(ctx context.Context, storeTx store.Tx, owner string) (*domain.ReviewLogEntry, error) {
	row := r.db.q(storeTx).QueryRow(ctx, `
		SELECT id, owner, ran_at, included FROM review_log
		WHERE owner = $1 ORDER BY ran_at DESC LIMIT 1`, owner)
	var e domain.ReviewLogEntry
	err := row.Scan(&e.ID, &e.Owner, &e.RanAt, &e.Included)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
