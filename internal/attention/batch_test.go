package attention_test

import (
	"context"
	"testing"
	"time"

	"github.com/attentive-assistant/core/internal/attention"
	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
)

type fakeTx struct {
	committed, rolledBack bool
}

func (tx *fakeTx) Commit(ctx context.Context) error   { tx.committed = true; return nil }
func (tx *fakeTx) Rollback(ctx context.Context) error { tx.rolledBack = true; return nil }

type fakeBeginner struct {
	tx *fakeTx
}

func (b *fakeBeginner) Begin(ctx context.Context) (store.Tx, error) {
	b.tx = &fakeTx{}
	return b.tx, nil
}

type fakeDeferredSignals struct {
	listByOwnerTopic func(ctx context.Context, tx store.Tx, owner, topic string) ([]*domain.DeferredSignal, error)
	deleteBatch      func(ctx context.Context, tx store.Tx, ids []string) error
}

func (f *fakeDeferredSignals) Enqueue(ctx context.Context, tx store.Tx, s *domain.DeferredSignal) error {
	panic("not implemented")
}

func (f *fakeDeferredSignals) ListByOwnerTopic(ctx context.Context, tx store.Tx, owner, topic string) ([]*domain.DeferredSignal, error) {
	return f.listByOwnerTopic(ctx, tx, owner, topic)
}

func (f *fakeDeferredSignals) DeleteBatch(ctx context.Context, tx store.Tx, ids []string) error {
	return f.deleteBatch(ctx, tx, ids)
}

type fakeBatches struct {
	create       func(ctx context.Context, tx store.Tx, b *domain.Batch) error
	markDelivered func(ctx context.Context, tx store.Tx, id string, at time.Time) error
}

func (f *fakeBatches) Create(ctx context.Context, tx store.Tx, b *domain.Batch) error {
	return f.create(ctx, tx, b)
}

func (f *fakeBatches) ListUndelivered(ctx context.Context, tx store.Tx, owner string) ([]*domain.Batch, error) {
	panic("not implemented")
}

func (f *fakeBatches) MarkDelivered(ctx context.Context, tx store.Tx, id string, at time.Time) error {
	return f.markDelivered(ctx, tx, id, at)
}

func TestMaterializeBatch_NoSignalsReturnsNil(t *testing.T) {
	db := &fakeBeginner{}
	deferred := &fakeDeferredSignals{
		listByOwnerTopic: func(ctx context.Context, tx store.Tx, owner, topic string) ([]*domain.DeferredSignal, error) {
			return nil, nil
		},
	}
	batches := &fakeBatches{}
	got, err := attention.MaterializeBatch(context.Background(), db, deferred, batches, clockid.UUIDGenerator{}, clockid.Frozen{}, "owner-1", "topic", "category")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil when no deferred signals exist", got)
	}
}

func TestMaterializeBatch_CreatesAndClearsDeferred(t *testing.T) {
	db := &fakeBeginner{}
	signals := []*domain.DeferredSignal{
		{ID: "s1", Owner: "owner-1", Topic: "chores"},
		{ID: "s2", Owner: "owner-1", Topic: "chores"},
	}
	var created *domain.Batch
	var clearedIDs []string
	deferred := &fakeDeferredSignals{
		listByOwnerTopic: func(ctx context.Context, tx store.Tx, owner, topic string) ([]*domain.DeferredSignal, error) {
			return signals, nil
		},
		deleteBatch: func(ctx context.Context, tx store.Tx, ids []string) error {
			clearedIDs = ids
			return nil
		},
	}
	batches := &fakeBatches{
		create: func(ctx context.Context, tx store.Tx, b *domain.Batch) error {
			created = b
			return nil
		},
	}
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	got, err := attention.MaterializeBatch(context.Background(), db, deferred, batches,
		&clockid.StaticGenerator{IDs: []string{"batch-1"}}, clockid.Frozen{At: now}, "owner-1", "chores", "digest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "batch-1" || got.Rank != 2 {
		t.Fatalf("got %+v", got)
	}
	if created != got {
		t.Error("returned batch should be the same one passed to Create")
	}
	if len(clearedIDs) != 2 {
		t.Errorf("cleared %v, want 2 deferred signal ids", clearedIDs)
	}
	if !db.tx.committed {
		t.Error("transaction should be committed on success")
	}
}

func TestDeliverBatch_MarksDelivered(t *testing.T) {
	var gotID string
	var gotAt time.Time
	batches := &fakeBatches{
		markDelivered: func(ctx context.Context, tx store.Tx, id string, at time.Time) error {
			gotID, gotAt = id, at
			return nil
		},
	}
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := attention.DeliverBatch(context.Background(), batches, "batch-1", at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "batch-1" || !gotAt.Equal(at) {
		t.Errorf("got id=%q at=%v", gotID, gotAt)
	}
}
