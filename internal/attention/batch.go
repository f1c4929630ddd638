package attention

import (
	"context"
	"fmt"
	"time"

	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
)

// MaterializeBatch persists one Batch digest for the deferred signals queued
// for (owner, topic) and clears the deferred queue, grounded on
// original_source's summarize_batch/_build_summary/_store_ranked_items. The
// batch's Rank is the number of queued signals; the signals themselves are
// not ranked or reordered.
func MaterializeBatch(ctx context.Context, db store.Beginner, deferred store.DeferredSignals, batches store.Batches, ids clockid.IDGenerator, clock clockid.Clock, owner, topic, category string) (*domain.Batch, error) {
	signals, err := deferred.ListByOwnerTopic(ctx, nil, owner, topic)
	if err != nil {
		return nil, fmt.Errorf("list deferred signals: %w", err)
	}
	if len(signals) == 0 {
		return nil, nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &domain.Batch{
		ID:        ids.NewID(),
		Owner:     owner,
		Topic:     topic,
		Category:  category,
		Summary:   buildSummary(topic, category, len(signals)),
		Rank:      len(signals),
		CreatedAt: clock.Now(),
	}
	if err := batches.Create(ctx, tx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	ids2 := make([]string, len(signals))
	for i, s := range signals {
		ids2[i] = s.ID
	}
	if err := deferred.DeleteBatch(ctx, tx, ids2); err != nil {
		return nil, fmt.Errorf("clear deferred signals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit batch tx: %w", err)
	}
	return batch, nil
}

func buildSummary(topic, category string, count int) string {
	label := ""
	if topic != "" {
		label = fmt.Sprintf(" (%s/%s)", topic, category)
	}
	return fmt.Sprintf("Batch%s: %d items.", label, count)
}

// DeliverBatch marks a materialized digest delivered once its transport
// send succeeds.
func DeliverBatch(ctx context.Context, batches store.Batches, batchID string, at time.Time) error {
	if err := batches.MarkDelivered(ctx, nil, batchID, at); err != nil {
		return fmt.Errorf("mark batch delivered: %w", err)
	}
	return nil
}
