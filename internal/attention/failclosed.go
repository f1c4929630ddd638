package attention

import (
	"context"
	"fmt"
	"time"

	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/metrics"
	"github.com/attentive-assistant/core/internal/store"
)

// DefaultRetryDelay mirrors original_source's fail_closed.py
// DEFAULT_RETRY_DELAY.
const DefaultRetryDelay = 15 * time.Minute

// Enqueue persists env into the fail-closed queue for later reprocessing,
// grounded on FailClosedRouter._queue_signal.
func Enqueue(ctx context.Context, queue store.FailClosedQueue, env domain.RoutingEnvelope, reason string, now time.Time) error {
	entry := &domain.FailClosedQueueEntry{
		Envelope: env,
		Reason:   reason,
		RetryAt:  now.Add(DefaultRetryDelay),
	}
	if err := queue.Enqueue(ctx, nil, entry); err != nil {
		return fmt.Errorf("enqueue fail-closed entry: %w", err)
	}
	metrics.FailClosedQueueDepth.Inc()
	return nil
}

// ReprocessFunc is called for each due fail-closed entry; callers supply the
// router's own routing call so the reprocessing sweep doesn't need to know
// about the pipeline's internals.
type ReprocessFunc func(ctx context.Context, env domain.RoutingEnvelope) error

// ReprocessQueue drains entries whose retry_at <= now, grounded on
// FailClosedRouter.reprocess_queue.
func ReprocessQueue(ctx context.Context, queue store.FailClosedQueue, now time.Time, limit int, process ReprocessFunc) (int, error) {
	due, err := queue.ListDue(ctx, nil, now, limit)
	if err != nil {
		return 0, fmt.Errorf("list fail-closed due: %w", err)
	}
	processed := 0
	for _, entry := range due {
		if err := process(ctx, entry.Envelope); err != nil {
			continue
		}
		if err := queue.Delete(ctx, nil, entry.ID); err != nil {
			return processed, fmt.Errorf("delete reprocessed fail-closed entry: %w", err)
		}
		metrics.FailClosedQueueDepth.Dec()
		processed++
	}
	return processed, nil
}
