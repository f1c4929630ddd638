package domain

import "time"

// TimeWindow is a recurring daily window in UTC clock time, e.g. quiet
// hours 22:00-06:00. StartMinute/EndMinute are minutes-since-midnight;
// EndMinute < StartMinute denotes a window that wraps past midnight.
type TimeWindow struct {
	StartMinute int
	EndMinute   int
}

// Contains reports whether minuteOfDay falls inside the window.
func (w TimeWindow) Contains(minuteOfDay int) bool {
	if w.StartMinute <= w.EndMinute {
		return minuteOfDay >= w.StartMinute && minuteOfDay < w.EndMinute
	}
	// wraps past midnight
	return minuteOfDay >= w.StartMinute || minuteOfDay < w.EndMinute
}

// AttentionContext holds per-owner windows that gate notification timing.
type AttentionContext struct {
	Owner                string
	QuietHours           []TimeWindow
	DoNotDisturb         []TimeWindow
	InterruptibleWindows []TimeWindow
}

// AttentionPreferences holds per-owner channel preferences, escalation
// thresholds, and always-notify exceptions.
type AttentionPreferences struct {
	Owner                string
	ChannelPreferences   map[string]string // signal_type -> preferred channel
	EscalationThresholds map[string]int
	AlwaysNotify         map[string]bool // signal_type -> always notify
}

// NotificationHistoryEntry is a per-owner log of routed signals, consumed
// by rate limiting (testable property 9).
type NotificationHistoryEntry struct {
	ID              string
	Owner           string
	SignalReference string
	Channel         string
	Outcome         string // e.g. NOTIFY:signal, ESCALATE:signal, LOG_ONLY
	CreatedAt       time.Time
}

// FailClosedQueueEntry persists an outbound signal when the router/policy
// path is unavailable.
type FailClosedQueueEntry struct {
	ID       string
	Envelope RoutingEnvelope
	Reason   string
	QueuedAt time.Time
	RetryAt  time.Time
}

// DeferredSignal is a signal tagged for batching, held until a batching
// sweep materializes a digest.
type DeferredSignal struct {
	ID        string
	Owner     string
	Topic     string
	Category  string
	Envelope  RoutingEnvelope
	QueuedAt  time.Time
}

// Batch is a materialized digest of deferred signals.
type Batch struct {
	ID          string
	Owner       string
	Topic       string
	Category    string
	Summary     string
	Rank        int
	CreatedAt   time.Time
	DeliveredAt *time.Time
}

// EscalationLogEntry records one escalation step (spec §4.5, "Escalation").
type EscalationLogEntry struct {
	ID              string
	Owner           string
	SignalType      string
	SignalReference string
	Trigger         string
	Level           int
	Timestamp       time.Time
}

// ReviewLogEntry records one weekly review run for loop-closure bookkeeping.
type ReviewLogEntry struct {
	ID       string
	Owner    string
	RanAt    time.Time
	Included []string // commitment ids
}
