package attention

import (
	"context"
	"fmt"
	"time"

	"github.com/attentive-assistant/core/internal/store"
)

// RateLimitConfig mirrors original_source's RateLimitConfig.
type RateLimitConfig struct {
	Channel        string
	MaxPerWindow   int
	WindowSeconds  int
}

// RateLimitDecision mirrors RateLimitDecision.
type RateLimitDecision struct {
	Allowed  bool
	Decision string // ALLOW | DEFER | BATCH | LOG_ONLY
	Reason   string
}

// EvaluateRateLimit counts NOTIFY*/ESCALATE* history rows for
// (owner, channel) within the trailing window and demotes the decision
// when at or over the limit, grounded on original_source's
// evaluate_rate_limit (testable property 9).
func EvaluateRateLimit(ctx context.Context, history store.NotificationHistory, owner string, channelCost float64, now time.Time, cfg RateLimitConfig) (RateLimitDecision, error) {
	if cfg.MaxPerWindow <= 0 || cfg.WindowSeconds <= 0 {
		return RateLimitDecision{Allowed: false, Decision: "LOG_ONLY", Reason: "invalid_rate_limit_config"}, nil
	}

	windowStart := now.Add(-time.Duration(cfg.WindowSeconds) * time.Second)
	count, err := history.CountSince(ctx, nil, owner, cfg.Channel, windowStart)
	if err != nil {
		return RateLimitDecision{}, fmt.Errorf("count notification history: %w", err)
	}
	if count < cfg.MaxPerWindow {
		return RateLimitDecision{Allowed: true, Decision: "ALLOW", Reason: "within_limit"}, nil
	}

	decision := "BATCH"
	if channelCost >= HighChannelCost {
		decision = "DEFER"
	}
	return RateLimitDecision{Allowed: false, Decision: decision, Reason: "rate_limit_exceeded"}, nil
}
