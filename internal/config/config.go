// Package config loads process configuration from the environment,
// grounded on the config.Config: env.Parse then validator.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds every configured knob named in spec.md §6. Fields are
// grouped by the subsystem that consumes them.
type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"PORT" envDefault:"8080" validate:"required"`

	DatabaseURL         string `env:"DATABASE_URL,required" validate:"required"`
	WorkerCount         int    `env:"WORKER_COUNT" envDefault:"5" validate:"min=1,max=100"`
	PollIntervalSec     int    `env:"POLL_INTERVAL_SEC" envDefault:"1" validate:"min=1,max=60"`
	DispatchIntervalSec int    `env:"DISPATCH_INTERVAL_SEC" envDefault:"5" validate:"min=1,max=60"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`

	// Timezone is loaded from DEFAULT_TIMEZONE (spec §6), but nothing reads
	// it: ValidateDefinition does not require a zone for calendar-rule
	// schedules, and ComputeNextRun uses UTC when a schedule has none.
	Timezone string `env:"DEFAULT_TIMEZONE" envDefault:"UTC" validate:"required"`

	DefaultMaxAttempts        int    `env:"DEFAULT_MAX_ATTEMPTS" envDefault:"3" validate:"min=1,max=20"`
	DefaultBackoffStrategy    string `env:"DEFAULT_BACKOFF_STRATEGY" envDefault:"exponential" validate:"required,oneof=none fixed exponential"`
	DefaultBackoffBaseSeconds int    `env:"DEFAULT_BACKOFF_BASE_SECONDS" envDefault:"30" validate:"min=0"`

	// AutonomousTransitionConfidenceThreshold gates system-initiated
	// commitment transitions other than ->MISSED (spec §4.8).
	AutonomousTransitionConfidenceThreshold float64 `env:"AUTONOMOUS_TRANSITION_CONFIDENCE_THRESHOLD" envDefault:"0.75" validate:"min=0,max=1"`
	// AutonomousCreationConfidenceThreshold gates autonomous commitment
	// creation below which a creation proposal is routed instead.
	AutonomousCreationConfidenceThreshold float64 `env:"AUTONOMOUS_CREATION_CONFIDENCE_THRESHOLD" envDefault:"0.8" validate:"min=0,max=1"`

	DedupeConfidenceThreshold float64 `env:"DEDUPE_CONFIDENCE_THRESHOLD" envDefault:"0.8" validate:"min=0,max=1"`
	DedupeSummaryWordLimit    int     `env:"DEDUPE_SUMMARY_WORD_LIMIT" envDefault:"40" validate:"min=1"`

	RateLimitWindowSeconds int `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"3600" validate:"min=1"`
	RateLimitMaxPerWindow  int `env:"RATE_LIMIT_MAX_PER_WINDOW" envDefault:"5" validate:"min=1"`

	EscalationIgnoreThreshold      int `env:"ESCALATION_IGNORE_THRESHOLD" envDefault:"3" validate:"min=1"`
	EscalationDeadlineWindowMinutes int `env:"ESCALATION_DEADLINE_WINDOW_MINUTES" envDefault:"60" validate:"min=1"`

	// FailClosedRetryDelayMinutes sets how often cmd/core runs the
	// fail-closed reprocessing sweep. The retry_at stamped on queued entries
	// is always now + attention.DefaultRetryDelay (15 minutes), whatever
	// this value is.
	FailClosedRetryDelayMinutes int `env:"FAIL_CLOSED_RETRY_DELAY_MINUTES" envDefault:"15" validate:"min=1"`

	// ReviewDayOfWeek follows time.Weekday numbering (0=Sunday).
	ReviewDayOfWeek int    `env:"REVIEW_DAY_OF_WEEK" envDefault:"0" validate:"min=0,max=6"`
	ReviewTimeOfDay string `env:"REVIEW_TIME_OF_DAY" envDefault:"09:00" validate:"required"`
	BatchReminderTime string `env:"BATCH_REMINDER_TIME" envDefault:"18:00" validate:"required"`

	// OwnerAllowlist is a legacy comma-separated owner list; empty means
	// deny-all unless OwnerAllowlistChannels carries at least one entry
	// (spec §6: the process refuses to start if both are empty).
	OwnerAllowlist         string            `env:"OWNER_ALLOWLIST" validate:"required_without=OwnerAllowlistChannels"`
	OwnerAllowlistChannels map[string]string `env:"OWNER_ALLOWLIST_CHANNELS" envSeparator:";" envKeyValSeparator:"=" validate:"required_without=OwnerAllowlist"`

	// ClerkJWKSURL is loaded from CLERK_JWKS_URL but nothing reads it: the
	// admin HTTP surface verifies only HMAC-signed tokens against JWTSecret,
	// and there is no RS256/JWKS verification.
	ClerkJWKSURL string `env:"CLERK_JWKS_URL"`
	JWTSecret    string `env:"JWT_SECRET"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM" validate:"required_if=Env production,required_if=Env staging"`

	// CallbackSharedSecret authenticates the timer provider's push callbacks
	// (spec §4.2): a shared secret rather than an operator JWT since the
	// caller is a machine, not an interactive operator.
	CallbackSharedSecret string `env:"CALLBACK_SHARED_SECRET,required" validate:"required"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts LOG_LEVEL to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OwnerAllowlisted reports whether owner may receive routed signals: an
// entry in the per-channel map for the given channel, or in the legacy
// comma-separated list, grants access.
func (c *Config) OwnerAllowlisted(owner, channel string) bool {
	if list, ok := c.OwnerAllowlistChannels[channel]; ok {
		if containsOwner(list, owner) {
			return true
		}
	}
	return containsOwner(c.OwnerAllowlist, owner)
}

func containsOwner(csv, owner string) bool {
	for _, o := range strings.Split(csv, ",") {
		if strings.TrimSpace(o) == owner {
			return true
		}
	}
	return false
}
