// Package attention implements the single outbound-notification gate: base
// assessment, ordered policy evaluation, preference application, rate
// limiting, escalation, channel selection, and fail-closed queueing (spec
// §4.5). No direct analogue exists for this subsystem; it is built in
// the pack's service/usecase idiom and grounded file-by-file on
// original_source/src/attention/*.py.
package attention

import "github.com/attentive-assistant/core/internal/domain"

// PolicyOutcomeKind is the action a matched policy prescribes.
type PolicyOutcomeKind string

const (
	OutcomeNotify   PolicyOutcomeKind = "NOTIFY"
	OutcomeEscalate PolicyOutcomeKind = "ESCALATE"
	OutcomeDefer    PolicyOutcomeKind = "DEFER"
	OutcomeBatch    PolicyOutcomeKind = "BATCH"
	OutcomeLogOnly  PolicyOutcomeKind = "LOG_ONLY"
)

// PolicyOutcome is what a matched policy prescribes, optionally naming a
// channel.
type PolicyOutcome struct {
	Kind    PolicyOutcomeKind
	Channel string // empty means "let channel selection decide"
}

// Policy is one ordered rule in the attention policy table, grounded on
// original_source's policy_defaults.py AttentionPolicy dataclass,
// generalized from its scope dataclass tree to a single predicate func for
// brevity. The policy set is fixed and small (spec §4.5 default table), so
// a closure-based Matches is more idiomatic Go than a parsed scope schema.
type Policy struct {
	ID          string
	Description string
	Matches     func(PolicyContext) bool
	Outcome     PolicyOutcome
}

// PolicyContext is everything a policy's Matches function may consult.
type PolicyContext struct {
	Envelope     domain.RoutingEnvelope
	Urgency      float64 // normalized [0,1], mirrors envelope.Urgency
	UrgencyLevel string  // low | medium | high
	AlwaysNotify bool
	QuietHours   bool
	DoNotDisturb bool
}

const (
	HighUrgencyThreshold    = 0.85
	HighConfidenceThreshold = 0.85
	HighChannelCost         = 0.7
)

func urgencyLevel(u float64) string {
	switch {
	case u >= HighUrgencyThreshold:
		return "high"
	case u >= 0.4:
		return "medium"
	default:
		return "low"
	}
}

// DefaultPolicies returns the baseline, ordered attention policy table,
// grounded on original_source's default_attention_policies(): first match
// wins, evaluated in this order.
func DefaultPolicies() []Policy {
	return []Policy{
		{
			ID:          "always-notify-override",
			Description: "Always notify when an always-notify preference is set.",
			Matches:     func(c PolicyContext) bool { return c.AlwaysNotify },
			Outcome:     PolicyOutcome{Kind: OutcomeNotify, Channel: "signal"},
		},
		{
			ID:          "approval-requests-signal",
			Description: "Route approval requests via Signal by default.",
			Matches:     func(c PolicyContext) bool { return c.Envelope.SignalType == "approval.request" },
			Outcome:     PolicyOutcome{Kind: OutcomeNotify, Channel: "signal"},
		},
		{
			ID:          "quiet-hours-defer-low-urgency",
			Description: "Defer low or medium urgency during quiet hours.",
			Matches: func(c PolicyContext) bool {
				return c.QuietHours && (c.UrgencyLevel == "low" || c.UrgencyLevel == "medium")
			},
			Outcome: PolicyOutcome{Kind: OutcomeDefer},
		},
		{
			ID:          "do-not-disturb-log-only-non-urgent",
			Description: "Log-only non-urgent signals during do-not-disturb windows.",
			Matches: func(c PolicyContext) bool {
				return c.DoNotDisturb && (c.UrgencyLevel == "low" || c.UrgencyLevel == "medium")
			},
			Outcome: PolicyOutcome{Kind: OutcomeLogOnly},
		},
		{
			ID:          "high-urgency-notify-signal",
			Description: "Notify via Signal for high urgency and high confidence.",
			Matches: func(c PolicyContext) bool {
				conf := 0.0
				if c.Envelope.Notification != nil {
					conf = c.Envelope.Notification.Confidence
				}
				return c.Urgency >= HighUrgencyThreshold && conf >= HighConfidenceThreshold
			},
			Outcome: PolicyOutcome{Kind: OutcomeNotify, Channel: "signal"},
		},
		{
			ID:          "low-urgency-high-cost-batch",
			Description: "Batch low urgency items with high channel cost.",
			Matches: func(c PolicyContext) bool {
				return c.UrgencyLevel == "low" && c.Envelope.ChannelCost >= HighChannelCost
			},
			Outcome: PolicyOutcome{Kind: OutcomeBatch},
		},
		{
			ID:          "long-form-analysis-notify-signal",
			Description: "Notify long-form analysis via Signal.",
			Matches: func(c PolicyContext) bool {
				switch c.Envelope.SignalType {
				case "analysis.ready", "analysis.summary", "analysis.report":
					return true
				default:
					return false
				}
			},
			Outcome: PolicyOutcome{Kind: OutcomeNotify, Channel: "signal"},
		},
	}
}

// Evaluate returns the first matching policy's outcome, or LOG_ONLY with no
// matched policy if none apply.
func Evaluate(policies []Policy, ctx PolicyContext) (PolicyOutcome, string) {
	for _, p := range policies {
		if p.Matches(ctx) {
			return p.Outcome, p.ID
		}
	}
	return PolicyOutcome{Kind: OutcomeLogOnly}, ""
}
