package attention

import "time"

// EscalationLevel is an ordered escalation level, grounded on
// original_source's IntEnum EscalationLevel.
type EscalationLevel int

const (
	EscalationNone EscalationLevel = iota
	EscalationLow
	EscalationMedium
	EscalationHigh
)

const (
	DefaultIgnoreThreshold = 3
	DefaultDeadlineWindow  = time.Hour
)

// EscalationInput mirrors original_source's EscalationInput.
type EscalationInput struct {
	Owner            string
	SignalType       string
	SignalReference  string
	CurrentLevel     *EscalationLevel
	IgnoredCount     *int
	IgnoreThreshold  int
	Deadline         *time.Time
	DeadlineWindow   time.Duration
	PreviousSeverity *int
	CurrentSeverity  *int
	Timestamp        time.Time
}

// EscalationDecision mirrors EscalationDecision.
type EscalationDecision struct {
	Escalated bool
	Level     EscalationLevel
	Trigger   string
}

// EvaluateEscalation evaluates the first-match-wins escalation triggers,
// capping at HIGH, grounded on original_source's evaluate_escalation.
func EvaluateEscalation(in EscalationInput) EscalationDecision {
	if in.CurrentLevel == nil {
		return EscalationDecision{Level: EscalationNone}
	}

	trigger := determineTrigger(in)
	if trigger == "" {
		return EscalationDecision{Level: *in.CurrentLevel}
	}

	next := *in.CurrentLevel + 1
	if next > EscalationHigh {
		next = EscalationHigh
	}
	return EscalationDecision{Escalated: true, Level: next, Trigger: trigger}
}

func determineTrigger(in EscalationInput) string {
	threshold := in.IgnoreThreshold
	if threshold == 0 {
		threshold = DefaultIgnoreThreshold
	}
	if in.IgnoredCount != nil && *in.IgnoredCount >= threshold {
		return "ignored_repeatedly"
	}

	window := in.DeadlineWindow
	if window == 0 {
		window = DefaultDeadlineWindow
	}
	if in.Deadline != nil && !in.Timestamp.IsZero() {
		if in.Deadline.Sub(in.Timestamp) <= window {
			return "approaching_deadline"
		}
	}

	if in.PreviousSeverity != nil && in.CurrentSeverity != nil && *in.CurrentSeverity > *in.PreviousSeverity {
		return "increasing_severity"
	}

	return ""
}
