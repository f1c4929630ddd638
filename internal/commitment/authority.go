// Package commitment implements the promise state machine: CRUD with
// computed urgency, authority-gated transitions, schedule linking, miss
// detection, the proposal workflow, progress tracking, and weekly review
// (spec §4.6-§4.9). No direct analogue exists; built in the pack's
// usecase/service idiom and grounded file-by-file on
// original_source/src/commitments/*.py.
package commitment

import "github.com/attentive-assistant/core/internal/domain"

// AuthorityDecision mirrors original_source's TransitionAuthorityDecision.
type AuthorityDecision struct {
	Allow               bool
	EffectiveConfidence float64
	Threshold           float64
	Reason              string
}

// EvaluateAuthority decides whether actor may apply to -> state
// autonomously, grounded verbatim on
// transition_authority.evaluate_transition_authority: a human actor is
// always allowed; system -> MISSED is always allowed; any other
// system-initiated transition requires confidence >= threshold.
func EvaluateAuthority(toState domain.CommitmentState, actor domain.Actor, confidence *float64, threshold float64) AuthorityDecision {
	if actor == domain.ActorHuman {
		return AuthorityDecision{Allow: true, EffectiveConfidence: 1, Threshold: threshold, Reason: "user_initiated"}
	}
	if toState == domain.CommitmentMissed {
		return AuthorityDecision{Allow: true, EffectiveConfidence: 1, Threshold: threshold, Reason: "missed_is_autonomous"}
	}
	if confidence == nil {
		return AuthorityDecision{Allow: false, EffectiveConfidence: 0, Threshold: threshold, Reason: "missing_confidence"}
	}
	return AuthorityDecision{
		Allow:               *confidence >= threshold,
		EffectiveConfidence: *confidence,
		Threshold:           threshold,
		Reason:              "autonomy_confidence_gate",
	}
}
