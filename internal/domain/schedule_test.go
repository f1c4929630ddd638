package domain_test

import (
	"testing"

	"github.com/attentive-assistant/core/internal/domain"
)

func TestCanTransitionSchedule_LegalMoves(t *testing.T) {
	cases := []struct {
		from, to domain.ScheduleState
	}{
		{domain.ScheduleActive, domain.SchedulePaused},
		{domain.ScheduleActive, domain.ScheduleCanceled},
		{domain.SchedulePaused, domain.ScheduleActive},
		{domain.SchedulePaused, domain.ScheduleCanceled},
	}
	for _, c := range cases {
		if !domain.CanTransitionSchedule(c.from, c.to, false) {
			t.Errorf("%s -> %s should be legal", c.from, c.to)
		}
	}
}

func TestCanTransitionSchedule_TerminalStatesAreSinks(t *testing.T) {
	for _, terminal := range []domain.ScheduleState{domain.ScheduleCompleted, domain.ScheduleCanceled} {
		for _, to := range []domain.ScheduleState{domain.ScheduleActive, domain.SchedulePaused, domain.ScheduleCompleted, domain.ScheduleCanceled} {
			if terminal == to {
				continue
			}
			if domain.CanTransitionSchedule(terminal, to, false) {
				t.Errorf("%s -> %s should be illegal, terminal state is a sink", terminal, to)
			}
		}
	}
}

func TestCanTransitionSchedule_NoopGatedByAllowNoop(t *testing.T) {
	if domain.CanTransitionSchedule(domain.ScheduleActive, domain.ScheduleActive, false) {
		t.Error("same-state transition should be rejected when allowNoop is false")
	}
	if !domain.CanTransitionSchedule(domain.ScheduleActive, domain.ScheduleActive, true) {
		t.Error("same-state transition should be accepted when allowNoop is true")
	}
}

func TestCanTransitionSchedule_UnknownFromStateRejected(t *testing.T) {
	if domain.CanTransitionSchedule(domain.ScheduleState("bogus"), domain.ScheduleActive, false) {
		t.Error("unknown from-state should never be transitionable")
	}
}
