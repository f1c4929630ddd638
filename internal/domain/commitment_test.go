package domain_test

import (
	"testing"

	"github.com/attentive-assistant/core/internal/domain"
)

func TestCanTransitionCommitment_LegalMoves(t *testing.T) {
	cases := []struct {
		from, to domain.CommitmentState
	}{
		{domain.CommitmentOpen, domain.CommitmentCompleted},
		{domain.CommitmentOpen, domain.CommitmentMissed},
		{domain.CommitmentOpen, domain.CommitmentCanceled},
		{domain.CommitmentMissed, domain.CommitmentOpen},
	}
	for _, c := range cases {
		if !domain.CanTransitionCommitment(c.from, c.to) {
			t.Errorf("%s -> %s should be legal", c.from, c.to)
		}
	}
}

func TestCanTransitionCommitment_TerminalStatesAreSinks(t *testing.T) {
	for _, terminal := range []domain.CommitmentState{domain.CommitmentCompleted, domain.CommitmentCanceled} {
		for _, to := range []domain.CommitmentState{domain.CommitmentOpen, domain.CommitmentMissed, domain.CommitmentCompleted, domain.CommitmentCanceled} {
			if domain.CanTransitionCommitment(terminal, to) {
				t.Errorf("%s -> %s should be illegal, terminal state is a sink", terminal, to)
			}
		}
	}
}

func TestCanTransitionCommitment_MissedOnlyReopensToOpen(t *testing.T) {
	if !domain.CanTransitionCommitment(domain.CommitmentMissed, domain.CommitmentOpen) {
		t.Error("MISSED -> OPEN should be legal")
	}
	for _, to := range []domain.CommitmentState{domain.CommitmentCompleted, domain.CommitmentCanceled, domain.CommitmentMissed} {
		if domain.CanTransitionCommitment(domain.CommitmentMissed, to) {
			t.Errorf("MISSED -> %s should be illegal", to)
		}
	}
}

func TestCanTransitionCommitment_UnknownFromStateRejected(t *testing.T) {
	if domain.CanTransitionCommitment(domain.CommitmentState("bogus"), domain.CommitmentOpen) {
		t.Error("unknown from-state should never be transitionable")
	}
}
