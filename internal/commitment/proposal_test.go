package commitment_test

import (
	"testing"

	"github.com/attentive-assistant/core/internal/commitment"
	"github.com/attentive-assistant/core/internal/domain"
)

func TestBuildProposalRef_Deterministic(t *testing.T) {
	components := []string{"owner-1", "buy groceries", "2026-01-01"}
	ref1 := commitment.BuildProposalRef("commitment", domain.CreationProposalDedupe, components)
	ref2 := commitment.BuildProposalRef("commitment", domain.CreationProposalDedupe, components)
	if ref1 != ref2 {
		t.Fatalf("BuildProposalRef not deterministic: %q != %q", ref1, ref2)
	}
}

func TestBuildProposalRef_FormatAndUniqueness(t *testing.T) {
	ref := commitment.BuildProposalRef("commitment", domain.CreationProposalApproval, []string{"a", "b"})
	const wantPrefix = "commitment:approval:"
	if len(ref) != len(wantPrefix)+16 {
		t.Fatalf("ref %q has unexpected length", ref)
	}
	if ref[:len(wantPrefix)] != wantPrefix {
		t.Errorf("ref = %q, want prefix %q", ref, wantPrefix)
	}

	other := commitment.BuildProposalRef("commitment", domain.CreationProposalApproval, []string{"a", "c"})
	if ref == other {
		t.Error("different components produced the same ref")
	}
}

func TestBuildProposalRef_ComponentOrderMatters(t *testing.T) {
	ref1 := commitment.BuildProposalRef("commitment", domain.CreationProposalDedupe, []string{"a", "b"})
	ref2 := commitment.BuildProposalRef("commitment", domain.CreationProposalDedupe, []string{"b", "a"})
	if ref1 == ref2 {
		t.Error("component order should affect the fingerprint")
	}
}
