package commitment_test

import (
	"testing"
	"time"

	"github.com/attentive-assistant/core/internal/commitment"
)

func TestComputeUrgency_NoDueDate(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got := commitment.ComputeUrgency(nil, 3, 3, now)
	want := int(100*0*0.5 + 100*1*0.3 + 100*1*0.2) // time pressure 0, importance/effort maxed
	if got != want {
		t.Errorf("ComputeUrgency = %d, want %d", got, want)
	}
}

func TestComputeUrgency_OverdueMaxesTimePressure(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)
	got := commitment.ComputeUrgency(&due, 1, 1, now)
	want := 67 // round(100*1*0.5 + 100*(1.0/3)*0.3 + 100*(1.0/3)*0.2) = round(66.67)
	if got != want {
		t.Errorf("ComputeUrgency = %d, want %d", got, want)
	}
}

func TestComputeUrgency_DueNowMaxesTimePressure(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	due := now
	got := commitment.ComputeUrgency(&due, 3, 3, now)
	if got != 100 {
		t.Errorf("ComputeUrgency = %d, want 100", got)
	}
}

func TestComputeUrgency_BeyondHorizonHasNoTimePressure(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	due := now.Add(30 * 24 * time.Hour)
	got := commitment.ComputeUrgency(&due, 3, 3, now)
	want := int(100*0*0.5 + 100*1*0.3 + 100*1*0.2)
	if got != want {
		t.Errorf("ComputeUrgency = %d, want %d", got, want)
	}
}

func TestComputeUrgency_LinearBetweenNowAndHorizon(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	due := now.Add(7 * 24 * time.Hour) // half the 14-day horizon
	got := commitment.ComputeUrgency(&due, 0, 0, now)
	want := int(100 * 0.5 * 0.5)
	if got != want {
		t.Errorf("ComputeUrgency = %d, want %d", got, want)
	}
}

func TestComputeUrgency_ClampedToAtLeastOne(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	due := now.Add(30 * 24 * time.Hour)
	got := commitment.ComputeUrgency(&due, 0, 0, now)
	if got != 1 {
		t.Errorf("ComputeUrgency = %d, want 1 (clamped floor)", got)
	}
}

func TestComputeUrgency_ClampedToAtMostHundred(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)
	got := commitment.ComputeUrgency(&due, 3, 3, now)
	if got != 100 {
		t.Errorf("ComputeUrgency = %d, want 100", got)
	}
}
