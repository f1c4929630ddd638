package commitment

import (
	"math"
	"time"
)

// Urgency weights (Open Question decision, SPEC_FULL.md/DESIGN.md): time
// pressure dominates, importance next, effort least.
const (
	weightTimePressure = 0.5
	weightImportance   = 0.3
	weightEffort       = 0.2

	// horizon is the look-ahead window past which time pressure bottoms
	// out at 0; a commitment due further out than this carries no time
	// pressure contribution.
	horizon = 14 * 24 * time.Hour
)

// ComputeUrgency derives a commitment's 1-100 urgency score from its due
// date and importance/effort ratings (1..3 each), clamped to [1,100].
func ComputeUrgency(dueBy *time.Time, importance, effort int, now time.Time) int {
	timePressure := timePressureFrom(dueBy, now)
	importanceWeight := clamp01(float64(importance) / 3)
	effortWeight := clamp01(float64(effort) / 3)

	score := 100*timePressure*weightTimePressure +
		100*importanceWeight*weightImportance +
		100*effortWeight*weightEffort

	rounded := int(math.Round(score))
	if rounded < 1 {
		rounded = 1
	}
	if rounded > 100 {
		rounded = 100
	}
	return rounded
}

// timePressureFrom maps time-until-due onto [0,1]: overdue or due-now is 1,
// due beyond horizon is 0, linear in between. No due date carries no time
// pressure.
func timePressureFrom(dueBy *time.Time, now time.Time) float64 {
	if dueBy == nil {
		return 0
	}
	remaining := dueBy.Sub(now)
	if remaining <= 0 {
		return 1
	}
	if remaining >= horizon {
		return 0
	}
	return 1 - float64(remaining)/float64(horizon)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
