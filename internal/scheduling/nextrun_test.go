package scheduling_test

import (
	"testing"
	"time"

	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/scheduling"
)

func intp(v int) *int                           { return &v }
func unitp(v domain.IntervalUnit) *domain.IntervalUnit { return &v }
func strq(v string) *string                     { return &v }
func timep(v time.Time) *time.Time              { return &v }

func TestValidateDefinition_OneTimeRequiresRunAt(t *testing.T) {
	err := scheduling.ValidateDefinition(domain.ScheduleDefinition{Kind: domain.KindOneTime}, "UTC")
	if err == nil {
		t.Fatal("want error for missing run_at")
	}
	now := time.Now()
	err = scheduling.ValidateDefinition(domain.ScheduleDefinition{Kind: domain.KindOneTime, RunAt: timep(now)}, "UTC")
	if err != nil {
		t.Errorf("got %v, want nil", err)
	}
}

func TestValidateDefinition_IntervalRequiresCountAndUnit(t *testing.T) {
	cases := []struct {
		name string
		def  domain.ScheduleDefinition
		ok   bool
	}{
		{"missing count", domain.ScheduleDefinition{Kind: domain.KindInterval, IntervalUnit: unitp(domain.UnitHour)}, false},
		{"zero count", domain.ScheduleDefinition{Kind: domain.KindInterval, IntervalCount: intp(0), IntervalUnit: unitp(domain.UnitHour)}, false},
		{"missing unit", domain.ScheduleDefinition{Kind: domain.KindInterval, IntervalCount: intp(1)}, false},
		{"valid", domain.ScheduleDefinition{Kind: domain.KindInterval, IntervalCount: intp(1), IntervalUnit: unitp(domain.UnitHour)}, true},
	}
	for _, c := range cases {
		err := scheduling.ValidateDefinition(c.def, "UTC")
		if c.ok && err != nil {
			t.Errorf("%s: got %v, want nil", c.name, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%s: got nil, want error", c.name)
		}
	}
}

func TestValidateDefinition_CalendarRuleRejectsBadCron(t *testing.T) {
	err := scheduling.ValidateDefinition(domain.ScheduleDefinition{Kind: domain.KindCalendarRule, RecurrenceExpr: strq("not a cron expr")}, "UTC")
	if err == nil {
		t.Fatal("want error for invalid recurrence_expr")
	}
	err = scheduling.ValidateDefinition(domain.ScheduleDefinition{Kind: domain.KindCalendarRule, RecurrenceExpr: strq("0 9 * * *")}, "UTC")
	if err != nil {
		t.Errorf("got %v, want nil", err)
	}
}

func TestValidateDefinition_ConditionalRequiresSubjectOperatorCadence(t *testing.T) {
	op := domain.OpEQ
	cases := []struct {
		name string
		def  domain.ScheduleDefinition
		ok   bool
	}{
		{"missing subject", domain.ScheduleDefinition{Kind: domain.KindConditional, PredicateOperator: &op, EvaluationCadenceSec: intp(60)}, false},
		{"missing operator", domain.ScheduleDefinition{Kind: domain.KindConditional, PredicateSubject: strq("x"), EvaluationCadenceSec: intp(60)}, false},
		{"missing cadence", domain.ScheduleDefinition{Kind: domain.KindConditional, PredicateSubject: strq("x"), PredicateOperator: &op}, false},
		{"zero cadence", domain.ScheduleDefinition{Kind: domain.KindConditional, PredicateSubject: strq("x"), PredicateOperator: &op, EvaluationCadenceSec: intp(0)}, false},
		{"valid", domain.ScheduleDefinition{Kind: domain.KindConditional, PredicateSubject: strq("x"), PredicateOperator: &op, EvaluationCadenceSec: intp(60)}, true},
	}
	for _, c := range cases {
		err := scheduling.ValidateDefinition(c.def, "UTC")
		if c.ok && err != nil {
			t.Errorf("%s: got %v, want nil", c.name, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%s: got nil, want error", c.name)
		}
	}
}

func TestValidateDefinition_UnknownKindRejected(t *testing.T) {
	err := scheduling.ValidateDefinition(domain.ScheduleDefinition{Kind: "bogus"}, "UTC")
	if err == nil {
		t.Fatal("want error for unknown kind")
	}
}

func TestComputeNextRun_OneTimeReturnsRunAt(t *testing.T) {
	runAt := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	got, err := scheduling.ComputeNextRun(domain.ScheduleDefinition{Kind: domain.KindOneTime, RunAt: &runAt}, "UTC", time.Now())
	if err != nil {
		t.Fatalf("got error %v", err)
	}
	if !got.Equal(runAt) {
		t.Errorf("got %v, want %v", got, runAt)
	}
}

func TestComputeNextRun_IntervalStepsForwardFromAnchor(t *testing.T) {
	anchor := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	from := time.Date(2026, 1, 1, 5, 30, 0, 0, time.UTC)
	def := domain.ScheduleDefinition{
		Kind:           domain.KindInterval,
		IntervalCount:  intp(2),
		IntervalUnit:   unitp(domain.UnitHour),
		IntervalAnchor: &anchor,
	}
	got, err := scheduling.ComputeNextRun(def, "UTC", from)
	if err != nil {
		t.Fatalf("got error %v", err)
	}
	want := time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestComputeNextRun_IntervalDefaultsAnchorToFrom(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	def := domain.ScheduleDefinition{Kind: domain.KindInterval, IntervalCount: intp(1), IntervalUnit: unitp(domain.UnitDay)}
	got, err := scheduling.ComputeNextRun(def, "UTC", from)
	if err != nil {
		t.Fatalf("got error %v", err)
	}
	want := from.Add(24 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestComputeNextRun_CalendarRuleUsesNextCronFire(t *testing.T) {
	def := domain.ScheduleDefinition{Kind: domain.KindCalendarRule, RecurrenceExpr: strq("0 9 * * *")}
	from := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	got, err := scheduling.ComputeNextRun(def, "UTC", from)
	if err != nil {
		t.Fatalf("got error %v", err)
	}
	want := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestComputeNextRun_ConditionalAddsCadence(t *testing.T) {
	def := domain.ScheduleDefinition{Kind: domain.KindConditional, EvaluationCadenceSec: intp(300)}
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := scheduling.ComputeNextRun(def, "UTC", from)
	if err != nil {
		t.Fatalf("got error %v", err)
	}
	want := from.Add(300 * time.Second)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestComputeNextRun_UnknownKindErrors(t *testing.T) {
	_, err := scheduling.ComputeNextRun(domain.ScheduleDefinition{Kind: "bogus"}, "UTC", time.Now())
	if err == nil {
		t.Fatal("want error for unknown kind")
	}
}
