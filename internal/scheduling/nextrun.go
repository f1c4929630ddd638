package scheduling

import (
	"time"

	"github.com/attentive-assistant/core/internal/apperr"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/robfig/cron/v3"
)

// ValidateDefinition checks the definition's kind-specific required fields
// (spec §4.1 validation rules per kind). timezone may be "" when the
// schedule's own timezone is being reused (UpdateDefinition).
func ValidateDefinition(def domain.ScheduleDefinition, timezone string) error {
	switch def.Kind {
	case domain.KindOneTime:
		if def.RunAt == nil {
			return apperr.New(apperr.KindValidation, "one_time schedule requires run_at")
		}
	case domain.KindInterval:
		if def.IntervalCount == nil || *def.IntervalCount <= 0 {
			return apperr.New(apperr.KindValidation, "interval schedule requires a positive interval_count")
		}
		if def.IntervalUnit == nil {
			return apperr.New(apperr.KindValidation, "interval schedule requires interval_unit")
		}
	case domain.KindCalendarRule:
		if def.RecurrenceExpr == nil || *def.RecurrenceExpr == "" {
			return apperr.New(apperr.KindValidation, "calendar_rule schedule requires recurrence_expr")
		}
		if _, err := cron.ParseStandard(*def.RecurrenceExpr); err != nil {
			return apperr.Wrap(apperr.KindValidation, "invalid recurrence_expr", domain.ErrInvalidRecurrence)
		}
	case domain.KindConditional:
		if def.PredicateSubject == nil || *def.PredicateSubject == "" {
			return apperr.New(apperr.KindValidation, "conditional schedule requires predicate_subject")
		}
		if def.PredicateOperator == nil {
			return apperr.New(apperr.KindValidation, "conditional schedule requires predicate_operator")
		}
		if def.EvaluationCadenceSec == nil || *def.EvaluationCadenceSec <= 0 {
			return apperr.New(apperr.KindValidation, "conditional schedule requires a positive evaluation_cadence_sec")
		}
	default:
		return apperr.Wrap(apperr.KindValidation, "unknown schedule kind", domain.ErrInvalidSchedule)
	}
	return nil
}

// ComputeNextRun dispatches on kind to determine the schedule's initial or
// next next_run_at, grounded on the Dispatcher.computeNext
// (cron.ParseStandard + sched.Next), generalized to the other three kinds.
func ComputeNextRun(def domain.ScheduleDefinition, timezone string, from time.Time) (time.Time, error) {
	switch def.Kind {
	case domain.KindOneTime:
		return *def.RunAt, nil
	case domain.KindInterval:
		anchor := from
		if def.IntervalAnchor != nil {
			anchor = *def.IntervalAnchor
		}
		step := intervalDuration(*def.IntervalCount, *def.IntervalUnit)
		next := anchor
		for !next.After(from) {
			next = next.Add(step)
		}
		return next, nil
	case domain.KindCalendarRule:
		sched, err := cron.ParseStandard(*def.RecurrenceExpr)
		if err != nil {
			return time.Time{}, apperr.Wrap(apperr.KindValidation, "invalid recurrence_expr", domain.ErrInvalidRecurrence)
		}
		loc := time.UTC
		if def.Timezone != nil && *def.Timezone != "" {
			if l, err := time.LoadLocation(*def.Timezone); err == nil {
				loc = l
			}
		}
		return sched.Next(from.In(loc)), nil
	case domain.KindConditional:
		// conditional schedules are driven by evaluation_cadence_sec, not a
		// fire time; next_run_at doubles as "next evaluation due at".
		cadence := time.Duration(*def.EvaluationCadenceSec) * time.Second
		return from.Add(cadence), nil
	default:
		return time.Time{}, apperr.Wrap(apperr.KindValidation, "unknown schedule kind", domain.ErrInvalidSchedule)
	}
}

func intervalDuration(count int, unit domain.IntervalUnit) time.Duration {
	n := time.Duration(count)
	switch unit {
	case domain.UnitMinute:
		return n * time.Minute
	case domain.UnitHour:
		return n * time.Hour
	case domain.UnitDay:
		return n * 24 * time.Hour
	case domain.UnitWeek:
		return n * 7 * 24 * time.Hour
	default:
		return n * time.Hour
	}
}
