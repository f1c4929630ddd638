package domain

import (
	"errors"
	"time"
)

var (
	ErrScheduleNotFound     = errors.New("schedule not found")
	ErrInvalidRecurrence    = errors.New("recurrence expression invalid or unsupported")
	ErrInvalidSchedule      = errors.New("schedule definition invalid")
	ErrScheduleNotActive    = errors.New("schedule is not active")
	ErrScheduleNotPaused    = errors.New("schedule is not paused")
	ErrIllegalTransition    = errors.New("illegal schedule state transition")
	ErrImmutableTaskIntent  = errors.New("task_intent_id is immutable")
)

// ScheduleKind discriminates the four schedule variants (spec §3). Modeled
// as a tagged variant rather than inheritance: one struct, a discriminator,
// and kind-specific optional fields.
type ScheduleKind string

const (
	KindOneTime       ScheduleKind = "one_time"
	KindInterval      ScheduleKind = "interval"
	KindCalendarRule  ScheduleKind = "calendar_rule"
	KindConditional   ScheduleKind = "conditional"
)

// ScheduleState is the lifecycle state of a Schedule.
type ScheduleState string

const (
	ScheduleActive    ScheduleState = "active"
	SchedulePaused    ScheduleState = "paused"
	ScheduleCompleted ScheduleState = "completed"
	ScheduleCanceled  ScheduleState = "canceled"
)

// IntervalUnit enumerates the supported interval schedule units.
type IntervalUnit string

const (
	UnitMinute IntervalUnit = "minute"
	UnitHour   IntervalUnit = "hour"
	UnitDay    IntervalUnit = "day"
	UnitWeek   IntervalUnit = "week"
)

// PredicateOperator enumerates supported conditional-schedule comparisons.
type PredicateOperator string

const (
	OpEQ      PredicateOperator = "eq"
	OpNEQ     PredicateOperator = "neq"
	OpGT      PredicateOperator = "gt"
	OpGTE     PredicateOperator = "gte"
	OpLT      PredicateOperator = "lt"
	OpLTE     PredicateOperator = "lte"
	OpExists  PredicateOperator = "exists"
	OpMatches PredicateOperator = "matches"
)

// PredicateValueType declares the type of the predicate's literal/observed
// value so the evaluator knows how to coerce and compare.
type PredicateValueType string

const (
	ValueTypeString  PredicateValueType = "string"
	ValueTypeNumber  PredicateValueType = "number"
	ValueTypeBool    PredicateValueType = "bool"
)

// ScheduleDefinition carries every kind-specific field as optional; the
// scheduler service dispatches validation and interpretation on Kind.
type ScheduleDefinition struct {
	Kind ScheduleKind

	// one-time
	RunAt *time.Time

	// interval
	IntervalCount *int
	IntervalUnit  *IntervalUnit
	IntervalAnchor *time.Time

	// calendar-rule
	RecurrenceExpr *string
	CalendarAnchor *time.Time
	Timezone       *string

	// conditional
	PredicateSubject    *string
	PredicateOperator   *PredicateOperator
	PredicateValueType  *PredicateValueType
	PredicateLiteral    *string
	EvaluationCadenceSec *int
}

// Schedule is a polymorphic recurrence definition tied to exactly one task
// intent (spec §3 invariant).
type Schedule struct {
	ID           string
	TaskIntentID string
	Timezone     string
	Definition   ScheduleDefinition
	State        ScheduleState

	NextRunAt time.Time
	LastRunAt *time.Time
	LastRunStatus *string

	ConsecutiveFailureCount int
	LastExecutionID         *string

	LastEvaluatedAt    *time.Time
	LastEvaluatedStatus *string
	LastEvaluatedErrorCode *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// scheduleTransitions enumerates allowed schedule state transitions (spec
// §4.1 state-transition matrix). completed is terminal; same-state
// transitions are rejected unless the caller explicitly permits a noop.
var scheduleTransitions = map[ScheduleState]map[ScheduleState]bool{
	ScheduleActive: {
		SchedulePaused:   true,
		ScheduleCanceled: true,
	},
	SchedulePaused: {
		ScheduleActive:   true,
		ScheduleCanceled: true,
	},
	ScheduleCompleted: {},
	ScheduleCanceled:  {},
}

// CanTransitionSchedule reports whether from -> to is a legal schedule
// state transition. allowNoop permits from == to as a no-op acknowledgement
// instead of an error.
func CanTransitionSchedule(from, to ScheduleState, allowNoop bool) bool {
	if from == to {
		return allowNoop
	}
	allowed, ok := scheduleTransitions[from]
	if !ok {
		return false
	}
	return allowed[to]
}
