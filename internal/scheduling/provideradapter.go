package scheduling

import (
	"context"

	"github.com/attentive-assistant/core/internal/domain"
)

// SchedulePayload is the provider-agnostic view of a schedule handed to a
// ProviderAdapter: enough to register or update an external timer without
// exposing the row's internal id or audit trail.
type SchedulePayload struct {
	ScheduleID string
	Kind       domain.ScheduleKind
	Timezone   string
	Definition domain.ScheduleDefinition
}

// ProviderAdapter registers, updates, pauses, resumes, and deletes a
// schedule's external timer. Grounded on adapter_interface.py's
// SchedulerAdapter protocol, trimmed to the five timer-lifecycle methods
// the service actually drives; trigger_callback and check_health belong to
// the dispatcher/health packages instead of the schedule service.
//
// Adapter failures roll back the owning transaction (spec §4.1): the
// schedule row and its audit trail only change if the external timer
// agreed to change too.
type ProviderAdapter interface {
	RegisterSchedule(ctx context.Context, payload SchedulePayload) error
	UpdateSchedule(ctx context.Context, payload SchedulePayload) error
	PauseSchedule(ctx context.Context, scheduleID string) error
	ResumeSchedule(ctx context.Context, scheduleID string) error
	DeleteSchedule(ctx context.Context, scheduleID string) error
}

// NoopProviderAdapter is the default ProviderAdapter: this system's own
// dispatcher poll loop is the timer, so there is no external provider to
// register with. It exists so the service always has a non-nil adapter to
// drive, and so a real adapter (e.g. a hosted cron/webhook provider) can be
// substituted later without changing the service's call sites.
type NoopProviderAdapter struct{}

func (NoopProviderAdapter) RegisterSchedule(context.Context, SchedulePayload) error { return nil }
func (NoopProviderAdapter) UpdateSchedule(context.Context, SchedulePayload) error   { return nil }
func (NoopProviderAdapter) PauseSchedule(context.Context, string) error             { return nil }
func (NoopProviderAdapter) ResumeSchedule(context.Context, string) error            { return nil }
func (NoopProviderAdapter) DeleteSchedule(context.Context, string) error            { return nil }
