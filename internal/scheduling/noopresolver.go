package scheduling

import "context"

// NoopResolver never resolves a predicate subject. Conditional schedules
// stay pending until a real subject source (e.g. an ingested signal index)
// is wired in; this keeps the predicate evaluator's poll loop safe to run
// with no such source configured yet.
type NoopResolver struct{}

func (NoopResolver) Resolve(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}
