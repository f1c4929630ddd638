package commitment

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/attentive-assistant/core/internal/store"
)

// LoopClosureIntent is the structured intent parsed from a reply to a
// missed-commitment loop-closure prompt, grounded on original_source's
// parse_loop_closure_response.
type LoopClosureIntent struct {
	Intent   string // complete | cancel | renegotiate | review
	NewDueBy *time.Time
}

var (
	completeKeywords = []string{"complete", "done", "finished"}
	cancelKeywords   = []string{"cancel", "canceled", "cancelled", "won't do", "wont do"}
	reviewKeywords   = []string{"review"}
	datePattern      = regexp.MustCompile(`\b(\d{4})[-/](\d{2})[-/](\d{2})\b`)
)

// ParseLoopClosureResponse maps free text to a structured intent, first
// match wins: complete, cancel, review, then a renegotiation date, else
// nil when nothing recognizable is present.
//
// TODO: consider semantic parsing when keyword matching is ambiguous.
func ParseLoopClosureResponse(text string) *LoopClosureIntent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	switch {
	case containsAny(normalized, completeKeywords):
		return &LoopClosureIntent{Intent: "complete"}
	case containsAny(normalized, cancelKeywords):
		return &LoopClosureIntent{Intent: "cancel"}
	case containsAny(normalized, reviewKeywords):
		return &LoopClosureIntent{Intent: "review"}
	}
	if due, ok := extractDate(normalized); ok {
		return &LoopClosureIntent{Intent: "renegotiate", NewDueBy: &due}
	}
	return nil
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func extractDate(text string) (time.Time, bool) {
	for _, m := range datePattern.FindAllStringSubmatch(text, -1) {
		year, yErr := strconv.Atoi(m[1])
		month, mErr := strconv.Atoi(m[2])
		day, dErr := strconv.Atoi(m[3])
		if yErr != nil || mErr != nil || dErr != nil {
			continue
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

var (
	explicitRefPattern = regexp.MustCompile(`^commitment\.[a-z_]+:([0-9a-fA-F-]+)$`)
	messageRefPattern  = regexp.MustCompile(`\bcommitment\.[a-z_]+:([0-9a-fA-F-]+)\b`)
)

// ResolveReplyTarget resolves the commitment a loop-closure reply refers
// to, grounded on original_source's LoopClosureReplyResolver: an explicit
// signal_reference wins, then references found in the message body, then
// the most recently updated unresolved commitment as a last resort.
func ResolveReplyTarget(ctx context.Context, commitments store.Commitments, message, signalReference string) (string, error) {
	if id, ok := extractRef(explicitRefPattern, signalReference); ok {
		if exists(ctx, commitments, id) {
			return id, nil
		}
	}
	for _, m := range messageRefPattern.FindAllStringSubmatch(message, -1) {
		if exists(ctx, commitments, m[1]) {
			return m[1], nil
		}
	}
	return latestUnresolved(ctx, commitments)
}

func extractRef(pattern *regexp.Regexp, reference string) (string, bool) {
	m := pattern.FindStringSubmatch(strings.TrimSpace(reference))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func exists(ctx context.Context, commitments store.Commitments, id string) bool {
	c, err := commitments.Get(ctx, nil, id)
	return err == nil && c != nil
}

// latestUnresolved falls back to OPEN commitments only, a narrower set
// than the original's "not COMPLETED/CANCELED" filter (which also
// includes MISSED). store.Commitments has no combined-state query, and a
// MISSED commitment reached via this fallback would be ambiguous with the
// reply that just arrived anyway.
func latestUnresolved(ctx context.Context, commitments store.Commitments) (string, error) {
	open, err := commitments.ListOpen(ctx, nil)
	if err != nil {
		return "", err
	}
	if len(open) == 0 {
		return "", nil
	}
	latest := open[0]
	for _, c := range open[1:] {
		if c.UpdatedAt.After(latest.UpdatedAt) {
			latest = c
		}
	}
	return latest.ID, nil
}
