package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/attentive-assistant/core/internal/apperr"
)

func TestIs_MatchesKind(t *testing.T) {
	err := apperr.New(apperr.KindNotFound, "commitment not found")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Error("want Is to match KindNotFound")
	}
	if apperr.Is(err, apperr.KindConflict) {
		t.Error("want Is to not match a different kind")
	}
}

func TestIs_FalseForPlainError(t *testing.T) {
	if apperr.Is(errors.New("plain"), apperr.KindNotFound) {
		t.Error("want Is false for a non-apperr error")
	}
}

func TestKindOf_DefaultsToInternal(t *testing.T) {
	if got := apperr.KindOf(errors.New("plain")); got != apperr.KindInternal {
		t.Errorf("KindOf = %v, want KindInternal", got)
	}
}

func TestKindOf_ExtractsWrappedKind(t *testing.T) {
	err := apperr.Wrap(apperr.KindProviderError, "resend send failed", errors.New("503"))
	if got := apperr.KindOf(err); got != apperr.KindProviderError {
		t.Errorf("KindOf = %v, want KindProviderError", got)
	}
}

func TestWrap_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperr.Wrap(apperr.KindInternal, "db unavailable", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the underlying cause")
	}
}

func TestIs_MatchesThroughFmtWrapping(t *testing.T) {
	inner := apperr.New(apperr.KindConflict, "active link exists")
	wrapped := fmt.Errorf("create link: %w", inner)
	if !apperr.Is(wrapped, apperr.KindConflict) {
		t.Error("want Is to see through fmt.Errorf %w wrapping")
	}
}

func TestError_MessageFormat(t *testing.T) {
	err := apperr.New(apperr.KindValidation, "due_by is required")
	want := "validation_error: due_by is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
