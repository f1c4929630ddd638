package commitment_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/attentive-assistant/core/internal/commitment"
	"github.com/attentive-assistant/core/internal/domain"
)

func TestScanReviewDuplicates_FewerThanTwoReturnsNil(t *testing.T) {
	pairs, err := commitment.ScanReviewDuplicates(context.Background(), []*domain.Commitment{{ID: "only-one"}}, 0.8, 40, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pairs != nil {
		t.Errorf("got %v, want nil", pairs)
	}
}

func TestScanReviewDuplicates_FiltersByThreshold(t *testing.T) {
	open := []*domain.Commitment{
		{ID: "a", Description: "buy milk"},
		{ID: "b", Description: "buy milk and eggs"},
		{ID: "c", Description: "file taxes"},
	}
	similarity := func(ctx context.Context, primary, candidate string) (float64, string, error) {
		if strings.Contains(primary, "milk") && strings.Contains(candidate, "milk") {
			return 0.9, "both about buying milk", nil
		}
		return 0.1, "", nil
	}
	pairs, err := commitment.ScanReviewDuplicates(context.Background(), open, 0.8, 40, similarity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if pairs[0].Primary.ID != "a" || pairs[0].Secondary.ID != "b" {
		t.Errorf("got pair %s/%s, want a/b", pairs[0].Primary.ID, pairs[0].Secondary.ID)
	}
}

func TestScanReviewDuplicates_AppliesDefaults(t *testing.T) {
	open := []*domain.Commitment{
		{ID: "a", Description: "x"},
		{ID: "b", Description: "y"},
	}
	var gotThreshold float64
	similarity := func(ctx context.Context, primary, candidate string) (float64, string, error) {
		return commitment.DefaultDedupeConfidenceThreshold, "", nil
	}
	pairs, err := commitment.ScanReviewDuplicates(context.Background(), open, 0, 0, similarity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	gotThreshold = pairs[0].Threshold
	if gotThreshold != commitment.DefaultDedupeConfidenceThreshold {
		t.Errorf("threshold = %v, want default %v", gotThreshold, commitment.DefaultDedupeConfidenceThreshold)
	}
}

func TestScanReviewDuplicates_PropagatesSimilarityError(t *testing.T) {
	open := []*domain.Commitment{{ID: "a"}, {ID: "b"}}
	boom := errors.New("completion unavailable")
	similarity := func(ctx context.Context, primary, candidate string) (float64, string, error) {
		return 0, "", boom
	}
	_, err := commitment.ScanReviewDuplicates(context.Background(), open, 0.8, 40, similarity)
	if !errors.Is(err, boom) {
		t.Fatalf("got error %v, want wrapping %v", err, boom)
	}
}

func TestScanReviewDuplicates_CapsSummaryWords(t *testing.T) {
	open := []*domain.Commitment{{ID: "a"}, {ID: "b"}}
	longSummary := strings.Repeat("word ", 50)
	similarity := func(ctx context.Context, primary, candidate string) (float64, string, error) {
		return 1, longSummary, nil
	}
	pairs, err := commitment.ScanReviewDuplicates(context.Background(), open, 0.8, 5, similarity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	gotWords := strings.Fields(pairs[0].Summary)
	if len(gotWords) != 5 {
		t.Errorf("summary has %d words, want 5", len(gotWords))
	}
}
