package commitment

import (
	"context"
	"fmt"
	"strings"

	"github.com/attentive-assistant/core/internal/domain"
)

// DefaultDedupeConfidenceThreshold and DefaultDedupeSummaryWordLimit mirror
// original_source's resolve_dedupe_confidence_threshold/
// resolve_dedupe_summary_length defaults.
const (
	DefaultDedupeConfidenceThreshold = 0.8
	DefaultDedupeSummaryWordLimit    = 40
)

// LLMSimilarity compares a primary commitment's description against a
// candidate's and reports how confident it is they describe the same
// underlying promise. The completion call itself is an external
// collaborator (spec.md §1): callers inject a concrete implementation.
type LLMSimilarity func(ctx context.Context, primary, candidate string) (confidence float64, summary string, err error)

// ReviewDedupePair is a potential duplicate surfaced during review
// preparation, mirrors original_source's ReviewDedupePair.
type ReviewDedupePair struct {
	Primary    *domain.Commitment
	Secondary  *domain.Commitment
	Confidence float64
	Summary    string
	Threshold  float64
}

// ScanReviewDuplicates pairwise-compares every OPEN commitment against
// every other, keeping pairs whose similarity meets threshold, grounded on
// original_source's scan_review_duplicates. Quadratic in the number of
// open commitments, matching the original's own complexity. Review runs
// weekly over a small working set, not the full commitment history.
func ScanReviewDuplicates(ctx context.Context, open []*domain.Commitment, threshold float64, wordLimit int, similarity LLMSimilarity) ([]ReviewDedupePair, error) {
	if len(open) < 2 {
		return nil, nil
	}
	if threshold == 0 {
		threshold = DefaultDedupeConfidenceThreshold
	}
	if wordLimit == 0 {
		wordLimit = DefaultDedupeSummaryWordLimit
	}

	var pairs []ReviewDedupePair
	for i, primary := range open {
		for _, secondary := range open[i+1:] {
			confidence, summary, err := similarity(ctx, primary.Description, secondary.Description)
			if err != nil {
				return nil, fmt.Errorf("compare commitments %s/%s: %w", primary.ID, secondary.ID, err)
			}
			if confidence < threshold {
				continue
			}
			pairs = append(pairs, ReviewDedupePair{
				Primary:    primary,
				Secondary:  secondary,
				Confidence: confidence,
				Summary:    capSummaryWords(summary, wordLimit),
				Threshold:  threshold,
			})
		}
	}
	return pairs, nil
}

// capSummaryWords truncates a summary to at most limit words, grounded on
// original_source's cap_summary_words.
func capSummaryWords(summary string, limit int) string {
	words := strings.Fields(summary)
	if len(words) <= limit {
		return summary
	}
	return strings.Join(words[:limit], " ")
}
