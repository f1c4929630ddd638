package commitment

import (
	"context"
	"fmt"
	"time"

	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
)

// ProgressService records evidence of forward motion on a commitment and
// atomically bumps last_progress_at, grounded on original_source's
// CommitmentProgressService.record_progress.
type ProgressService struct {
	db          store.Beginner
	commitments store.Commitments
	progress    store.CommitmentProgress
}

func NewProgressService(db store.Beginner, commitments store.Commitments, progress store.CommitmentProgress) *ProgressService {
	return &ProgressService{db: db, commitments: commitments, progress: progress}
}

// RecordInput describes one progress entry.
type RecordInput struct {
	CommitmentID  string
	ProvenanceRef string
	OccurredAt    time.Time
	Summary       string
	Snippet       string
	Metadata      map[string]any
}

func (s *ProgressService) Record(ctx context.Context, in RecordInput) (*domain.CommitmentProgressEntry, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := s.commitments.Get(ctx, tx, in.CommitmentID)
	if err != nil {
		return nil, err
	}

	entry := &domain.CommitmentProgressEntry{
		CommitmentID:  in.CommitmentID,
		ProvenanceRef: in.ProvenanceRef,
		OccurredAt:    in.OccurredAt,
		Summary:       in.Summary,
		Snippet:       in.Snippet,
		Metadata:      in.Metadata,
	}
	if err := s.progress.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("create progress entry: %w", err)
	}

	c.LastProgressAt = &in.OccurredAt
	if err := s.commitments.Update(ctx, tx, c); err != nil {
		return nil, fmt.Errorf("update last_progress_at: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return entry, nil
}
