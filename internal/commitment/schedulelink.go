package commitment

import (
	"context"
	"fmt"

	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
)

// LinkService enforces the one-active-link invariant between a commitment
// and its reminder schedule, grounded on original_source's
// CommitmentScheduleLinkRepository (deactivate-then-insert within one
// transaction).
type LinkService struct {
	db    store.Beginner
	links store.CommitmentScheduleLinks
}

func NewLinkService(db store.Beginner, links store.CommitmentScheduleLinks) *LinkService {
	return &LinkService{db: db, links: links}
}

// Link replaces any existing active link for commitmentID with a new one
// pointing at scheduleID.
func (s *LinkService) Link(ctx context.Context, commitmentID, scheduleID string) (*domain.CommitmentScheduleLink, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.links.DeactivateActive(ctx, tx, commitmentID); err != nil {
		return nil, fmt.Errorf("deactivate active link: %w", err)
	}
	link := &domain.CommitmentScheduleLink{CommitmentID: commitmentID, ScheduleID: scheduleID, IsActive: true}
	if err := s.links.Insert(ctx, tx, link); err != nil {
		return nil, fmt.Errorf("insert link: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return link, nil
}

// Unlink deactivates commitmentID's active link without creating a new
// one, e.g. when a commitment resolves and no longer needs reminders.
func (s *LinkService) Unlink(ctx context.Context, commitmentID string) error {
	return s.links.DeactivateActive(ctx, nil, commitmentID)
}

// ResolveBySchedule finds the commitment currently linked to scheduleID,
// used by the miss-detection callback to map a fired schedule back to its
// commitment.
func (s *LinkService) ResolveBySchedule(ctx context.Context, scheduleID string) (*domain.CommitmentScheduleLink, error) {
	return s.links.FindActiveBySchedule(ctx, nil, scheduleID)
}
