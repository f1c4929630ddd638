package commitment_test

import (
	"context"
	"testing"
	"time"

	"github.com/attentive-assistant/core/internal/clockid"
	"github.com/attentive-assistant/core/internal/commitment"
	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
)

type fakeTx struct{}

func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeBeginner struct{}

func (fakeBeginner) Begin(ctx context.Context) (store.Tx, error) { return fakeTx{}, nil }

type fakeTransitionProposals struct{}

func (fakeTransitionProposals) Create(ctx context.Context, tx store.Tx, p *domain.CommitmentTransitionProposal) error {
	return nil
}
func (fakeTransitionProposals) Get(ctx context.Context, tx store.Tx, id string) (*domain.CommitmentTransitionProposal, error) {
	panic("not implemented")
}
func (fakeTransitionProposals) Decide(ctx context.Context, tx store.Tx, id string, status domain.ProposalStatus, decidedBy, reason string, decidedAt time.Time) error {
	panic("not implemented")
}
func (fakeTransitionProposals) ListPending(ctx context.Context, tx store.Tx) ([]*domain.CommitmentTransitionProposal, error) {
	panic("not implemented")
}

func TestService_UpdateDetails_RecomputesUrgencyOnImportanceChange(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &domain.Commitment{ID: "c1", Importance: 1, Effort: 1, Urgency: commitment.ComputeUrgency(nil, 1, 1, now)}
	var saved *domain.Commitment
	commitments := &fakeCommitments{
		get: func(ctx context.Context, tx store.Tx, id string) (*domain.Commitment, error) { return c, nil },
		update: func(ctx context.Context, tx store.Tx, got *domain.Commitment) error {
			saved = got
			return nil
		},
	}
	svc := commitment.NewService(fakeBeginner{}, commitments, &fakeTransitionProposals{}, clockid.Frozen{At: now}, &clockid.StaticGenerator{})

	importance := 3
	got, err := svc.UpdateDetails(context.Background(), commitment.UpdateDetailsInput{CommitmentID: "c1", Importance: &importance})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := commitment.ComputeUrgency(nil, 3, 1, now)
	if got.Urgency != want {
		t.Errorf("Urgency = %d, want %d", got.Urgency, want)
	}
	if saved != got || saved.Importance != 3 {
		t.Errorf("saved = %+v, want importance 3 persisted", saved)
	}
}

func TestService_UpdateDetails_RecomputesUrgencyOnDueByChange(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &domain.Commitment{ID: "c1", Importance: 2, Effort: 2}
	commitments := &fakeCommitments{
		get:    func(ctx context.Context, tx store.Tx, id string) (*domain.Commitment, error) { return c, nil },
		update: func(ctx context.Context, tx store.Tx, got *domain.Commitment) error { return nil },
	}
	svc := commitment.NewService(fakeBeginner{}, commitments, &fakeTransitionProposals{}, clockid.Frozen{At: now}, &clockid.StaticGenerator{})

	due := now.Add(-time.Hour)
	got, err := svc.UpdateDetails(context.Background(), commitment.UpdateDetailsInput{CommitmentID: "c1", DueBy: &due})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DueBy == nil || !got.DueBy.Equal(due) {
		t.Errorf("DueBy = %v, want %v", got.DueBy, due)
	}
	want := commitment.ComputeUrgency(&due, 2, 2, now)
	if got.Urgency != want {
		t.Errorf("Urgency = %d, want %d (overdue maxes time pressure)", got.Urgency, want)
	}
}

func TestService_UpdateDetails_ClearDueByDropsTimePressure(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	due := now.Add(time.Hour)
	c := &domain.Commitment{ID: "c1", Importance: 2, Effort: 2, DueBy: &due, Urgency: commitment.ComputeUrgency(&due, 2, 2, now)}
	commitments := &fakeCommitments{
		get:    func(ctx context.Context, tx store.Tx, id string) (*domain.Commitment, error) { return c, nil },
		update: func(ctx context.Context, tx store.Tx, got *domain.Commitment) error { return nil },
	}
	svc := commitment.NewService(fakeBeginner{}, commitments, &fakeTransitionProposals{}, clockid.Frozen{At: now}, &clockid.StaticGenerator{})

	got, err := svc.UpdateDetails(context.Background(), commitment.UpdateDetailsInput{CommitmentID: "c1", ClearDueBy: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DueBy != nil {
		t.Errorf("DueBy = %v, want nil after clearing", got.DueBy)
	}
	want := commitment.ComputeUrgency(nil, 2, 2, now)
	if got.Urgency != want {
		t.Errorf("Urgency = %d, want %d", got.Urgency, want)
	}
}
