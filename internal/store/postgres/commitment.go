package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/attentive-assistant/core/internal/domain"
	"github.com/attentive-assistant/core/internal/store"
	"github.com/jackc/pgx/v5"
)

// CommitmentRepository implements store.Commitments. No direct upstream
// analogue exists (no promise/commitment concept there); built in the
// pack's repository idiom: plain SQL, RETURNING scans, sentinel-error
// mapping on no-rows.
type CommitmentRepository struct{ db *DB }

func NewCommitmentRepository(db *DB) *CommitmentRepository { return &CommitmentRepository{db: db} }

const commitmentSelect = `
	SELECT id, owner, description, importance, effort, due_by, urgency, state,
	       provenance_ref, last_progress_at, ever_missed_at, reviewed_at,
	       created_at, updated_at
	FROM commitments`

func (r *CommitmentRepository) Create(ctx context.Context, storeTx store.Tx, c *domain.Commitment) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO commitments (
			owner, description, importance, effort, due_by, urgency, state, provenance_ref
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, owner, description, importance, effort, due_by, urgency, state,
		          provenance_ref, last_progress_at, ever_missed_at, reviewed_at,
		          created_at, updated_at`,
		c.Owner, c.Description, c.Importance, c.Effort, c.DueBy, c.Urgency, c.State, c.ProvenanceRef)
	scanned, err := scanCommitment(row)
	if err != nil {
		return mapConflict(err, "commitment conflict")
	}
	*c = *scanned
	return nil
}

func (r *CommitmentRepository) Get(ctx context.Context, storeTx store.Tx, id string) (*domain.Commitment, error) {
	row := r.db.q(storeTx).QueryRow(ctx, commitmentSelect+` WHERE id = $1`, id)
	c, err := scanCommitment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCommitmentNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *CommitmentRepository) Update(ctx context.Context, storeTx store.Tx, c *domain.Commitment) error {
	tag, err := r.db.q(storeTx).Exec(ctx, `
		UPDATE commitments SET
			description = $2, importance = $3, effort = $4, due_by = $5,
			urgency = $6, state = $7, last_progress_at = $8,
			ever_missed_at = $9, reviewed_at = $10, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Description, c.Importance, c.Effort, c.DueBy,
		c.Urgency, c.State, c.LastProgressAt, c.EverMissedAt, c.ReviewedAt)
	if err != nil {
		return fmt.Errorf("update commitment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommitmentNotFound
	}
	return nil
}

func (r *CommitmentRepository) ListOpen(ctx context.Context, storeTx store.Tx) ([]*domain.Commitment, error) {
	rows, err := r.db.q(storeTx).Query(ctx, commitmentSelect+` WHERE state = 'OPEN' ORDER BY urgency DESC`)
	if err != nil {
		return nil, fmt.Errorf("list open commitments: %w", err)
	}
	defer rows.Close()
	var out []*domain.Commitment
	for rows.Next() {
		c, err := scanCommitment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CommitmentRepository) RecordTransition(ctx context.Context, storeTx store.Tx, t *domain.CommitmentStateTransition) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO commitment_state_transitions (
			commitment_id, from_state, to_state, actor, reason, context, confidence, provenance
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, transitioned_at`,
		t.CommitmentID, t.FromState, t.ToState, t.Actor, t.Reason, t.Context, t.Confidence, t.Provenance)
	return row.Scan(&t.ID, &t.TransitionedAt)
}

func (r *CommitmentRepository) ListTransitions(ctx context.Context, storeTx store.Tx, commitmentID string) ([]*domain.CommitmentStateTransition, error) {
	rows, err := r.db.q(storeTx).Query(ctx, `
		SELECT id, commitment_id, from_state, to_state, actor, reason, context, confidence, provenance, transitioned_at
		FROM commitment_state_transitions WHERE commitment_id = $1 ORDER BY transitioned_at ASC`, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("list commitment transitions: %w", err)
	}
	defer rows.Close()
	var out []*domain.CommitmentStateTransition
	for rows.Next() {
		var t domain.CommitmentStateTransition
		if err := rows.Scan(&t.ID, &t.CommitmentID, &t.FromState, &t.ToState, &t.Actor, &t.Reason,
			&t.Context, &t.Confidence, &t.Provenance, &t.TransitionedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func scanCommitment(row rowScanner) (*domain.Commitment, error) {
	var c domain.Commitment
	err := row.Scan(&c.ID, &c.Owner, &c.Description, &c.Importance, &c.Effort, &c.DueBy, &c.Urgency, &c.State,
		&c.ProvenanceRef, &c.LastProgressAt, &c.EverMissedAt, &c.ReviewedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CommitmentProgressRepository implements store.CommitmentProgress,
// grounded on original_source's CommitmentProgressService/
// create_progress_record.
type CommitmentProgressRepository struct{ db *DB }

func NewCommitmentProgressRepository(db *DB) *CommitmentProgressRepository {
	return &CommitmentProgressRepository{db: db}
}

func (r *CommitmentProgressRepository) Create(ctx context.Context, storeTx store.Tx, p *domain.CommitmentProgressEntry) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO commitment_progress_entries (
			commitment_id, provenance_ref, occurred_at, summary, snippet, metadata
		) VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		p.CommitmentID, p.ProvenanceRef, p.OccurredAt, p.Summary, p.Snippet, p.Metadata)
	return row.Scan(&p.ID, &p.CreatedAt)
}

func (r *CommitmentProgressRepository) ListByCommitment(ctx context.Context, storeTx store.Tx, commitmentID string) ([]*domain.CommitmentProgressEntry, error) {
	rows, err := r.db.q(storeTx).Query(ctx, `
		SELECT id, commitment_id, provenance_ref, occurred_at, summary, snippet, metadata, created_at
		FROM commitment_progress_entries WHERE commitment_id = $1 ORDER BY occurred_at ASC`, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("list commitment progress: %w", err)
	}
	defer rows.Close()
	var out []*domain.CommitmentProgressEntry
	for rows.Next() {
		var p domain.CommitmentProgressEntry
		if err := rows.Scan(&p.ID, &p.CommitmentID, &p.ProvenanceRef, &p.OccurredAt,
			&p.Summary, &p.Snippet, &p.Metadata, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// CommitmentScheduleLinkRepository implements store.CommitmentScheduleLinks,
// grounded on original_source's CommitmentScheduleLinkRepository: deactivate
// then insert, both called within the same caller transaction to enforce
// the one-active-link invariant.
type CommitmentScheduleLinkRepository struct{ db *DB }

func NewCommitmentScheduleLinkRepository(db *DB) *CommitmentScheduleLinkRepository {
	return &CommitmentScheduleLinkRepository{db: db}
}

func (r *CommitmentScheduleLinkRepository) DeactivateActive(ctx context.Context, storeTx store.Tx, commitmentID string) error {
	_, err := r.db.q(storeTx).Exec(ctx, `
		UPDATE commitment_schedule_links SET is_active = false
		WHERE commitment_id = $1 AND is_active = true`, commitmentID)
	if err != nil {
		return fmt.Errorf("deactivate active link: %w", err)
	}
	return nil
}

func (r *CommitmentScheduleLinkRepository) Insert(ctx context.Context, storeTx store.Tx, l *domain.CommitmentScheduleLink) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO commitment_schedule_links (commitment_id, schedule_id, is_active)
		VALUES ($1,$2,$3)
		RETURNING id, created_at`, l.CommitmentID, l.ScheduleID, l.IsActive)
	return row.Scan(&l.ID, &l.CreatedAt)
}

func (r *CommitmentScheduleLinkRepository) FindActiveByCommitment(ctx context.Context, storeTx store.Tx, commitmentID string) (*domain.CommitmentScheduleLink, error) {
	row := r.db.q(storeTx).QueryRow(ctx, `
		SELECT id, commitment_id, schedule_id, is_active, created_at
		FROM commitment_schedule_links WHERE commitment_id = $1 AND is_active = true`, commitmentID)
	return scanLink(row)
}

func (r *CommitmentScheduleLinkRepository) FindActiveBySchedule(ctx context.Context, storeTx store.Tx, scheduleID string) (*domain.CommitmentScheduleLink, error) {
	row := r.db.q(storeTx).QueryRow(ctx, `
		SELECT id, commitment_id, schedule_id, is_active, created_at
		FROM commitment_schedule_links WHERE schedule_id = $1 AND is_active = true`, scheduleID)
	return scanLink(row)
}

func scanLink(row rowScanner) (*domain.CommitmentScheduleLink, error) {
	var l domain.CommitmentScheduleLink
	err := row.Scan(&l.ID, &l.CommitmentID, &l.ScheduleID, &l.IsActive, &l.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// TransitionProposalRepository implements store.TransitionProposals.
type TransitionProposalRepository struct{ db *DB }

func NewTransitionProposalRepository(db *DB) *TransitionProposalRepository {
	return &TransitionProposalRepository{db: db}
}

func (r *TransitionProposalRepository) Create(ctx context.Context, storeTx store.Tx, p *domain.CommitmentTransitionProposal) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO commitment_transition_proposals (
			commitment_id, from_state, to_state, actor, confidence, threshold, reason, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, proposed_at`,
		p.CommitmentID, p.FromState, p.ToState, p.Actor, p.Confidence, p.Threshold, p.Reason, p.Status)
	return row.Scan(&p.ID, &p.ProposedAt)
}

func (r *TransitionProposalRepository) Get(ctx context.Context, storeTx store.Tx, id string) (*domain.CommitmentTransitionProposal, error) {
	row := r.db.q(storeTx).QueryRow(ctx, `
		SELECT id, commitment_id, from_state, to_state, actor, confidence, threshold, reason,
		       status, proposed_at, decided_at, decided_by, decision_reason
		FROM commitment_transition_proposals WHERE id = $1`, id)
	var p domain.CommitmentTransitionProposal
	err := row.Scan(&p.ID, &p.CommitmentID, &p.FromState, &p.ToState, &p.Actor, &p.Confidence, &p.Threshold,
		&p.Reason, &p.Status, &p.ProposedAt, &p.DecidedAt, &p.DecidedBy, &p.DecisionReason)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrProposalNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *TransitionProposalRepository) Decide(ctx context.Context, storeTx store.Tx, id string, status domain.ProposalStatus, decidedBy, reason string, decidedAt time.Time) error {
	tag, err := r.db.q(storeTx).Exec(ctx, `
		UPDATE commitment_transition_proposals
		SET status = $2, decided_by = $3, decision_reason = $4, decided_at = $5
		WHERE id = $1 AND status = 'pending'`, id, status, decidedBy, reason, decidedAt)
	if err != nil {
		return fmt.Errorf("decide transition proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProposalNotFound
	}
	return nil
}

func (r *TransitionProposalRepository) ListPending(ctx context.Context, storeTx store.Tx) ([]*domain.CommitmentTransitionProposal, error) {
	rows, err := r.db.q(storeTx).Query(ctx, `
		SELECT id, commitment_id, from_state, to_state, actor, confidence, threshold, reason,
		       status, proposed_at, decided_at, decided_by, decision_reason
		FROM commitment_transition_proposals WHERE status = 'pending' ORDER BY proposed_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending transition proposals: %w", err)
	}
	defer rows.Close()
	var out []*domain.CommitmentTransitionProposal
	for rows.Next() {
		var p domain.CommitmentTransitionProposal
		if err := rows.Scan(&p.ID, &p.CommitmentID, &p.FromState, &p.ToState, &p.Actor, &p.Confidence, &p.Threshold,
			&p.Reason, &p.Status, &p.ProposedAt, &p.DecidedAt, &p.DecidedBy, &p.DecisionReason); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// CreationProposalRepository implements store.CreationProposals, grounded
// on original_source's creation_proposal_notifications.py build_proposal_ref
// scheme for the deterministic ProposalRef.
type CreationProposalRepository struct{ db *DB }

func NewCreationProposalRepository(db *DB) *CreationProposalRepository {
	return &CreationProposalRepository{db: db}
}

func (r *CreationProposalRepository) Create(ctx context.Context, storeTx store.Tx, p *domain.CommitmentCreationProposal) error {
	row := r.db.q(storeTx).QueryRow(ctx, `
		INSERT INTO commitment_creation_proposals (
			proposal_ref, kind, payload, suggested_duplicate, summary_capped,
			source_channel, source_actor, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, proposed_at`,
		p.ProposalRef, p.Kind, p.Payload, p.SuggestedDuplicate, p.SummaryCapped,
		p.SourceChannel, p.SourceActor, p.Status)
	return row.Scan(&p.ID, &p.ProposedAt)
}

func (r *CreationProposalRepository) FindByRef(ctx context.Context, storeTx store.Tx, ref string) (*domain.CommitmentCreationProposal, error) {
	row := r.db.q(storeTx).QueryRow(ctx, `
		SELECT id, proposal_ref, kind, payload, suggested_duplicate, summary_capped,
		       source_channel, source_actor, status, proposed_at, decided_at, decided_by, decision_reason
		FROM commitment_creation_proposals WHERE proposal_ref = $1`, ref)
	p, err := scanCreationProposal(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *CreationProposalRepository) Decide(ctx context.Context, storeTx store.Tx, id string, status domain.ProposalStatus, decidedBy, reason string, decidedAt time.Time) error {
	tag, err := r.db.q(storeTx).Exec(ctx, `
		UPDATE commitment_creation_proposals
		SET status = $2, decided_by = $3, decision_reason = $4, decided_at = $5
		WHERE id = $1 AND status = 'pending'`, id, status, decidedBy, reason, decidedAt)
	if err != nil {
		return fmt.Errorf("decide creation proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProposalNotFound
	}
	return nil
}

func (r *CreationProposalRepository) ListPending(ctx context.Context, storeTx store.Tx) ([]*domain.CommitmentCreationProposal, error) {
	rows, err := r.db.q(storeTx).Query(ctx, `
		SELECT id, proposal_ref, kind, payload, suggested_duplicate, summary_capped,
		       source_channel, source_actor, status, proposed_at, decided_at, decided_by, decision_reason
		FROM commitment_creation_proposals WHERE status = 'pending' ORDER BY proposed_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending creation proposals: %w", err)
	}
	defer rows.Close()
	var out []*domain.CommitmentCreationProposal
	for rows.Next() {
		p, err := scanCreationProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanCreationProposal(row rowScanner) (*domain.CommitmentCreationProposal, error) {
	var p domain.CommitmentCreationProposal
	err := row.Scan(&p.ID, &p.ProposalRef, &p.Kind, &p.Payload, &p.SuggestedDuplicate, &p.SummaryCapped,
		&p.SourceChannel, &p.SourceActor, &p.Status, &p.ProposedAt, &p.DecidedAt, &p.DecidedBy, &p.DecisionReason)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
