package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/studyloop/progression/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// ProgressionRepository provides access to user_progressions.
type ProgressionRepository interface {
	// FindByUserID returns the progression record, or nil when absent.
	FindByUserID(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.UserProgression, error)

	// Create inserts the bootstrap record. Duplicate inserts are ignored
	// (ON CONFLICT DO NOTHING); the bool reports whether a row was created.
	Create(ctx context.Context, db DBTX, p *domain.UserProgression) (bool, error)

	// UpdateEnergy writes the reconciled energy tuple conditioned on the
	// previously-read version. Returns false when the version moved.
	UpdateEnergy(ctx context.Context, db DBTX, userID uuid.UUID, current int, lastReplenishAt time.Time, expectedVersion int64) (bool, error)

	// UpdateStreak writes the streak state conditioned on the
	// previously-read version. Returns false when the version moved.
	UpdateStreak(ctx context.Context, db DBTX, userID uuid.UUID, count int, lastDate domain.LocalDate, log []domain.LocalDate, expectedVersion int64) (bool, error)

	// AddReward increments total_xp with server-side arithmetic and sets
	// active_title when title is non-nil. Called inside the claim
	// transaction; the claim row's uniqueness is the concurrency guard.
	// Returns the post-update XP total.
	AddReward(ctx context.Context, tx pgx.Tx, userID uuid.UUID, xp int, title *string) (int64, error)
}

// MilestoneRepository provides read access to authored milestone content
// and the write paths used by content authoring.
type MilestoneRepository interface {
	// ListGroups returns all groups ordered by order_number, each with its
	// milestones ordered by position.
	ListGroups(ctx context.Context, db DBTX) ([]domain.MilestoneGroup, error)

	// FindGroupByMilestone resolves the group (with ordered milestones)
	// containing the given milestone, or nil when the milestone is unknown.
	FindGroupByMilestone(ctx context.Context, db DBTX, milestoneID uuid.UUID) (*domain.MilestoneGroup, error)

	// CreateGroup inserts an authored group.
	CreateGroup(ctx context.Context, db DBTX, g *domain.MilestoneGroup) error

	// CreateMilestone appends a milestone to a group's ladder.
	CreateMilestone(ctx context.Context, db DBTX, m *domain.Milestone) error
}

// ClaimRepository provides access to user_milestone_claims.
type ClaimRepository interface {
	// Insert creates the claim row. The (user_id, milestone_id) primary key
	// turns a concurrent duplicate into ErrAlreadyClaimed.
	Insert(ctx context.Context, tx pgx.Tx, claim domain.MilestoneClaim) error

	// ClaimedSet returns the set of claimed milestone IDs for the user,
	// optionally restricted to one group (nil groupID means all).
	ClaimedSet(ctx context.Context, db DBTX, userID uuid.UUID, groupID *uuid.UUID) (map[uuid.UUID]bool, error)
}

// CounterRepository reads the domain counters this engine compares against
// but never owns: the external per-user counters (written by the outer
// application) and the per-user cycle counters of repeatable groups.
type CounterRepository interface {
	// Value returns the user's counter for kind, 0 when absent.
	Value(ctx context.Context, db DBTX, userID uuid.UUID, kind string) (int, error)

	// GroupCounters returns the user's repeatable-group cycle counters.
	GroupCounters(ctx context.Context, db DBTX, userID uuid.UUID) (map[uuid.UUID]int, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event within the caller's transaction.
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events for the outbox poller.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished stamps events as published.
	MarkPublished(ctx context.Context, db DBTX, ids []uuid.UUID) error
}
