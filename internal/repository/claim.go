package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/studyloop/progression/internal/domain"
)

type claimRepo struct{}

// NewClaimRepository returns a pgx-backed ClaimRepository.
func NewClaimRepository() ClaimRepository {
	return &claimRepo{}
}

const pgUniqueViolation = "23505"

func (r *claimRepo) Insert(ctx context.Context, tx pgx.Tx, claim domain.MilestoneClaim) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO user_milestone_claims (user_id, milestone_id, claimed_at)
		VALUES ($1, $2, $3)`,
		claim.UserID, claim.MilestoneID, claim.ClaimedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// The primary key is the concurrency guard: a losing
			// concurrent claim lands here, not on a double reward.
			return domain.ErrAlreadyClaimed()
		}
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (r *claimRepo) ClaimedSet(ctx context.Context, db DBTX, userID uuid.UUID, groupID *uuid.UUID) (map[uuid.UUID]bool, error) {
	query := `
		SELECT milestone_id FROM user_milestone_claims
		WHERE user_id = $1`
	args := []interface{}{userID}
	if groupID != nil {
		query = `
		SELECT c.milestone_id
		FROM user_milestone_claims c
		JOIN milestones m ON m.id = c.milestone_id
		WHERE c.user_id = $1 AND m.group_id = $2`
		args = append(args, *groupID)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	claimed := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claimed[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return claimed, nil
}
