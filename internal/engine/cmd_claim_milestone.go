package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/studyloop/progression/internal/domain"
	"github.com/studyloop/progression/internal/infra"
)

// ClaimMilestone collects a milestone's reward. Claimability is
// re-resolved from authoritative state on every call — a client-held
// "claimable" flag is never trusted. On success the claim row, the XP/title
// award, and the outbox event commit together; the claim row's primary key
// turns the losing side of a concurrent double-claim into ALREADY_CLAIMED.
func (e *Engine) ClaimMilestone(ctx context.Context, userID, milestoneID uuid.UUID) (domain.ClaimResult, error) {
	group, err := e.milestones.FindGroupByMilestone(ctx, e.pool, milestoneID)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	if group == nil {
		return domain.ClaimResult{}, domain.ErrNotFound("milestone", milestoneID.String())
	}

	// First contact bootstraps the progression row the reward lands on.
	if _, err := e.EnsureProgression(ctx, userID); err != nil {
		return domain.ClaimResult{}, err
	}

	idx := -1
	for i, m := range group.Milestones {
		if m.ID == milestoneID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ClaimResult{}, domain.ErrNotFound("milestone", milestoneID.String())
	}
	milestone := group.Milestones[idx]

	claimed, err := e.claims.ClaimedSet(ctx, e.pool, userID, &group.ID)
	if err != nil {
		return domain.ClaimResult{}, err
	}

	counterValue := 0
	if group.IsRepeatable {
		cycles, err := e.counters.GroupCounters(ctx, e.pool, userID)
		if err != nil {
			return domain.ClaimResult{}, err
		}
		group.CurrentCount = cycles[group.ID]
	} else {
		counterValue, err = e.counters.Value(ctx, e.pool, userID, group.CounterKind)
		if err != nil {
			return domain.ClaimResult{}, err
		}
	}

	// Rule checks in claim order: ordering first, then idempotency, then
	// reachability.
	if idx > 0 && !claimed[group.Milestones[idx-1].ID] {
		return domain.ClaimResult{}, domain.ErrPreviousNotClaimed()
	}
	if claimed[milestoneID] {
		return domain.ClaimResult{}, domain.ErrAlreadyClaimed()
	}
	if !domain.IsReached(*group, milestone, counterValue) {
		return domain.ClaimResult{}, domain.ErrNotReached()
	}

	result := domain.ClaimResult{XPAwarded: milestone.XPReward, TitleAwarded: milestone.TitleReward}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return domain.ClaimResult{}, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback(ctx)

	err = e.claims.Insert(ctx, tx, domain.MilestoneClaim{
		UserID:      userID,
		MilestoneID: milestoneID,
		ClaimedAt:   e.clock.Now(),
	})
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) && appErr.Code == "ALREADY_CLAIMED" {
			// Lost a concurrent claim race after the pre-check.
			return domain.ClaimResult{}, appErr
		}
		return domain.ClaimResult{}, err
	}

	totalXP, err := e.progressions.AddReward(ctx, tx, userID, milestone.XPReward, milestone.TitleReward)
	if err != nil {
		return domain.ClaimResult{}, err
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewMilestoneClaimedEvent(userID, milestoneID, result)); err != nil {
		return domain.ClaimResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ClaimResult{}, fmt.Errorf("commit claim: %w", err)
	}

	infra.MilestonesClaimed.Inc()
	e.updateLeaderboard(ctx, userID, totalXP)

	return result, nil
}
