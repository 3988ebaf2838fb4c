package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/studyloop/progression/internal/domain"
	"github.com/studyloop/progression/internal/infra"
)

// ConsumeEnergy reconciles the user's energy against the clock and spends
// amount units. Fails with INSUFFICIENT_ENERGY when the reconciled value
// is short; retried on version conflict so two concurrent consumers can
// never double-spend the same regenerated unit.
func (e *Engine) ConsumeEnergy(ctx context.Context, userID uuid.UUID, amount int) (domain.EnergyView, error) {
	if amount < 1 {
		return domain.EnergyView{}, domain.ErrValidation(fmt.Sprintf("amount must be >= 1, got %d", amount))
	}

	for attempt := 0; attempt < e.cfg.MaxRetries; attempt++ {
		p, err := e.EnsureProgression(ctx, userID)
		if err != nil {
			return domain.EnergyView{}, err
		}

		now := e.clock.Now()
		state := domain.ComputeEnergy(p.EnergyCurrent, p.EnergyMax, p.EnergyLastReplenishAt, now, e.cfg.Energy)
		if state.Current < amount {
			return domain.EnergyView{}, domain.ErrInsufficientEnergy()
		}

		remaining := state.Current - amount

		// Spending from a full bar starts the regen countdown at the spend.
		// The reconciled anchor is stale while at max (nothing accrues past
		// the cap); persisting it would let the idle time count retroactively
		// as regeneration and refund the spent units on the next read.
		anchor := state.LastReplenishAt
		if state.NextRegenAt == nil {
			anchor = now
		}

		tx, err := e.pool.Begin(ctx)
		if err != nil {
			return domain.EnergyView{}, fmt.Errorf("begin consume: %w", err)
		}

		ok, err := e.progressions.UpdateEnergy(ctx, tx, userID, remaining, anchor, p.Version)
		if err != nil {
			tx.Rollback(ctx)
			return domain.EnergyView{}, err
		}
		if !ok {
			tx.Rollback(ctx)
			infra.VersionConflicts.WithLabelValues("consume_energy").Inc()
			continue
		}

		if err := e.outbox.Insert(ctx, tx, domain.NewEnergyConsumedEvent(userID, amount, remaining)); err != nil {
			tx.Rollback(ctx)
			return domain.EnergyView{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return domain.EnergyView{}, fmt.Errorf("commit consume: %w", err)
		}

		infra.EnergyConsumed.Add(float64(amount))
		after := domain.ComputeEnergy(remaining, p.EnergyMax, anchor, now, e.cfg.Energy)
		return domain.EnergyView{Current: after.Current, Max: p.EnergyMax, NextRegenAt: after.NextRegenAt}, nil
	}

	return domain.EnergyView{}, domain.ErrRetry()
}
