package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/studyloop/progression/internal/domain"
)

// GetSnapshot returns the composite read-only view: reconciled energy,
// streak state, and every milestone group decorated with per-milestone
// reached/claimed/claimable flags. The only write it may perform is a
// best-effort persistence of the reconciled energy tuple when the stored
// value has gone stale by a full regen interval.
func (e *Engine) GetSnapshot(ctx context.Context, userID uuid.UUID) (domain.Snapshot, error) {
	p, err := e.EnsureProgression(ctx, userID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	now := e.clock.Now()
	state := domain.ComputeEnergy(p.EnergyCurrent, p.EnergyMax, p.EnergyLastReplenishAt, now, e.cfg.Energy)

	if domain.EnergyStale(p.EnergyCurrent, p.EnergyMax, p.EnergyLastReplenishAt, now, e.cfg.Energy) {
		// Lazy reconciliation. Losing the CAS is harmless: every reader
		// recomputes from the stored tuple anyway.
		if _, err := e.progressions.UpdateEnergy(ctx, e.pool, userID, state.Current, state.LastReplenishAt, p.Version); err != nil {
			e.logger.Warn("energy reconciliation failed", "user_id", userID, "error", err)
		}
	}

	groups, err := e.milestones.ListGroups(ctx, e.pool)
	if err != nil {
		return domain.Snapshot{}, err
	}
	claimed, err := e.claims.ClaimedSet(ctx, e.pool, userID, nil)
	if err != nil {
		return domain.Snapshot{}, err
	}
	cycles, err := e.counters.GroupCounters(ctx, e.pool, userID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	counterValues := make(map[string]int)
	for _, g := range groups {
		if g.IsRepeatable || g.CounterKind == "" {
			continue
		}
		if _, seen := counterValues[g.CounterKind]; seen {
			continue
		}
		v, err := e.counters.Value(ctx, e.pool, userID, g.CounterKind)
		if err != nil {
			return domain.Snapshot{}, err
		}
		counterValues[g.CounterKind] = v
	}

	return domain.Snapshot{
		Energy: domain.EnergyView{Current: state.Current, Max: p.EnergyMax, NextRegenAt: state.NextRegenAt},
		Streak: domain.StreakView{
			Count:            p.StreakCount,
			LastActivityDate: p.LastActivityDate,
			ActivityLog:      p.ActivityLog,
		},
		Groups:      BuildGroupViews(groups, claimed, counterValues, cycles),
		TotalXP:     p.TotalXP,
		ActiveTitle: p.ActiveTitle,
	}, nil
}

// BuildGroupViews decorates authored groups with a user's claim state.
// Pure assembly over already-loaded data.
func BuildGroupViews(
	groups []domain.MilestoneGroup,
	claimed map[uuid.UUID]bool,
	counterValues map[string]int,
	cycleCounters map[uuid.UUID]int,
) []domain.MilestoneGroupView {
	views := make([]domain.MilestoneGroupView, 0, len(groups))
	for _, g := range groups {
		if g.IsRepeatable {
			g.CurrentCount = cycleCounters[g.ID]
		}
		counterValue := counterValues[g.CounterKind]

		gv := domain.MilestoneGroupView{
			ID:           g.ID,
			Slug:         g.Slug,
			Title:        g.Title,
			OrderNumber:  g.OrderNumber,
			IsRepeatable: g.IsRepeatable,
			CounterKind:  g.CounterKind,
			CurrentCount: g.CurrentCount,
			Milestones:   make([]domain.MilestoneView, 0, len(g.Milestones)),
		}
		for i, m := range g.Milestones {
			gv.Milestones = append(gv.Milestones, domain.MilestoneView{
				Milestone: m,
				Reached:   domain.IsReached(g, m, counterValue),
				Claimed:   claimed[m.ID],
				Claimable: domain.CanClaim(g, i, counterValue, claimed),
			})
		}
		views = append(views, gv)
	}
	return views
}
