package domain

import (
	"time"

	"github.com/google/uuid"
)

// MilestoneGroup is an ordered ladder of milestones over one counter.
// Group and milestone rows are authored content, read-only to the engine.
type MilestoneGroup struct {
	ID           uuid.UUID   `json:"id"`
	Slug         string      `json:"slug"`
	Title        string      `json:"title"`
	OrderNumber  int         `json:"order_number"`
	IsRepeatable bool        `json:"is_repeatable"`
	CounterKind  string      `json:"counter_kind"`
	CurrentCount int         `json:"current_count"` // per-user cycle counter; meaningful only when repeatable
	Milestones   []Milestone `json:"milestones"`    // ordered by Position
	CreatedAt    time.Time   `json:"created_at"`
}

// Milestone is a single threshold within a group's fixed order.
// TargetCount is monotonically non-decreasing along the ladder.
type Milestone struct {
	ID          uuid.UUID `json:"id"`
	GroupID     uuid.UUID `json:"group_id"`
	Position    int       `json:"position"`
	TargetCount int       `json:"target_count"`
	XPReward    int       `json:"xp_reward"`
	TitleReward *string   `json:"title_reward,omitempty"`
}

// MilestoneClaim records the irreversible, at-most-once collection of a
// milestone's reward. Row existence is the sole source of truth for
// "claimed"; there is no flag that can drift from it.
type MilestoneClaim struct {
	UserID      uuid.UUID `json:"user_id"`
	MilestoneID uuid.UUID `json:"milestone_id"`
	ClaimedAt   time.Time `json:"claimed_at"`
}

// ClaimResult is the reward emitted by a successful claim. Both fields are
// always present; TitleAwarded is nil when the milestone carries no title.
type ClaimResult struct {
	XPAwarded    int     `json:"xp_awarded"`
	TitleAwarded *string `json:"title_awarded"`
}

// IsReached reports whether the milestone's threshold is met. Repeatable
// groups ladder over their own per-user cycle counter; everything else
// compares against the caller-supplied domain counter (e.g. lessons
// completed), which this engine reads but never owns.
func IsReached(g MilestoneGroup, m Milestone, counterValue int) bool {
	if g.IsRepeatable {
		return g.CurrentCount >= m.TargetCount
	}
	return counterValue >= m.TargetCount
}

// CanClaim reports whether the milestone at idx is claimable: reached,
// not yet claimed, and every predecessor in the group already claimed.
// Skipping ahead would let a high counter collect lower-tier rewards out
// of order, so claiming is strictly left to right.
func CanClaim(g MilestoneGroup, idx int, counterValue int, claimed map[uuid.UUID]bool) bool {
	if idx < 0 || idx >= len(g.Milestones) {
		return false
	}
	m := g.Milestones[idx]
	if !IsReached(g, m, counterValue) {
		return false
	}
	if claimed[m.ID] {
		return false
	}
	if idx > 0 && !claimed[g.Milestones[idx-1].ID] {
		return false
	}
	return true
}
