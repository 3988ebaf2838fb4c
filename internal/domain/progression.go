package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProgression is the single per-user progression record, owned
// exclusively by the engine and mutated only through its commands.
// Version drives the optimistic compare-and-swap on every write.
type UserProgression struct {
	UserID                uuid.UUID   `json:"user_id"`
	EnergyCurrent         int         `json:"energy_current"`
	EnergyMax             int         `json:"energy_max"`
	EnergyLastReplenishAt time.Time   `json:"energy_last_replenish_at"`
	StreakCount           int         `json:"streak_count"`
	LastActivityDate      *LocalDate  `json:"last_activity_date,omitempty"`
	ActivityLog           []LocalDate `json:"activity_log"`
	TotalXP               int64       `json:"total_xp"`
	ActiveTitle           *string     `json:"active_title,omitempty"`
	Version               int64       `json:"-"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

// NewUserProgression returns the initial record created at account
// bootstrap: full energy, no streak, empty log.
func NewUserProgression(userID uuid.UUID, cfg EnergyConfig, now time.Time) *UserProgression {
	return &UserProgression{
		UserID:                userID,
		EnergyCurrent:         cfg.Max,
		EnergyMax:             cfg.Max,
		EnergyLastReplenishAt: now,
		StreakCount:           0,
		ActivityLog:           []LocalDate{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// EnergyView is the derived, client-facing energy state.
type EnergyView struct {
	Current     int        `json:"current"`
	Max         int        `json:"max"`
	NextRegenAt *time.Time `json:"next_regen_at,omitempty"`
}

// StreakView is the derived, client-facing streak state.
type StreakView struct {
	Count            int         `json:"count"`
	LastActivityDate *LocalDate  `json:"last_activity_date,omitempty"`
	ActivityLog      []LocalDate `json:"activity_log"`
}

// MilestoneView decorates a milestone with the user's claim state.
type MilestoneView struct {
	Milestone
	Reached   bool `json:"reached"`
	Claimed   bool `json:"claimed"`
	Claimable bool `json:"claimable"`
}

// MilestoneGroupView is a group with per-milestone claim state.
type MilestoneGroupView struct {
	ID           uuid.UUID       `json:"id"`
	Slug         string          `json:"slug"`
	Title        string          `json:"title"`
	OrderNumber  int             `json:"order_number"`
	IsRepeatable bool            `json:"is_repeatable"`
	CounterKind  string          `json:"counter_kind"`
	CurrentCount int             `json:"current_count"`
	Milestones   []MilestoneView `json:"milestones"`
}

// Snapshot is the read-only composite view served by the facade.
type Snapshot struct {
	Energy      EnergyView           `json:"energy"`
	Streak      StreakView           `json:"streak"`
	Groups      []MilestoneGroupView `json:"milestone_groups"`
	TotalXP     int64                `json:"total_xp"`
	ActiveTitle *string              `json:"active_title,omitempty"`
}
