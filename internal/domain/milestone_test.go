package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func ladder(targets ...int) MilestoneGroup {
	g := MilestoneGroup{ID: uuid.New(), Slug: "tests-completed", CounterKind: "tests_completed"}
	for i, target := range targets {
		g.Milestones = append(g.Milestones, Milestone{
			ID:          uuid.New(),
			GroupID:     g.ID,
			Position:    i,
			TargetCount: target,
			XPReward:    (i + 1) * 50,
		})
	}
	return g
}

func TestIsReached_CounterGroup(t *testing.T) {
	g := ladder(5, 10, 20)

	assert.False(t, IsReached(g, g.Milestones[0], 4))
	assert.True(t, IsReached(g, g.Milestones[0], 5))
	assert.True(t, IsReached(g, g.Milestones[2], 25))
}

func TestIsReached_RepeatableGroupUsesCycleCounter(t *testing.T) {
	g := ladder(3, 6)
	g.IsRepeatable = true
	g.CurrentCount = 4

	// The caller-supplied counter is ignored for repeatable groups.
	assert.True(t, IsReached(g, g.Milestones[0], 0))
	assert.False(t, IsReached(g, g.Milestones[1], 100))
}

func TestCanClaim_FirstMilestone(t *testing.T) {
	g := ladder(5, 10, 20)
	claimed := map[uuid.UUID]bool{}

	assert.True(t, CanClaim(g, 0, 7, claimed))
	assert.False(t, CanClaim(g, 0, 4, claimed))
}

func TestCanClaim_RequiresPredecessor(t *testing.T) {
	g := ladder(5, 10, 20)
	claimed := map[uuid.UUID]bool{}

	// Counter is past milestone 2's target, but milestone 1 is unclaimed.
	assert.False(t, CanClaim(g, 1, 25, claimed))

	claimed[g.Milestones[0].ID] = true
	assert.True(t, CanClaim(g, 1, 25, claimed))
}

func TestCanClaim_AlreadyClaimed(t *testing.T) {
	g := ladder(5, 10)
	claimed := map[uuid.UUID]bool{g.Milestones[0].ID: true}

	assert.False(t, CanClaim(g, 0, 100, claimed))
}

func TestCanClaim_IndexOutOfRange(t *testing.T) {
	g := ladder(5)
	claimed := map[uuid.UUID]bool{}

	assert.False(t, CanClaim(g, -1, 100, claimed))
	assert.False(t, CanClaim(g, 1, 100, claimed))
}

func TestCanClaim_FullLadderLeftToRight(t *testing.T) {
	g := ladder(5, 10, 20)
	claimed := map[uuid.UUID]bool{}

	for i := range g.Milestones {
		assert.True(t, CanClaim(g, i, 20, claimed), "milestone %d should be claimable", i)
		claimed[g.Milestones[i].ID] = true
	}
	for i := range g.Milestones {
		assert.False(t, CanClaim(g, i, 20, claimed), "milestone %d should not be reclaimable", i)
	}
}
