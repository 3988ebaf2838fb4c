//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyloop/progression/test/integration/testutil"
)

type claimResponse struct {
	XPAwarded    int     `json:"xp_awarded"`
	TitleAwarded *string `json:"title_awarded"`
}

// Seeds a 3-rung lessons ladder and returns the milestone IDs in order.
func seedLessonsLadder(env *testutil.TestEnv) (uuid.UUID, []uuid.UUID) {
	title := "Scholar"
	groupID := env.SeedGroup("lessons", 1, false, "lessons_completed")
	ids := []uuid.UUID{
		env.SeedMilestone(groupID, 0, 5, 50, nil),
		env.SeedMilestone(groupID, 1, 10, 100, nil),
		env.SeedMilestone(groupID, 2, 20, 250, &title),
	}
	return groupID, ids
}

func TestClaim_HappyPathAwardsXP(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, ids := seedLessonsLadder(env)
	userID := uuid.New()
	token := env.UserToken(userID)

	env.SetCounter(userID, "lessons_completed", 7)

	resp := env.AuthPOST("/progression/milestones/"+ids[0].String()+"/claim", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result claimResponse
	env.DecodeBody(resp, &result)
	assert.Equal(t, 50, result.XPAwarded)
	assert.Nil(t, result.TitleAwarded)

	// XP lands on the snapshot.
	resp = env.AuthGET("/progression/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap snapshotResponse
	env.DecodeBody(resp, &snap)
	assert.Equal(t, int64(50), snap.TotalXP)
}

func TestClaim_NotReachedRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, ids := seedLessonsLadder(env)
	userID := uuid.New()
	token := env.UserToken(userID)

	env.SetCounter(userID, "lessons_completed", 3)

	resp := env.AuthPOST("/progression/milestones/"+ids[0].String()+"/claim", nil, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NOT_REACHED", env.ErrorCode(resp))
}

func TestClaim_OutOfOrderRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, ids := seedLessonsLadder(env)
	userID := uuid.New()
	token := env.UserToken(userID)

	// Counter satisfies both rungs, but the first is unclaimed.
	env.SetCounter(userID, "lessons_completed", 15)

	resp := env.AuthPOST("/progression/milestones/"+ids[1].String()+"/claim", nil, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "PREVIOUS_NOT_CLAIMED", env.ErrorCode(resp))
}

func TestClaim_DoubleClaimRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, ids := seedLessonsLadder(env)
	userID := uuid.New()
	token := env.UserToken(userID)

	env.SetCounter(userID, "lessons_completed", 5)

	resp := env.AuthPOST("/progression/milestones/"+ids[0].String()+"/claim", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.AuthPOST("/progression/milestones/"+ids[0].String()+"/claim", nil, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_CLAIMED", env.ErrorCode(resp))

	// Only one claim event and one XP grant.
	resp = env.AuthGET("/progression/me", token)
	var snap snapshotResponse
	env.DecodeBody(resp, &snap)
	assert.Equal(t, int64(50), snap.TotalXP)
}

func TestClaim_FullLadderAwardsTitle(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, ids := seedLessonsLadder(env)
	userID := uuid.New()
	token := env.UserToken(userID)

	env.SetCounter(userID, "lessons_completed", 25)

	var last claimResponse
	for _, id := range ids {
		resp := env.AuthPOST("/progression/milestones/"+id.String()+"/claim", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		env.DecodeBody(resp, &last)
	}

	require.NotNil(t, last.TitleAwarded)
	assert.Equal(t, "Scholar", *last.TitleAwarded)

	resp := env.AuthGET("/progression/me", token)
	var snap struct {
		TotalXP     int64   `json:"total_xp"`
		ActiveTitle *string `json:"active_title"`
	}
	env.DecodeBody(resp, &snap)
	assert.Equal(t, int64(400), snap.TotalXP)
	require.NotNil(t, snap.ActiveTitle)
	assert.Equal(t, "Scholar", *snap.ActiveTitle)
}

func TestClaim_RepeatableGroupUsesCycleCounter(t *testing.T) {
	env := testutil.NewTestEnv(t)
	groupID := env.SeedGroup("daily-goals", 2, true, "")
	milestoneID := env.SeedMilestone(groupID, 0, 3, 20, nil)
	userID := uuid.New()
	token := env.UserToken(userID)

	// No cycle progress yet.
	resp := env.AuthPOST("/progression/milestones/"+milestoneID.String()+"/claim", nil, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NOT_REACHED", env.ErrorCode(resp))

	env.SetGroupCounter(userID, groupID, 3)

	resp = env.AuthPOST("/progression/milestones/"+milestoneID.String()+"/claim", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result claimResponse
	env.DecodeBody(resp, &result)
	assert.Equal(t, 20, result.XPAwarded)
}

func TestClaim_UnknownMilestone(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token := env.UserToken(uuid.New())

	resp := env.AuthPOST("/progression/milestones/"+uuid.New().String()+"/claim", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", env.ErrorCode(resp))
}

func TestListMilestones_ShowsClaimState(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, ids := seedLessonsLadder(env)
	userID := uuid.New()
	token := env.UserToken(userID)

	env.SetCounter(userID, "lessons_completed", 7)

	resp := env.AuthPOST("/progression/milestones/"+ids[0].String()+"/claim", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.AuthGET("/progression/milestones", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Groups []struct {
			Slug       string `json:"slug"`
			Milestones []struct {
				ID        uuid.UUID `json:"id"`
				Reached   bool      `json:"reached"`
				Claimed   bool      `json:"claimed"`
				Claimable bool      `json:"claimable"`
			} `json:"milestones"`
		} `json:"milestone_groups"`
	}
	env.DecodeBody(resp, &body)

	require.Len(t, body.Groups, 1)
	ms := body.Groups[0].Milestones
	require.Len(t, ms, 3)

	// Counter is 7: rung 0 (target 5) claimed, rungs 1 and 2 not reached.
	assert.True(t, ms[0].Claimed)
	assert.False(t, ms[0].Claimable)
	assert.False(t, ms[1].Reached)
	assert.False(t, ms[1].Claimable)
	assert.False(t, ms[2].Reached)
}
