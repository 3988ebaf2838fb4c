//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyloop/progression/test/integration/testutil"
)

type snapshotResponse struct {
	Energy struct {
		Current     int     `json:"current"`
		Max         int     `json:"max"`
		NextRegenAt *string `json:"next_regen_at"`
	} `json:"energy"`
	Streak struct {
		Count            int      `json:"count"`
		LastActivityDate *string  `json:"last_activity_date"`
		ActivityLog      []string `json:"activity_log"`
	} `json:"streak"`
	TotalXP int64 `json:"total_xp"`
}

func TestSnapshot_BootstrapsOnFirstContact(t *testing.T) {
	env := testutil.NewTestEnv(t)
	userID := uuid.New()
	token := env.UserToken(userID)

	resp := env.AuthGET("/progression/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap snapshotResponse
	env.DecodeBody(resp, &snap)

	assert.Equal(t, 6, snap.Energy.Current)
	assert.Equal(t, 6, snap.Energy.Max)
	assert.Nil(t, snap.Energy.NextRegenAt, "full energy has no pending regen")
	assert.Equal(t, 0, snap.Streak.Count)
	assert.Empty(t, snap.Streak.ActivityLog)
	assert.Zero(t, snap.TotalXP)

	types := env.OutboxEventTypes(userID.String())
	require.Len(t, types, 1)
	assert.Equal(t, "progression.account.created", types[0])
}

func TestSnapshot_RequiresAuth(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.GET("/progression/me")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConsumeEnergy_SpendsAndSchedulesRegen(t *testing.T) {
	env := testutil.NewTestEnv(t)
	userID := uuid.New()
	token := env.UserToken(userID)

	// Bootstrap the record.
	env.AuthGET("/progression/me", token).Body.Close()

	resp := env.AuthPOST("/progression/energy/consume", map[string]int{"amount": 2}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view struct {
		Current     int     `json:"current"`
		Max         int     `json:"max"`
		NextRegenAt *string `json:"next_regen_at"`
	}
	env.DecodeBody(resp, &view)

	assert.Equal(t, 4, view.Current)
	assert.Equal(t, 6, view.Max)
	require.NotNil(t, view.NextRegenAt, "below max must schedule next regen")
}

func TestConsumeEnergy_InsufficientRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	userID := uuid.New()
	token := env.UserToken(userID)

	env.AuthGET("/progression/me", token).Body.Close()

	resp := env.AuthPOST("/progression/energy/consume", map[string]int{"amount": 6}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.AuthPOST("/progression/energy/consume", map[string]int{"amount": 1}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_ENERGY", env.ErrorCode(resp))
}

func TestConsumeEnergy_InvalidAmountRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	userID := uuid.New()
	token := env.UserToken(userID)

	env.AuthGET("/progression/me", token).Body.Close()

	resp := env.AuthPOST("/progression/energy/consume", map[string]int{"amount": -1}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode(resp))
}

func TestConsumeEnergy_LazyRegenCreditsElapsedIntervals(t *testing.T) {
	env := testutil.NewTestEnv(t)
	userID := uuid.New()
	token := env.UserToken(userID)

	env.AuthGET("/progression/me", token).Body.Close()

	// Drain to zero.
	resp := env.AuthPOST("/progression/energy/consume", map[string]int{"amount": 6}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Nine hours pass: two 4h intervals elapsed, two units owed.
	env.RewindEnergyAnchor(userID, 9*time.Hour)

	resp = env.AuthPOST("/progression/energy/consume", map[string]int{"amount": 1}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view struct {
		Current int `json:"current"`
	}
	env.DecodeBody(resp, &view)
	assert.Equal(t, 1, view.Current, "2 regenerated - 1 consumed")
}

func TestConsumeEnergy_SpendFromFullBarStaysSpent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	userID := uuid.New()
	token := env.UserToken(userID)

	env.AuthGET("/progression/me", token).Body.Close()

	// Two days at cap: the stored anchor is long stale, but nothing accrues
	// past max, so a spend now must not be refunded by that idle time.
	env.RewindEnergyAnchor(userID, 48*time.Hour)

	resp := env.AuthPOST("/progression/energy/consume", map[string]int{"amount": 1}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		Current int `json:"current"`
	}
	env.DecodeBody(resp, &view)
	require.Equal(t, 5, view.Current)

	resp = env.AuthGET("/progression/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap snapshotResponse
	env.DecodeBody(resp, &snap)
	assert.Equal(t, 5, snap.Energy.Current, "spent unit must stay spent on the next read")
}

func TestRecordActivity_StreakSequences(t *testing.T) {
	env := testutil.NewTestEnv(t)
	userID := uuid.New()
	token := env.UserToken(userID)

	post := func(day string) (int, *http.Response) {
		resp := env.AuthPOST("/progression/activity", map[string]string{"local_date": day}, token)
		return resp.StatusCode, resp
	}

	// First activity starts the streak at 1.
	status, resp := post("2026-03-01")
	require.Equal(t, http.StatusOK, status)
	var view struct {
		Count       int      `json:"count"`
		ActivityLog []string `json:"activity_log"`
	}
	env.DecodeBody(resp, &view)
	assert.Equal(t, 1, view.Count)

	// Same day again is a no-op.
	status, resp = post("2026-03-01")
	require.Equal(t, http.StatusOK, status)
	env.DecodeBody(resp, &view)
	assert.Equal(t, 1, view.Count)
	assert.Len(t, view.ActivityLog, 1)

	// Consecutive day extends.
	status, resp = post("2026-03-02")
	require.Equal(t, http.StatusOK, status)
	env.DecodeBody(resp, &view)
	assert.Equal(t, 2, view.Count)

	// A gap resets to 1.
	status, resp = post("2026-03-05")
	require.Equal(t, http.StatusOK, status)
	env.DecodeBody(resp, &view)
	assert.Equal(t, 1, view.Count)
	assert.Contains(t, view.ActivityLog, "2026-03-01")
	assert.Contains(t, view.ActivityLog, "2026-03-05")
}

func TestRecordActivity_InvalidDateRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token := env.UserToken(uuid.New())

	resp := env.AuthPOST("/progression/activity", map[string]string{"local_date": "03/01/2026"}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode(resp))
}
