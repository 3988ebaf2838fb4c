//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyloop/progression/test/integration/testutil"
)

// outcome is a status/error-code pair collected from a parallel request.
type outcome struct {
	status int
	code   string
}

// firePOST issues one authenticated POST and reports the status plus the
// error code (empty on success). Safe to call from non-test goroutines.
func firePOST(serverURL, path string, body interface{}, token string) (outcome, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return outcome{}, err
		}
	}
	req, err := http.NewRequest("POST", serverURL+path, &buf)
	if err != nil {
		return outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return outcome{}, err
	}
	defer resp.Body.Close()

	o := outcome{status: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			o.code = errBody.Code
		}
	}
	return o, nil
}

func fireParallel(t *testing.T, n int, do func() (outcome, error)) []outcome {
	t.Helper()

	results := make([]outcome, n)
	errs := make([]error, n)
	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(n)

	for i := 0; i < n; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			results[i], errs[i] = do()
		}(i)
	}
	start.Done()
	done.Wait()

	for i, err := range errs {
		require.NoError(t, err, "request %d", i)
	}
	return results
}

func TestClaim_ConcurrentClaimsSingleSuccess(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, ids := seedLessonsLadder(env)
	userID := uuid.New()
	token := env.UserToken(userID)

	env.SetCounter(userID, "lessons_completed", 5)
	path := "/progression/milestones/" + ids[0].String() + "/claim"

	results := fireParallel(t, 4, func() (outcome, error) {
		return firePOST(env.Server.URL, path, nil, token)
	})

	successes := 0
	for _, r := range results {
		switch r.status {
		case http.StatusOK:
			successes++
		case http.StatusConflict:
			assert.Equal(t, "ALREADY_CLAIMED", r.code)
		default:
			t.Fatalf("unexpected status %d (code %s)", r.status, r.code)
		}
	}
	require.Equal(t, 1, successes, "exactly one concurrent claim may win")

	// The reward landed exactly once.
	resp := env.AuthGET("/progression/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap snapshotResponse
	env.DecodeBody(resp, &snap)
	assert.Equal(t, int64(50), snap.TotalXP)
}

func TestConsumeEnergy_ConcurrentSpendsNeverDoubleSpend(t *testing.T) {
	env := testutil.NewTestEnv(t)
	userID := uuid.New()
	token := env.UserToken(userID)

	env.AuthGET("/progression/me", token).Body.Close()

	results := fireParallel(t, 6, func() (outcome, error) {
		return firePOST(env.Server.URL, "/progression/energy/consume", map[string]int{"amount": 1}, token)
	})

	// Losers of the version race either exhaust their retries (RETRY) or
	// reload and find the bar short (INSUFFICIENT_ENERGY); neither may spend.
	successes := 0
	for _, r := range results {
		switch {
		case r.status == http.StatusOK:
			successes++
		case r.status == http.StatusConflict && r.code == "RETRY":
		case r.status == http.StatusBadRequest && r.code == "INSUFFICIENT_ENERGY":
		default:
			t.Fatalf("unexpected status %d (code %s)", r.status, r.code)
		}
	}
	require.GreaterOrEqual(t, successes, 1)

	resp := env.AuthGET("/progression/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap snapshotResponse
	env.DecodeBody(resp, &snap)
	assert.Equal(t, 6-successes, snap.Energy.Current, "every success spends exactly one unit, nothing else does")
}

func TestRecordActivity_ConcurrentSameDayCountsOnce(t *testing.T) {
	env := testutil.NewTestEnv(t)
	userID := uuid.New()
	token := env.UserToken(userID)

	results := fireParallel(t, 4, func() (outcome, error) {
		return firePOST(env.Server.URL, "/progression/activity", map[string]string{"local_date": "2026-04-10"}, token)
	})

	for _, r := range results {
		switch {
		case r.status == http.StatusOK:
		case r.status == http.StatusConflict && r.code == "RETRY":
		default:
			t.Fatalf("unexpected status %d (code %s)", r.status, r.code)
		}
	}

	resp := env.AuthGET("/progression/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap snapshotResponse
	env.DecodeBody(resp, &snap)
	assert.Equal(t, 1, snap.Streak.Count, "same day must never double-increment")
	assert.Len(t, snap.Streak.ActivityLog, 1)
}
