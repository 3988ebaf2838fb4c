//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/studyloop/progression/internal/auth"
)

// UserToken mints a user-realm JWT for the given user ID.
func (env *TestEnv) UserToken(userID uuid.UUID) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmUser, userID, "user@test.local", "")
	if err != nil {
		env.t.Fatalf("UserToken: %v", err)
	}
	return token
}

// AdminToken mints an admin-realm JWT.
func (env *TestEnv) AdminToken() string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmAdmin, uuid.New(), "admin@test.local", "admin")
	if err != nil {
		env.t.Fatalf("AdminToken: %v", err)
	}
	return token
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("GET", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("AuthGET %s: new request: %v", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthGET %s: %v", path, err)
	}
	return resp
}

// AuthPOST performs an authenticated POST request with a JSON body.
func (env *TestEnv) AuthPOST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// DecodeBody decodes a JSON response body into dst and closes the body.
func (env *TestEnv) DecodeBody(resp *http.Response, dst interface{}) {
	env.t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		env.t.Fatalf("decode body: %v", err)
	}
}

// ErrorCode reads the error code from an error response body.
func (env *TestEnv) ErrorCode(resp *http.Response) string {
	env.t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	env.DecodeBody(resp, &body)
	return body.Code
}

// SeedGroup inserts a milestone group directly and returns its ID.
func (env *TestEnv) SeedGroup(slug string, orderNumber int, repeatable bool, counterKind string) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.New()
	_, err := env.Pool.Exec(ctx, `
		INSERT INTO milestone_groups (id, slug, title, order_number, is_repeatable, counter_kind)
		VALUES ($1, $2, $2, $3, $4, $5)`,
		id, slug, orderNumber, repeatable, counterKind)
	if err != nil {
		env.t.Fatalf("SeedGroup: %v", err)
	}
	return id
}

// SeedMilestone inserts a milestone into a group's ladder and returns its ID.
func (env *TestEnv) SeedMilestone(groupID uuid.UUID, position, targetCount, xpReward int, titleReward *string) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.New()
	_, err := env.Pool.Exec(ctx, `
		INSERT INTO milestones (id, group_id, position, target_count, xp_reward, title_reward)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, groupID, position, targetCount, xpReward, titleReward)
	if err != nil {
		env.t.Fatalf("SeedMilestone: %v", err)
	}
	return id
}

// SetCounter upserts a user's lifetime counter value.
func (env *TestEnv) SetCounter(userID uuid.UUID, kind string, value int) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx, `
		INSERT INTO user_counters (user_id, kind, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, kind) DO UPDATE SET value = $3, updated_at = now()`,
		userID, kind, value)
	if err != nil {
		env.t.Fatalf("SetCounter: %v", err)
	}
}

// SetGroupCounter upserts a user's per-cycle counter for a repeatable group.
func (env *TestEnv) SetGroupCounter(userID, groupID uuid.UUID, count int) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx, `
		INSERT INTO user_group_counters (user_id, group_id, current_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, group_id) DO UPDATE SET current_count = $3, updated_at = now()`,
		userID, groupID, count)
	if err != nil {
		env.t.Fatalf("SetGroupCounter: %v", err)
	}
}

// RewindEnergyAnchor moves a user's last replenish time into the past so the
// lazy regeneration path has elapsed intervals to credit.
func (env *TestEnv) RewindEnergyAnchor(userID uuid.UUID, by time.Duration) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tag, err := env.Pool.Exec(ctx, `
		UPDATE user_progressions
		SET energy_last_replenish_at = energy_last_replenish_at - $1
		WHERE user_id = $2`, by, userID)
	if err != nil {
		env.t.Fatalf("RewindEnergyAnchor: %v", err)
	}
	if tag.RowsAffected() == 0 {
		env.t.Fatalf("RewindEnergyAnchor: no progression row for %s", userID)
	}
}

// OutboxEventTypes returns the event types currently sitting in the outbox
// for the given aggregate ID, oldest first.
func (env *TestEnv) OutboxEventTypes(aggregateID string) []string {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := env.Pool.Query(ctx, `
		SELECT event_type FROM event_outbox
		WHERE aggregate_id = $1 ORDER BY occurred_at ASC`, aggregateID)
	if err != nil {
		env.t.Fatalf("OutboxEventTypes: %v", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var et string
		if err := rows.Scan(&et); err != nil {
			env.t.Fatalf("OutboxEventTypes: scan: %v", err)
		}
		types = append(types, et)
	}
	return types
}
