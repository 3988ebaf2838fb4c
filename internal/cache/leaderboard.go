// Package cache implements Redis-backed read projections.
package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "progression:leaderboard:xp"

// LeaderboardEntry is a single ranked row in the XP leaderboard.
type LeaderboardEntry struct {
	UserID  uuid.UUID `json:"user_id"`
	TotalXP int64     `json:"total_xp"`
	Rank    int64     `json:"rank"` // 1-based
}

// Leaderboard keeps the all-time XP ranking in a Redis sorted set.
// It is a projection: the authoritative XP total lives in Postgres, and a
// missed update self-heals on the next claim.
type Leaderboard struct {
	client *redis.Client
}

// NewLeaderboard creates a leaderboard over the given client.
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

// SetScore records a user's XP total.
func (l *Leaderboard) SetScore(ctx context.Context, userID uuid.UUID, totalXP int64) error {
	err := l.client.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(totalXP),
		Member: userID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("zadd leaderboard: %w", err)
	}
	return nil
}

// Top returns the highest-XP users, best first, at most limit entries.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 {
		limit = 1
	}
	zs, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			UserID:  id,
			TotalXP: int64(z.Score),
			Rank:    int64(i + 1),
		})
	}
	return entries, nil
}

// Rank returns the user's 1-based rank and XP, or (0, 0, nil) when the
// user is not ranked yet.
func (l *Leaderboard) Rank(ctx context.Context, userID uuid.UUID) (rank, totalXP int64, err error) {
	member := userID.String()

	r, err := l.client.ZRevRank(ctx, leaderboardKey, member).Result()
	if err == redis.Nil {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("zrevrank leaderboard: %w", err)
	}

	score, err := l.client.ZScore(ctx, leaderboardKey, member).Result()
	if err != nil && err != redis.Nil {
		return 0, 0, fmt.Errorf("zscore leaderboard: %w", err)
	}

	return r + 1, int64(score), nil
}
