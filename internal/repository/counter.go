package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type counterRepo struct{}

// NewCounterRepository returns a pgx-backed CounterRepository.
func NewCounterRepository() CounterRepository {
	return &counterRepo{}
}

func (r *counterRepo) Value(ctx context.Context, db DBTX, userID uuid.UUID, kind string) (int, error) {
	var value int
	err := db.QueryRow(ctx, `
		SELECT value FROM user_counters
		WHERE user_id = $1 AND kind = $2`, userID, kind).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("query counter %s: %w", kind, err)
	}
	return value, nil
}

func (r *counterRepo) GroupCounters(ctx context.Context, db DBTX, userID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := db.Query(ctx, `
		SELECT group_id, current_count FROM user_group_counters
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("query group counters: %w", err)
	}
	defer rows.Close()

	counters := make(map[uuid.UUID]int)
	for rows.Next() {
		var groupID uuid.UUID
		var count int
		if err := rows.Scan(&groupID, &count); err != nil {
			return nil, fmt.Errorf("scan group counter: %w", err)
		}
		counters[groupID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group counters: %w", err)
	}
	return counters, nil
}
