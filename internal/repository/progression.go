package repository

import (
	"fmt"
	"time"

	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studyloop/progression/internal/domain"
)

type progressionRepo struct{}

// NewProgressionRepository returns a pgx-backed ProgressionRepository.
func NewProgressionRepository() ProgressionRepository {
	return &progressionRepo{}
}

const progressionColumns = `user_id, energy_current, energy_max, energy_last_replenish_at,
	streak_count, last_activity_date, activity_log, total_xp, active_title,
	version, created_at, updated_at`

func (r *progressionRepo) FindByUserID(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.UserProgression, error) {
	row := db.QueryRow(ctx, `
		SELECT `+progressionColumns+`
		FROM user_progressions WHERE user_id = $1`, userID)
	return scanProgression(row)
}

func (r *progressionRepo) Create(ctx context.Context, db DBTX, p *domain.UserProgression) (bool, error) {
	tag, err := db.Exec(ctx, `
		INSERT INTO user_progressions
			(user_id, energy_current, energy_max, energy_last_replenish_at,
			 streak_count, last_activity_date, activity_log, total_xp, active_title,
			 version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULL, $6, 0, NULL, 1, $7, $7)
		ON CONFLICT (user_id) DO NOTHING`,
		p.UserID, p.EnergyCurrent, p.EnergyMax, p.EnergyLastReplenishAt,
		p.StreakCount, datesToTimes(p.ActivityLog), p.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert progression: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *progressionRepo) UpdateEnergy(ctx context.Context, db DBTX, userID uuid.UUID, current int, lastReplenishAt time.Time, expectedVersion int64) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE user_progressions
		SET energy_current = $1, energy_last_replenish_at = $2,
		    version = version + 1, updated_at = now()
		WHERE user_id = $3 AND version = $4`,
		current, lastReplenishAt, userID, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("update energy: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *progressionRepo) UpdateStreak(ctx context.Context, db DBTX, userID uuid.UUID, count int, lastDate domain.LocalDate, log []domain.LocalDate, expectedVersion int64) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE user_progressions
		SET streak_count = $1, last_activity_date = $2, activity_log = $3,
		    version = version + 1, updated_at = now()
		WHERE user_id = $4 AND version = $5`,
		count, lastDate.Time(), datesToTimes(log), userID, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("update streak: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *progressionRepo) AddReward(ctx context.Context, tx pgx.Tx, userID uuid.UUID, xp int, title *string) (int64, error) {
	var total int64
	var err error
	if title != nil {
		err = tx.QueryRow(ctx, `
			UPDATE user_progressions
			SET total_xp = total_xp + $1, active_title = $2,
			    version = version + 1, updated_at = now()
			WHERE user_id = $3
			RETURNING total_xp`, xp, *title, userID).Scan(&total)
	} else {
		err = tx.QueryRow(ctx, `
			UPDATE user_progressions
			SET total_xp = total_xp + $1,
			    version = version + 1, updated_at = now()
			WHERE user_id = $2
			RETURNING total_xp`, xp, userID).Scan(&total)
	}
	if err != nil {
		return 0, fmt.Errorf("add reward: %w", err)
	}
	return total, nil
}

func scanProgression(row pgx.Row) (*domain.UserProgression, error) {
	var p domain.UserProgression
	var lastDate *time.Time
	var log []time.Time

	err := row.Scan(
		&p.UserID, &p.EnergyCurrent, &p.EnergyMax, &p.EnergyLastReplenishAt,
		&p.StreakCount, &lastDate, &log, &p.TotalXP, &p.ActiveTitle,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan progression: %w", err)
	}

	if lastDate != nil {
		d := domain.DateOf(lastDate.UTC())
		p.LastActivityDate = &d
	}
	p.ActivityLog = timesToDates(log)
	return &p, nil
}

func datesToTimes(dates []domain.LocalDate) []time.Time {
	out := make([]time.Time, len(dates))
	for i, d := range dates {
		out[i] = d.Time()
	}
	return out
}

func timesToDates(times []time.Time) []domain.LocalDate {
	out := make([]domain.LocalDate, len(times))
	for i, t := range times {
		out[i] = domain.DateOf(t.UTC())
	}
	return out
}
