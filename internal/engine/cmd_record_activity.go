package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/studyloop/progression/internal/domain"
	"github.com/studyloop/progression/internal/infra"
)

// RecordActivity counts an activity on the user's local calendar day.
// Same-day repeats are no-ops, yesterday extends the streak, anything else
// resets it to 1. The whole transition is one version-guarded
// read-modify-write so back-to-back activities cannot double-increment.
func (e *Engine) RecordActivity(ctx context.Context, userID uuid.UUID, today domain.LocalDate) (domain.StreakView, error) {
	if today.IsZero() {
		return domain.StreakView{}, domain.ErrValidation("local date is required")
	}

	for attempt := 0; attempt < e.cfg.MaxRetries; attempt++ {
		p, err := e.EnsureProgression(ctx, userID)
		if err != nil {
			return domain.StreakView{}, err
		}

		tr := domain.NextStreak(p.StreakCount, p.LastActivityDate, today)
		if !tr.Counted {
			// Already counted today; nothing to persist.
			return domain.StreakView{Count: p.StreakCount, LastActivityDate: p.LastActivityDate, ActivityLog: p.ActivityLog}, nil
		}

		log := domain.AppendActivity(p.ActivityLog, today, e.cfg.ActivityWindowDays)

		tx, err := e.pool.Begin(ctx)
		if err != nil {
			return domain.StreakView{}, fmt.Errorf("begin record activity: %w", err)
		}

		ok, err := e.progressions.UpdateStreak(ctx, tx, userID, tr.Count, today, log, p.Version)
		if err != nil {
			tx.Rollback(ctx)
			return domain.StreakView{}, err
		}
		if !ok {
			tx.Rollback(ctx)
			infra.VersionConflicts.WithLabelValues("record_activity").Inc()
			continue
		}

		if err := e.outbox.Insert(ctx, tx, domain.NewStreakRecordedEvent(userID, today, tr.Count)); err != nil {
			tx.Rollback(ctx)
			return domain.StreakView{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return domain.StreakView{}, fmt.Errorf("commit record activity: %w", err)
		}

		infra.StreakRecorded.Inc()
		day := today
		return domain.StreakView{Count: tr.Count, LastActivityDate: &day, ActivityLog: log}, nil
	}

	return domain.StreakView{}, domain.ErrRetry()
}
