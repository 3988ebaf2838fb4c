// Package engine implements the progression facade: the single entry point
// through which the application reads and mutates a user's energy, streak,
// and milestone claims. Every mutating command is one atomic transaction;
// per-user linearizability comes from the version column on
// user_progressions and the primary key on user_milestone_claims.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyloop/progression/internal/domain"
	"github.com/studyloop/progression/internal/repository"
)

// Clock is the time source for all time-based computations. Injected so
// tests can pin instants.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// LeaderboardUpdater receives XP totals after a successful claim. Updates
// are best-effort projections, never part of the claim transaction.
type LeaderboardUpdater interface {
	SetScore(ctx context.Context, userID uuid.UUID, totalXP int64) error
}

// Config holds the engine's tunable parameters.
type Config struct {
	Energy             domain.EnergyConfig
	ActivityWindowDays int // default 30
	MaxRetries         int // optimistic-concurrency retry bound, default 3
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Energy:             domain.DefaultEnergyConfig(),
		ActivityWindowDays: 30,
		MaxRetries:         3,
	}
}

// Engine composes the energy ledger, streak tracker, and milestone engine
// over one persisted progression record.
type Engine struct {
	pool         *pgxpool.Pool
	progressions repository.ProgressionRepository
	milestones   repository.MilestoneRepository
	claims       repository.ClaimRepository
	counters     repository.CounterRepository
	outbox       repository.OutboxRepository
	leaderboard  LeaderboardUpdater // optional
	cfg          Config
	clock        Clock
	logger       *slog.Logger
}

// New creates an engine with the given repositories. leaderboard may be nil.
func New(
	pool *pgxpool.Pool,
	progressions repository.ProgressionRepository,
	milestones repository.MilestoneRepository,
	claims repository.ClaimRepository,
	counters repository.CounterRepository,
	outbox repository.OutboxRepository,
	leaderboard LeaderboardUpdater,
	cfg Config,
	clock Clock,
	logger *slog.Logger,
) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Engine{
		pool:         pool,
		progressions: progressions,
		milestones:   milestones,
		claims:       claims,
		counters:     counters,
		outbox:       outbox,
		leaderboard:  leaderboard,
		cfg:          cfg,
		clock:        clock,
		logger:       logger,
	}
}

// EnsureProgression returns the user's progression record, creating the
// bootstrap row (full energy, streak 0, empty log) on first contact.
func (e *Engine) EnsureProgression(ctx context.Context, userID uuid.UUID) (*domain.UserProgression, error) {
	p, err := e.progressions.FindByUserID(ctx, e.pool, userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	fresh := domain.NewUserProgression(userID, e.cfg.Energy, e.clock.Now())
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin bootstrap: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := e.progressions.Create(ctx, tx, fresh)
	if err != nil {
		return nil, err
	}
	if created {
		if err := e.outbox.Insert(ctx, tx, domain.NewProgressionCreatedEvent(userID, fresh.EnergyMax)); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit bootstrap: %w", err)
	}

	if !created {
		// Lost a concurrent bootstrap race; the row exists now.
		return e.loadProgression(ctx, userID)
	}
	return fresh, nil
}

func (e *Engine) loadProgression(ctx context.Context, userID uuid.UUID) (*domain.UserProgression, error) {
	p, err := e.progressions.FindByUserID(ctx, e.pool, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound("progression", userID.String())
	}
	return p, nil
}

func (e *Engine) updateLeaderboard(ctx context.Context, userID uuid.UUID, totalXP int64) {
	if e.leaderboard == nil {
		return
	}
	if err := e.leaderboard.SetScore(ctx, userID, totalXP); err != nil {
		// Projection only; the claim already committed.
		e.logger.Warn("leaderboard update failed", "user_id", userID, "error", err)
	}
}
