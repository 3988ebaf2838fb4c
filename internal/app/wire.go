// Package app assembles the HTTP router from configuration and shared
// infrastructure handles.
package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/studyloop/progression/internal/auth"
	"github.com/studyloop/progression/internal/cache"
	"github.com/studyloop/progression/internal/domain"
	"github.com/studyloop/progression/internal/engine"
	"github.com/studyloop/progression/internal/guard"
	"github.com/studyloop/progression/internal/handler"
	"github.com/studyloop/progression/internal/infra"
	"github.com/studyloop/progression/internal/repository"
)

// RouterDeps carries everything the router needs. Redis may be nil; the
// leaderboard endpoints degrade to 500 and claims skip the projection.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	JWTMgr *auth.JWTManager
	Config *infra.Config
	Logger *slog.Logger
	Clock  engine.Clock
}

// NewRouter wires repositories, the progression engine, and handlers into
// a chi router.
func NewRouter(deps RouterDeps) chi.Router {
	progressions := repository.NewProgressionRepository()
	milestones := repository.NewMilestoneRepository()
	claims := repository.NewClaimRepository()
	counters := repository.NewCounterRepository()
	outbox := repository.NewOutboxRepository()

	var leaderboard *cache.Leaderboard
	var updater engine.LeaderboardUpdater
	if deps.Redis != nil {
		leaderboard = cache.NewLeaderboard(deps.Redis)
		updater = leaderboard
	}

	engineCfg := engine.Config{
		Energy: domain.EnergyConfig{
			Max:           deps.Config.EnergyMax,
			RegenInterval: deps.Config.EnergyRegenInterval,
			RegenAmount:   1,
		},
		ActivityWindowDays: deps.Config.ActivityWindowDays,
		MaxRetries:         3,
	}
	eng := engine.New(deps.Pool, progressions, milestones, claims, counters, outbox,
		updater, engineCfg, deps.Clock, deps.Logger)

	progressionHandler := handler.NewProgressionHandler(eng, leaderboard, deps.Config.LeaderboardSize)
	adminHandler := handler.NewAdminHandler(deps.Pool, milestones)
	limiter := guard.NewRateLimiter(30, time.Minute)

	r := chi.NewRouter()
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(deps.Logger))
	r.Use(handler.Metrics)
	r.Use(handler.Recovery(deps.Logger))
	r.Use(handler.CORS)
	r.Use(handler.JSONContentType)

	r.Get("/health", handler.HealthHandler(deps.Pool))
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/progression", func(r chi.Router) {
		r.Use(auth.AuthenticateUser(deps.JWTMgr))

		r.Get("/me", progressionHandler.GetMe)
		r.Get("/milestones", progressionHandler.ListMilestones)
		r.Get("/leaderboard", progressionHandler.Leaderboard)

		r.Group(func(r chi.Router) {
			r.Use(handler.RateLimit(limiter))
			r.Post("/energy/consume", progressionHandler.ConsumeEnergy)
			r.Post("/activity", progressionHandler.RecordActivity)
			r.Post("/milestones/{id}/claim", progressionHandler.ClaimMilestone)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(deps.JWTMgr))

		r.Get("/milestone-groups", adminHandler.ListGroups)
		r.Post("/milestone-groups", adminHandler.CreateGroup)
		r.Post("/milestone-groups/{id}/milestones", adminHandler.CreateMilestone)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		handler.RespondJSON(w, http.StatusNotFound, map[string]string{
			"code":    "NOT_FOUND",
			"message": "route not found",
		})
	})

	return r
}
