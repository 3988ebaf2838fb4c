package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the progression engine. Registered on the default
// registry; served from GET /metrics.
var (
	EnergyConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "progression_energy_consumed_total",
		Help: "Total energy units consumed across all users.",
	})

	StreakRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "progression_streak_days_recorded_total",
		Help: "Total counted activity days (same-day no-ops excluded).",
	})

	MilestonesClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "progression_milestones_claimed_total",
		Help: "Total successful milestone claims.",
	})

	VersionConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "progression_version_conflicts_total",
		Help: "Optimistic-concurrency conflicts retried, by command.",
	}, []string{"command"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "progression_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)
