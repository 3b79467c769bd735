// Package metrics provides Prometheus metrics for DayQuest.
// Counters, gauges and histograms for tasks, points, streaks, HTTP traffic
// and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TasksCreated tracks created tasks by difficulty.
var TasksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dayquest",
	Name:      "tasks_created_total",
	Help:      "Total tasks created.",
}, []string{"difficulty"})

// TasksCompleted tracks completed tasks by difficulty.
var TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dayquest",
	Name:      "tasks_completed_total",
	Help:      "Total completed tasks.",
}, []string{"difficulty"})

// TasksDeleted tracks deleted tasks by the status they had when deleted.
var TasksDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dayquest",
	Name:      "tasks_deleted_total",
	Help:      "Total deleted tasks by prior status.",
}, []string{"status"})

// ─── Points ─────────────────────────────────────────────────────────────────

// PointsAwarded tracks points granted on completion.
var PointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "dayquest",
	Name:      "points_awarded_total",
	Help:      "Total points awarded for completed tasks.",
})

// PointsRevoked tracks points taken back when completed tasks are deleted.
var PointsRevoked = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "dayquest",
	Name:      "points_revoked_total",
	Help:      "Total points revoked by deleting completed tasks.",
})

// PointsPerCompletion tracks the distribution of points per completed task.
var PointsPerCompletion = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "dayquest",
	Name:      "points_per_completion",
	Help:      "Points earned per completed task.",
	Buckets:   []float64{1, 2, 5, 10, 15, 25, 35, 50, 70, 100},
})

// ─── Streaks ────────────────────────────────────────────────────────────────

// StreakResets tracks streaks broken by a gap or by deletion.
var StreakResets = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dayquest",
	Name:      "streak_resets_total",
	Help:      "Total streak resets by cause.",
}, []string{"cause"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests tracks API requests by method and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dayquest",
	Name:      "http_requests_total",
	Help:      "Total HTTP requests by method and status.",
}, []string{"method", "status"})

// HTTPLatency tracks API request duration in seconds.
var HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "dayquest",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "dayquest",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// HealthRecoveries tracks auto-recovery attempts.
var HealthRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dayquest",
	Name:      "health_recoveries_total",
	Help:      "Total auto-recovery attempts per check.",
}, []string{"check"})
