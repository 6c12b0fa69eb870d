package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uirecorder",
		Name:      "replay_steps_total",
		Help:      "Replayed steps by action and outcome.",
	}, []string{"action", "outcome"})
	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "uirecorder",
		Name:      "replay_step_duration_seconds",
		Help:      "Time spent on a single replayed step, waits included.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
	}, []string{"action"})
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uirecorder",
		Name:      "replay_runs_total",
		Help:      "Finished replay runs by final status.",
	}, []string{"status"})
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "uirecorder",
		Name:      "browser_sessions_active",
		Help:      "Browser sessions currently held by replays or recordings.",
	})
	actionsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uirecorder",
		Name:      "actions_ingested_total",
		Help:      "Recorded actions accepted by the ingest endpoint, by action type.",
	}, []string{"type"})
)

func ObserveStep(action, outcome string, d time.Duration) {
	stepsTotal.WithLabelValues(action, outcome).Inc()
	stepDuration.WithLabelValues(action).Observe(d.Seconds())
}

func RunFinished(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

func SessionOpened() {
	activeSessions.Inc()
}

func SessionClosed() {
	activeSessions.Dec()
}

func ActionIngested(actionType string) {
	actionsIngested.WithLabelValues(actionType).Inc()
}

// Handler exposes the default registry for gin.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
