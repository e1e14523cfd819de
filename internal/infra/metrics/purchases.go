package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		purchasesTotal,
		purchaseDuration,
		bridgeConnections,
	)
}

var (
	purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Purchase attempts by plan and outcome (success/cancelled/failed/rejected).",
		},
		[]string{"plan", "outcome"},
	)

	// Includes the time the user spends in the host invoice UI.
	purchaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "purchase_duration_seconds",
			Help:    "Duration of purchase attempts in seconds.",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	bridgeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_connections",
			Help: "Number of host web views currently attached to the bridge socket.",
		},
	)
)

func ObservePurchase(planID, outcome string, elapsed time.Duration) {
	purchasesTotal.WithLabelValues(norm(planID), norm(outcome)).Inc()
	purchaseDuration.WithLabelValues(norm(outcome)).Observe(elapsed.Seconds())
}

func SetBridgeConnections(n int) {
	bridgeConnections.Set(float64(n))
}
