package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(storeReadsTotal) }

var storeReadsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "store_reads_total",
		Help: "Local persistence reads by driver and result (hit, miss, corrupt).",
	},
	[]string{"driver", "result"},
)

func IncStoreRead(driver, result string) {
	storeReadsTotal.WithLabelValues(norm(driver), norm(result)).Inc()
}
