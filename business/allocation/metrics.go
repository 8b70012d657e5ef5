package allocation

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeAssigned  = "assigned"
	outcomeExhausted = "exhausted"
)

var (
	acquireTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocation_acquire_total",
			Help: "Count of allocation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	reclaimedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "allocation_reservations_reclaimed_total",
			Help: "Count of reservations reclaimed after the 10-minute timeout.",
		},
	)
)

func init() {
	prometheus.MustRegister(acquireTotal, reclaimedTotal)
}
