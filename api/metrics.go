package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "timesheet"

// ClockOperationsTotal counts clock-in and clock-out attempts.
// Labels:
//   - op: "clock_in" or "clock_out"
//   - result: "ok" or the error code returned to the client
var ClockOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clock_operations_total",
		Help:      "Clock-in and clock-out attempts by outcome.",
	},
	[]string{"op", "result"},
)

// AdjustedHours observes the billable hours of each closed session.
var AdjustedHours = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "adjusted_hours",
		Help:      "Adjusted hours per closed session.",
		Buckets:   []float64{0.25, 0.5, 1, 1.5, 2, 2.5, 3, 4, 6},
	},
	[]string{"program"},
)
