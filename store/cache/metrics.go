package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timesheet",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Dataset reads served from the cache.",
	}, []string{"dataset"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timesheet",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Dataset reads that went to the row store.",
	}, []string{"dataset"})
)
