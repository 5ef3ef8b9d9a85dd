package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formbuilder_operations_total",
			Help: "Total number of form editing operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formbuilder_operation_duration_seconds",
			Help:    "Duration of form editing operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	PageBreaksDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "formbuilder_page_breaks_dropped_total",
			Help: "Page breaks deleted because a question change invalidated them",
		},
	)

	OrdersRepaired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "formbuilder_orders_repaired_total",
			Help: "Question orders rewritten to restore a contiguous sequence",
		},
	)

	ActiveEditors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "formbuilder_active_editors",
			Help: "Number of editors connected to form editing sessions",
		},
	)
)
