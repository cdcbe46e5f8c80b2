package controllers

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	binderyControllerReconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bindery_controller_reconcile_total",
			Help: "Number of reconciliations by controller.",
		},
		[]string{"controller"},
	)
	binderyControllerReconcileErrorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bindery_controller_reconcile_error_total",
			Help: "Number of reconciliation errors by controller.",
		},
		[]string{"controller"},
	)

	resolutionOutcomeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bindery_resolution_outcome_total",
			Help: "Number of resolution sessions by outcome.",
		},
		[]string{"outcome"},
	)

	resolutionUnresolvedRequired = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bindery_resolution_unresolved_required",
			Help: "Number of unresolved mandatory requirements observed in the last reconcile of a Resolution.",
		},
		[]string{"namespace", "name"},
	)

	resolutionBacktracksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bindery_resolution_backtracks_total",
			Help: "Total number of backtracks performed by resolution sessions.",
		},
	)
	resolutionCallbackInvocationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bindery_resolution_callback_invocations_total",
			Help: "Total number of candidate selection callback invocations.",
		},
	)

	resolutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bindery_resolution_duration_seconds",
			Help:    "Time taken to resolve a Resolution.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	metrics.Registry.MustRegister(
		binderyControllerReconcileTotal,
		binderyControllerReconcileErrorTotal,
		resolutionOutcomeTotal,
		resolutionUnresolvedRequired,
		resolutionBacktracksTotal,
		resolutionCallbackInvocationsTotal,
		resolutionDuration,
	)
}
