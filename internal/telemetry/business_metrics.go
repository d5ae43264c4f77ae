package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability
// of the pricing and invoicing engine.
type BusinessMetrics struct {
	// Pricing
	PriceResolutions *prometheus.CounterVec
	RulesCreated     prometheus.Counter
	RulesDeactivated prometheus.Counter

	// Invoicing
	InvoicesGenerated   prometheus.Counter
	InvoiceConflicts    prometheus.Counter
	InvoiceTransitions  *prometheus.CounterVec
	InvoicesMarkedLate  prometheus.Counter
	InvoiceTotal        prometheus.Histogram
	RejectedTransitions prometheus.Counter
}

// NewBusinessMetrics creates and registers all business metrics.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "crucible"
	}

	subsystem := "business"

	return &BusinessMetrics{
		PriceResolutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "price_resolutions_total",
				Help:      "Total price resolutions",
			},
			[]string{"discounted"}, // "true" when a rule applied
		),
		RulesCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pricing_rules_created_total",
				Help:      "Total pricing rules created",
			},
		),
		RulesDeactivated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pricing_rules_deactivated_total",
				Help:      "Total pricing rules deactivated",
			},
		),
		InvoicesGenerated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_generated_total",
				Help:      "Total invoices generated from paid orders",
			},
		),
		InvoiceConflicts: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_conflicts_total",
				Help:      "Total duplicate-invoice attempts rejected",
			},
		),
		InvoiceTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_transitions_total",
				Help:      "Total invoice lifecycle transitions",
			},
			[]string{"from", "to"},
		),
		InvoicesMarkedLate: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_marked_overdue_total",
				Help:      "Total invoices moved to overdue by the sweep",
			},
		),
		InvoiceTotal: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_total_cents",
				Help:      "Distribution of generated invoice totals in cents",
				Buckets:   prometheus.ExponentialBuckets(1000, 10, 8),
			},
		),
		RejectedTransitions: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_transitions_rejected_total",
				Help:      "Total invalid lifecycle transition requests",
			},
		),
	}
}
