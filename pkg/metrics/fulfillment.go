package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics records allocation and warehouse activity.
type FulfillmentMetrics struct {
	allocations  *prometheus.CounterVec
	fulfillments *prometheus.CounterVec
	receipts     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocations_total",
		Help: "Allocation attempts by outcome (full or partial).",
	}, []string{"outcome"})
	fulfillments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_fulfillments_total",
		Help: "Fulfilled allocations.",
	}, []string{"outcome"})
	receipts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_receipts_total",
		Help: "Purchase order line receipts.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engine_operation_duration_seconds",
		Help:    "Duration of engine operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(allocations, fulfillments, receipts, duration)
	return &FulfillmentMetrics{
		allocations:  allocations,
		fulfillments: fulfillments,
		receipts:     receipts,
		duration:     duration,
	}
}

// IncAllocation increments the allocation counter for the given outcome.
func (f *FulfillmentMetrics) IncAllocation(outcome string) {
	if f == nil || f.allocations == nil {
		return
	}
	f.allocations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncFulfillment increments the fulfillment counter for the given outcome.
func (f *FulfillmentMetrics) IncFulfillment(outcome string) {
	if f == nil || f.fulfillments == nil {
		return
	}
	f.fulfillments.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncReceipt increments the receipt counter for the given outcome.
func (f *FulfillmentMetrics) IncReceipt(outcome string) {
	if f == nil || f.receipts == nil {
		return
	}
	f.receipts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveDuration records the duration for the named operation.
func (f *FulfillmentMetrics) ObserveDuration(operation string, duration time.Duration) {
	if f == nil || f.duration == nil {
		return
	}
	f.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
