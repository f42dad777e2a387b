package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cycleLatency  *prometheus.HistogramVec
	cyclesTotal   *prometheus.CounterVec
	offersSent    prometheus.Counter
	offerLatency  prometheus.Histogram
	surgeObserved prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Histogram, prometheus.Histogram) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_cycle_latency_seconds",
			Help:    "End-to-end latency of a dispatch cycle",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service_type", "outcome"},
	)
	cycles := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_cycles_total",
			Help: "Number of dispatch cycles by outcome",
		},
		[]string{"service_type", "outcome"},
	)
	offers := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_offers_sent_total",
			Help: "Number of offers sent to drivers",
		},
	)
	offerLat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_offer_latency_seconds",
			Help:    "Latency of one offer round-trip to a driver",
			Buckets: prometheus.DefBuckets,
		},
	)
	surge := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_surge_multiplier",
			Help:    "Surge multiplier applied to quotes",
			Buckets: []float64{1.0, 1.2, 1.5, 2.0, 2.5, 3.0},
		},
	)
	return lat, cycles, offers, offerLat, surge
}

func init() {
	cycleLatency, cyclesTotal, offersSent, offerLatency, surgeObserved = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(cycleLatency, cyclesTotal, offersSent, offerLatency, surgeObserved)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	cycleLatency, cyclesTotal, offersSent, offerLatency, surgeObserved = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
