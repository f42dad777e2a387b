package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/tambula/dispatch/core/metrics"
)

// PromSink records dispatch events in Prometheus metrics. The engine also
// registers its own package-level collectors; this sink adds the per-city
// and per-outcome views used by dashboards.
type PromSink struct {
	dispatches *prometheus.CounterVec
	offers     *prometheus.CounterVec
	searched   *prometheus.HistogramVec
}

// NewPromSink registers on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_results_total",
		Help: "Dispatch cycles by city, service type and outcome",
	}, []string{"city", "service_type", "success"})
	offers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "driver_offers_total",
		Help: "Offers by acceptance and timeout status",
	}, []string{"accepted", "timed_out"})
	searched := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "candidate_search_found",
		Help:    "Candidates found per radius level",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
	}, []string{"radius_km"})

	for _, c := range []prometheus.Collector{dispatches, offers, searched} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return &PromSink{dispatches: dispatches, offers: offers, searched: searched}, nil
}

// RecordDispatch increments the outcome counter for the cycle.
func (s *PromSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	s.dispatches.WithLabelValues(ev.City, string(ev.Service), strconv.FormatBool(ev.Success)).Inc()
	return nil
}

// RecordOffer counts one offer round-trip.
func (s *PromSink) RecordOffer(ev coremetrics.OfferEvent) error {
	s.offers.WithLabelValues(strconv.FormatBool(ev.Accepted), strconv.FormatBool(ev.TimedOut)).Inc()
	return nil
}

// RecordSearch observes the candidate count at one radius level.
func (s *PromSink) RecordSearch(ev coremetrics.CandidateSearchEvent) error {
	s.searched.WithLabelValues(strconv.FormatFloat(ev.RadiusKm, 'f', -1, 64)).Observe(float64(ev.Found))
	return nil
}
