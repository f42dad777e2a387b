package metrics

import (
	"time"

	"github.com/tambula/dispatch/core/model"
)

// DispatchEvent summarises one completed dispatch cycle.
type DispatchEvent struct {
	RequestID  string
	Service    model.ServiceType
	City       string
	Success    bool
	Reason     model.FailureReason
	Surge      float64
	PriceCDF   int64
	DriverKm   float64
	Offers     int
	Candidates int
	Latency    time.Duration
	Time       time.Time
}

// OfferEvent captures a single offer round-trip to a driver.
type OfferEvent struct {
	RequestID string
	DriverID  string
	Attempt   int
	Accepted  bool
	TimedOut  bool
	Latency   time.Duration
	Time      time.Time
}

// CandidateSearchEvent records one radius level of the progressive search.
type CandidateSearchEvent struct {
	RequestID string
	RadiusKm  float64
	Found     int
	Time      time.Time
}

// MetricsSink records dispatch telemetry. All methods are best effort: the
// engine logs sink errors and keeps going.
type MetricsSink interface {
	RecordDispatch(ev DispatchEvent) error
}

// OfferRecorder is implemented by sinks that track individual offers.
type OfferRecorder interface {
	RecordOffer(ev OfferEvent) error
}

// SearchRecorder is implemented by sinks that track radius search levels.
type SearchRecorder interface {
	RecordSearch(ev CandidateSearchEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordDispatch(DispatchEvent) error      { return nil }
func (NopSink) RecordOffer(OfferEvent) error            { return nil }
func (NopSink) RecordSearch(CandidateSearchEvent) error { return nil }
