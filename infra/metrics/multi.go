package metrics

import coremetrics "github.com/tambula/dispatch/core/metrics"

// MultiSink fans out dispatch events to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatch forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordOffer forwards offer events to sinks that track them.
func (m *MultiSink) RecordOffer(ev coremetrics.OfferEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.OfferRecorder); ok {
			if err := rec.RecordOffer(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSearch forwards search events to sinks that track them.
func (m *MultiSink) RecordSearch(ev coremetrics.CandidateSearchEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.SearchRecorder); ok {
			if err := rec.RecordSearch(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
