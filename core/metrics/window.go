package metrics

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// WindowStats is the best-effort aggregate reported by the engine.
type WindowStats struct {
	WindowHours    int     `json:"window_hours"`
	Dispatches     int     `json:"dispatches"`
	SuccessRate    float64 `json:"success_rate"`
	AvgLatencyMs   float64 `json:"avg_assignment_latency_ms"`
	AvgDriverKm    float64 `json:"avg_driver_distance_km"`
	SurgeFrequency float64 `json:"surge_frequency"`
}

// Window keeps a bounded in-memory history of dispatch events and aggregates
// them on demand. It is a MetricsSink itself so the engine can feed it next to
// the external sinks.
type Window struct {
	mu     sync.Mutex
	events []DispatchEvent
	max    int
}

// NewWindow creates a window retaining at most max events. Zero means a
// default of 10000.
func NewWindow(max int) *Window {
	if max <= 0 {
		max = 10000
	}
	return &Window{max: max}
}

// RecordDispatch appends the event, evicting the oldest beyond capacity.
func (w *Window) RecordDispatch(ev DispatchEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, ev)
	if len(w.events) > w.max {
		w.events = w.events[len(w.events)-w.max:]
	}
	return nil
}

// Stats aggregates events newer than the window. Success rate counts accepted
// assignments; surge frequency counts cycles priced above 1.0.
func (w *Window) Stats(windowHours int) WindowStats {
	if windowHours <= 0 {
		windowHours = 24
	}
	cutoff := time.Now().Add(-time.Duration(windowHours) * time.Hour)

	w.mu.Lock()
	defer w.mu.Unlock()

	var (
		latencies []float64
		distances []float64
		successes int
		surged    int
		total     int
	)
	for _, ev := range w.events {
		if ev.Time.Before(cutoff) {
			continue
		}
		total++
		if ev.Success {
			successes++
			latencies = append(latencies, float64(ev.Latency.Milliseconds()))
			distances = append(distances, ev.DriverKm)
		}
		if ev.Surge > 1.0 {
			surged++
		}
	}

	out := WindowStats{WindowHours: windowHours, Dispatches: total}
	if total == 0 {
		return out
	}
	out.SuccessRate = float64(successes) / float64(total)
	out.SurgeFrequency = float64(surged) / float64(total)
	if len(latencies) > 0 {
		out.AvgLatencyMs = stat.Mean(latencies, nil)
		out.AvgDriverKm = stat.Mean(distances, nil)
	}
	return out
}
