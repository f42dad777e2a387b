// Package events defines the lifecycle events published on the internal bus
// during a dispatch cycle.
package events

import (
	"time"

	"github.com/tambula/dispatch/core/model"
)

// RequestEvent is published when a dispatch cycle starts.
type RequestEvent struct {
	Request model.DispatchRequest
	City    string
}

// OfferEvent is published after each offer round-trip.
type OfferEvent struct {
	RequestID string
	DriverID  string
	Attempt   int
	Accepted  bool
	TimedOut  bool
	Latency   time.Duration
	Err       error
}

// AssignmentEvent is published when a cycle reaches a terminal state.
type AssignmentEvent struct {
	RequestID string
	DriverID  string
	Success   bool
	Reason    model.FailureReason
	Attempts  int
}
