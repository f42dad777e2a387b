package dispatch

import (
	"context"

	"github.com/tambula/dispatch/core/model"
)

// LocationFeed is the live driver position feed. Query returns the drivers
// currently online and available for the given service type. The feed is
// eventually consistent; stale pings are penalised by the recency score, not
// rejected here.
type LocationFeed interface {
	QueryOnlineAvailable(ctx context.Context, service model.ServiceType) ([]model.DriverLocation, error)
}

// ProfileStore returns the slow-moving driver attributes used for scoring and
// eligibility gating.
type ProfileStore interface {
	GetProfile(ctx context.Context, driverID string) (model.DriverProfile, error)
}

// StatsProvider returns rolling acceptance/completion rates. Callers fall
// back to documented defaults when it errors.
type StatsProvider interface {
	GetStats(ctx context.Context, driverID string, windowDays int) (model.DriverStats, error)
}

// OfferSummary is the payload a driver sees when offered a request.
type OfferSummary struct {
	RequestID   string            `json:"request_id"`
	Service     model.ServiceType `json:"service_type"`
	Pickup      model.Coordinate  `json:"pickup"`
	City        string            `json:"city"`
	Price       int64             `json:"estimated_price"`
	Surge       float64           `json:"surge_multiplier"`
	Priority    model.Priority    `json:"priority"`
	PickupKm    float64           `json:"pickup_distance_km"`
	ArrivalMins int               `json:"estimated_arrival_minutes"`
}

// OfferTransport delivers a synchronous offer to one driver. An error is
// treated as a decline; cross-cycle accept-once exclusivity is the
// transport's responsibility.
type OfferTransport interface {
	SendOffer(ctx context.Context, driverID string, summary OfferSummary) (accepted bool, err error)
}

// BookingStore persists the final assignment. Called at most once per cycle,
// only on acceptance.
type BookingStore interface {
	RecordAssignment(ctx context.Context, driverID, requestID string) error
}

// ErrOfferTimeout is returned by transports when the driver did not respond
// within the offer timeout. It consumes a retry slot like a decline.
type timeoutError struct{}

func (timeoutError) Error() string   { return "offer timed out" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var ErrOfferTimeout error = timeoutError{}

// IsTimeout reports whether the error carries timeout semantics.
func IsTimeout(err error) bool {
	type to interface{ Timeout() bool }
	if t, ok := err.(to); ok {
		return t.Timeout()
	}
	return false
}
