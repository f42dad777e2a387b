package model

import "errors"

// Failure reasons returned inside a DispatchResult. A dispatch cycle resolves
// every collaborator fault into one of these; it never surfaces a raw error.
var (
	ErrNoCandidates      = errors.New("no driver available in zone")
	ErrAllOffersDeclined = errors.New("all offers declined")
	ErrCancelled         = errors.New("dispatch cancelled")
	ErrUnknownService    = errors.New("unknown service type")
	ErrInvalidCoordinate = errors.New("coordinate out of range")
)

// FailureReason is the wire-level error taxonomy.
type FailureReason string

const (
	ReasonNone              FailureReason = ""
	ReasonNoCandidatesFound FailureReason = "no_candidates_found"
	ReasonAllOffersDeclined FailureReason = "all_offers_declined"
	ReasonCancelled         FailureReason = "cancelled"
	ReasonInvalidRequest    FailureReason = "invalid_request"
)

// ReasonFor maps a taxonomy error to its wire representation.
func ReasonFor(err error) FailureReason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrNoCandidates):
		return ReasonNoCandidatesFound
	case errors.Is(err, ErrAllOffersDeclined):
		return ReasonAllOffersDeclined
	case errors.Is(err, ErrCancelled):
		return ReasonCancelled
	default:
		return ReasonInvalidRequest
	}
}

// DispatchResult is the outcome of one dispatch cycle.
type DispatchResult struct {
	RequestID      string            `json:"request_id"`
	Success        bool              `json:"success"`
	Driver         *DriverCandidate  `json:"assigned_driver,omitempty"`
	Alternates     []DriverCandidate `json:"alternates,omitempty"`
	EstimatedPrice int64             `json:"estimated_price"`
	ArrivalMinutes int               `json:"estimated_arrival_minutes"`
	Surge          float64           `json:"surge_multiplier"`
	City           string            `json:"city"`
	Landmark       string            `json:"landmark,omitempty"`
	OfferAttempts  int               `json:"offer_attempts"`
	Reason         FailureReason     `json:"error,omitempty"`
}
