package model

import "time"

// ServiceType identifies the kind of service a dispatch request targets.
type ServiceType string

const (
	ServiceTransport   ServiceType = "transport"
	ServiceDelivery    ServiceType = "delivery"
	ServiceMarketplace ServiceType = "marketplace"

	// ServiceAll marks a driver willing to take any request type.
	ServiceAll ServiceType = "all"
)

// Priority expresses how urgent a request is. Urgent requests influence both
// scoring and surge pricing.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DispatchRequest describes a single incoming transport or delivery request.
// Destination is optional; pricing falls back to a default trip distance when
// it is absent.
type DispatchRequest struct {
	ID            string      `json:"id"`
	CustomerID    string      `json:"customer_id"`
	Pickup        Coordinate  `json:"pickup"`
	Destination   *Coordinate `json:"destination,omitempty"`
	Service       ServiceType `json:"service_type"`
	VehicleClass  string      `json:"vehicle_class,omitempty"`
	Priority      Priority    `json:"priority"`
	MaxDistanceKm float64     `json:"max_distance_km,omitempty"`
	RequestedAt   time.Time   `json:"requested_at"`
}

// Compatible reports whether a driver registered for the given service type
// may serve this request.
func (r DispatchRequest) Compatible(driverService ServiceType) bool {
	return driverService == ServiceAll || driverService == r.Service
}

// Validate checks the minimal fields required to run a dispatch cycle.
func (r DispatchRequest) Validate() error {
	if r.Service != ServiceTransport && r.Service != ServiceDelivery && r.Service != ServiceMarketplace {
		return ErrUnknownService
	}
	if r.Pickup.Lat < -90 || r.Pickup.Lat > 90 || r.Pickup.Lng < -180 || r.Pickup.Lng > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}
