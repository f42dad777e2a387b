package model

import "time"

// DriverLocation is one row of the live location feed: a driver currently
// online and available, with their last reported position.
type DriverLocation struct {
	DriverID     string
	Position     Coordinate
	VehicleClass string
	Service      ServiceType
	LastPing     time.Time
}

// DriverProfile holds the slow-moving attributes of a driver.
type DriverProfile struct {
	Rating     float64 // 0..5
	TotalRides int
	Service    ServiceType
	IsActive   bool
	Verified   bool
}

// DriverStats carries rolling acceptance and completion rates in percent.
type DriverStats struct {
	AcceptanceRate float64
	CompletionRate float64
}

// DriverCandidate is a driver considered eligible for one dispatch cycle,
// enriched with profile and stats data and the computed ranking score.
// Candidates are ephemeral: rebuilt from the live feed on every cycle.
type DriverCandidate struct {
	DriverID       string      `json:"driver_id"`
	Position       Coordinate  `json:"position"`
	DistanceKm     float64     `json:"distance_km"`
	Rating         float64     `json:"rating"`
	TotalRides     int         `json:"total_rides"`
	VehicleClass   string      `json:"vehicle_class"`
	Service        ServiceType `json:"service_type"`
	LastPing       time.Time   `json:"last_ping"`
	AcceptanceRate float64     `json:"acceptance_rate"`
	CompletionRate float64     `json:"completion_rate"`
	ArrivalMinutes int         `json:"arrival_minutes"`
	Score          float64     `json:"score"`
}
