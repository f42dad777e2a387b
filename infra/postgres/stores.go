// Package postgres provides the pgx-backed collaborators: fare rules, driver
// profiles, rolling driver stats and booking persistence.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tambula/dispatch/core/model"
	"github.com/tambula/dispatch/core/pricing"
)

// Config holds the connection settings.
type Config struct {
	DSN string `json:"dsn"`
}

// Stores bundles every pgx-backed collaborator over one shared pool.
type Stores struct {
	pool *pgxpool.Pool
}

// Connect opens the pool and pings it.
func Connect(ctx context.Context, cfg Config) (*Stores, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Stores{pool: pool}, nil
}

// NewWithPool wraps an existing pool, used by tests.
func NewWithPool(pool *pgxpool.Pool) *Stores {
	return &Stores{pool: pool}
}

// GetRule returns the fare rule for the service/class pair, or (nil, nil)
// when none is configured so the caller falls back to defaults.
func (s *Stores) GetRule(ctx context.Context, service model.ServiceType, vehicleClass string) (*pricing.FareRule, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT base_fare, per_km FROM pricing_rules
		 WHERE service_type = $1 AND vehicle_class = $2`,
		string(service), vehicleClass)
	var rule pricing.FareRule
	if err := row.Scan(&rule.BaseFare, &rule.PerKm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fare rule: %w", err)
	}
	return &rule, nil
}

// GetProfile loads the driver's rating, ride count and eligibility flags.
func (s *Stores) GetProfile(ctx context.Context, driverID string) (model.DriverProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT rating, total_rides, service_type, is_active, verification_status = 'verified'
		 FROM driver_profiles WHERE driver_id = $1`, driverID)
	var p model.DriverProfile
	var service string
	if err := row.Scan(&p.Rating, &p.TotalRides, &service, &p.IsActive, &p.Verified); err != nil {
		return model.DriverProfile{}, fmt.Errorf("profile %s: %w", driverID, err)
	}
	p.Service = model.ServiceType(service)
	return p, nil
}

// GetStats computes rolling acceptance/completion percentages over the
// window. Drivers without history get zero rows, reported as an error so the
// locator applies its documented defaults.
func (s *Stores) GetStats(ctx context.Context, driverID string, windowDays int) (model.DriverStats, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT
		   100.0 * count(*) FILTER (WHERE accepted) / count(*),
		   100.0 * count(*) FILTER (WHERE completed) / count(*)
		 FROM driver_ride_events
		 WHERE driver_id = $1 AND created_at > now() - make_interval(days => $2)
		 HAVING count(*) > 0`, driverID, windowDays)
	var st model.DriverStats
	if err := row.Scan(&st.AcceptanceRate, &st.CompletionRate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DriverStats{}, fmt.Errorf("no ride history for %s", driverID)
		}
		return model.DriverStats{}, fmt.Errorf("stats %s: %w", driverID, err)
	}
	return st, nil
}

// RecordAssignment persists the accepted assignment. Called at most once per
// dispatch cycle.
func (s *Stores) RecordAssignment(ctx context.Context, driverID, requestID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO assignments (request_id, driver_id, assigned_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (request_id) DO NOTHING`, requestID, driverID)
	if err != nil {
		return fmt.Errorf("record assignment: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Stores) Close() {
	s.pool.Close()
}
