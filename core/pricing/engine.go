// Package pricing computes fare quotes with a demand-driven surge multiplier.
// Missing rules or telemetry never fail a quote: documented defaults apply.
package pricing

import (
	"context"
	"math"
	"time"

	"github.com/tambula/dispatch/core/geo"
	"github.com/tambula/dispatch/core/logger"
	"github.com/tambula/dispatch/core/model"
)

// Quote is a price estimate for one dispatch request.
type Quote struct {
	Price     int64
	Surge     float64
	TripKm    float64
	UsedRule  bool
	DefaultKm bool
}

// Engine computes quotes. The surge multiplier is recomputed on every call
// and never cached.
type Engine struct {
	rules   RulesStore
	counter DemandSupplyCounter
	cfg     Config
	log     logger.Logger
}

// NewEngine builds a pricing engine. rules and counter may be nil; quotes
// then always use the configured defaults.
func NewEngine(rules RulesStore, counter DemandSupplyCounter, cfg Config, log logger.Logger) *Engine {
	cfg.SetDefaults()
	return &Engine{rules: rules, counter: counter, cfg: cfg, log: log}
}

// Quote prices the request. Trip distance is haversine pickup→destination,
// or DefaultTripKm when no destination was supplied.
func (e *Engine) Quote(ctx context.Context, req model.DispatchRequest) Quote {
	q := Quote{TripKm: e.cfg.DefaultTripKm, DefaultKm: true}
	if req.Destination != nil {
		q.TripKm = geo.DistanceKm(req.Pickup, *req.Destination)
		q.DefaultKm = false
	}

	base, perKm := e.cfg.DefaultBaseFare, e.cfg.DefaultPerKm
	if e.rules != nil {
		rctx, cancel := context.WithTimeout(ctx, e.lookupTimeout())
		rule, err := e.rules.GetRule(rctx, req.Service, req.VehicleClass)
		cancel()
		switch {
		case err != nil:
			e.log.Warnf("fare rule lookup failed, using defaults: %v", err)
		case rule != nil:
			base, perKm = rule.BaseFare, rule.PerKm
			q.UsedRule = true
		}
	}

	q.Surge = e.surge(ctx, req.Priority)
	q.Price = int64(math.Round((float64(base) + q.TripKm*float64(perKm)) * q.Surge))
	return q
}

// surge fetches demand and supply counts and maps them to a multiplier.
// Counter failures fall back to 1.0 so pricing never sinks a dispatch.
func (e *Engine) surge(ctx context.Context, priority model.Priority) float64 {
	if e.counter == nil {
		return e.cfg.MinSurge
	}
	cctx, cancel := context.WithTimeout(ctx, e.lookupTimeout())
	defer cancel()

	demand, err := e.counter.ActiveDemand(cctx, e.cfg.DemandWindowMinutes)
	if err != nil {
		e.log.Warnf("demand count unavailable, surge 1.0: %v", err)
		return e.cfg.MinSurge
	}
	supply, err := e.counter.AvailableSupply(cctx)
	if err != nil {
		e.log.Warnf("supply count unavailable, surge 1.0: %v", err)
		return e.cfg.MinSurge
	}
	return e.SurgeMultiplier(demand, supply, priority)
}

func (e *Engine) lookupTimeout() time.Duration {
	return time.Duration(e.cfg.LookupTimeoutSeconds) * time.Second
}
