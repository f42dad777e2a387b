// Package dispatch implements the real-time matching engine: progressive
// radius candidate search, weighted scoring, dynamic pricing and the bounded
// sequential-retry assignment protocol.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tambula/dispatch/core/events"
	"github.com/tambula/dispatch/core/geo"
	"github.com/tambula/dispatch/core/logger"
	"github.com/tambula/dispatch/core/metrics"
	"github.com/tambula/dispatch/core/model"
	"github.com/tambula/dispatch/core/pricing"
	"github.com/tambula/dispatch/internal/eventbus"
)

// maxAlternates bounds how many runner-up candidates a result carries.
const maxAlternates = 3

// Collaborators groups the external dependencies of the engine. Feed and
// Transport are required; the others degrade gracefully when nil.
type Collaborators struct {
	Feed      LocationFeed
	Profiles  ProfileStore
	Stats     StatsProvider
	Rules     pricing.RulesStore
	Counter   pricing.DemandSupplyCounter
	Transport OfferTransport
	Booking   BookingStore
}

// Engine runs dispatch cycles. Each call to Dispatch is an independent unit
// of work; concurrent cycles share only the read-mostly collaborators, so the
// engine itself needs no locking beyond the metrics window.
type Engine struct {
	resolver    *geo.Resolver
	locator     *Locator
	scorer      *Scorer
	pricer      *pricing.Engine
	coordinator *Coordinator
	window      *metrics.Window
	sink        metrics.MetricsSink
	bus         eventbus.EventBus
	log         logger.Logger
	cfg         Config
}

// NewEngine wires the engine from its collaborators. Constructed once per
// process; the collaborators replace the global singleton service the engine
// descends from.
func NewEngine(col Collaborators, cfg Config, priceCfg pricing.Config, zones []model.CityZone, log logger.Logger, sink metrics.MetricsSink, bus eventbus.EventBus) (*Engine, error) {
	if col.Feed == nil || col.Transport == nil {
		return nil, errNilCollaborator
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Engine{
		resolver:    geo.NewResolver(zones),
		locator:     NewLocator(col.Feed, col.Profiles, col.Stats, cfg, log, sink),
		scorer:      NewScorer(cfg.Scoring),
		pricer:      pricing.NewEngine(col.Rules, col.Counter, priceCfg, log),
		coordinator: NewCoordinator(col.Transport, col.Booking, cfg, log, sink, bus),
		window:      metrics.NewWindow(0),
		sink:        sink,
		bus:         bus,
		log:         log,
		cfg:         cfg,
	}, nil
}

// Dispatch executes one matching cycle and always returns a structured
// result: collaborator faults are absorbed into the documented failure
// taxonomy, never propagated.
func (e *Engine) Dispatch(ctx context.Context, req model.DispatchRequest) model.DispatchResult {
	start := time.Now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Priority == "" {
		req.Priority = model.PriorityNormal
	}
	if err := req.Validate(); err != nil {
		e.log.Warnf("rejected request %s: %v", req.ID, err)
		return e.finish(req, model.DispatchResult{
			RequestID: req.ID,
			Reason:    model.ReasonInvalidRequest,
		}, 0, start)
	}

	zone := e.resolver.Resolve(req.Pickup)
	result := model.DispatchResult{RequestID: req.ID, City: zone.City.Name}
	if zone.Landmark != nil {
		result.Landmark = zone.Landmark.Name
	}
	if e.bus != nil {
		e.bus.Publish(events.RequestEvent{Request: req, City: zone.City.Name})
	}
	e.log.Infof("dispatch %s: %s request near %s", req.ID, req.Service, zone.City.Name)

	// Pricing runs while the candidate search and scoring proceed. The quote
	// only depends on the request and the live demand counters.
	quoteCh := make(chan pricing.Quote, 1)
	go func() { quoteCh <- e.pricer.Quote(ctx, req) }()

	candidates, err := e.locator.Locate(ctx, req)
	if err != nil {
		result.Reason = model.ReasonFor(err)
		// Drain the quote so surge still lands in the result for reporting.
		quote := <-quoteCh
		result.Surge = quote.Surge
		result.EstimatedPrice = quote.Price
		return e.finish(req, result, 0, start)
	}
	ranked := e.scorer.Score(candidates, req, start)
	quote := <-quoteCh
	result.Surge = quote.Surge
	result.EstimatedPrice = quote.Price
	surgeObserved.Observe(quote.Surge)

	summary := OfferSummary{
		RequestID: req.ID,
		Service:   req.Service,
		Pickup:    req.Pickup,
		City:      zone.City.Name,
		Price:     quote.Price,
		Surge:     quote.Surge,
		Priority:  req.Priority,
	}
	asn := e.coordinator.Assign(ctx, req, ranked, summary)
	result.OfferAttempts = asn.Attempts

	switch asn.State {
	case StateAccepted:
		result.Success = true
		result.Driver = asn.Winner
		result.ArrivalMinutes = asn.Winner.ArrivalMinutes
		result.Alternates = alternates(ranked, asn.Winner.DriverID)
	case StateCancelled:
		result.Reason = model.ReasonCancelled
	default:
		result.Reason = model.ReasonAllOffersDeclined
	}
	return e.finish(req, result, len(candidates), start)
}

// Metrics reports the best-effort rolling aggregates for the given window.
func (e *Engine) Metrics(windowHours int) metrics.WindowStats {
	return e.window.Stats(windowHours)
}

// finish records telemetry for the cycle and returns the result.
func (e *Engine) finish(req model.DispatchRequest, res model.DispatchResult, candidates int, start time.Time) model.DispatchResult {
	outcome := "success"
	if !res.Success {
		outcome = string(res.Reason)
	}
	elapsed := time.Since(start)
	service := string(req.Service)
	cyclesTotal.WithLabelValues(service, outcome).Inc()
	cycleLatency.WithLabelValues(service, outcome).Observe(elapsed.Seconds())

	ev := metrics.DispatchEvent{
		RequestID:  res.RequestID,
		Service:    req.Service,
		City:       res.City,
		Success:    res.Success,
		Reason:     res.Reason,
		Surge:      res.Surge,
		PriceCDF:   res.EstimatedPrice,
		Offers:     res.OfferAttempts,
		Candidates: candidates,
		Latency:    elapsed,
		Time:       time.Now(),
	}
	if res.Driver != nil {
		ev.DriverKm = res.Driver.DistanceKm
	}
	_ = e.window.RecordDispatch(ev)
	if err := e.sink.RecordDispatch(ev); err != nil {
		e.log.Errorf("metrics sink error: %v", err)
	}
	if e.bus != nil {
		ae := events.AssignmentEvent{
			RequestID: res.RequestID,
			Success:   res.Success,
			Reason:    res.Reason,
			Attempts:  res.OfferAttempts,
		}
		if res.Driver != nil {
			ae.DriverID = res.Driver.DriverID
		}
		e.bus.Publish(ae)
	}
	return res
}

// alternates returns up to maxAlternates runner-up candidates.
func alternates(ranked []model.DriverCandidate, winnerID string) []model.DriverCandidate {
	var out []model.DriverCandidate
	for _, c := range ranked {
		if c.DriverID == winnerID {
			continue
		}
		out = append(out, c)
		if len(out) == maxAlternates {
			break
		}
	}
	return out
}
