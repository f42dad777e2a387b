package dispatch

import (
	"context"
	"time"

	"github.com/tambula/dispatch/core/events"
	"github.com/tambula/dispatch/core/logger"
	"github.com/tambula/dispatch/core/metrics"
	"github.com/tambula/dispatch/core/model"
	"github.com/tambula/dispatch/internal/eventbus"
)

// State is the assignment state machine position.
type State int

const (
	StateSelecting State = iota
	StateOffering
	StateAccepted
	StateExhausted
	StateCancelled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateSelecting:
		return "selecting"
	case StateOffering:
		return "offering"
	case StateAccepted:
		return "accepted"
	case StateExhausted:
		return "exhausted"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Assignment is the coordinator outcome: the terminal state, the winning
// candidate when accepted, and how many offers were actually sent.
type Assignment struct {
	State    State
	Winner   *model.DriverCandidate
	Attempts int
}

// Coordinator runs the bounded sequential-retry offer protocol. Offers are
// never sent in parallel within one cycle and a driver is never offered the
// same request twice, which guarantees at most one acceptance per cycle.
type Coordinator struct {
	transport OfferTransport
	booking   BookingStore
	cfg       Config
	log       logger.Logger
	sink      metrics.MetricsSink
	bus       eventbus.EventBus

	// sleep is swappable in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCoordinator builds a coordinator. booking may be nil when assignments
// are persisted elsewhere; bus may be nil.
func NewCoordinator(transport OfferTransport, booking BookingStore, cfg Config, log logger.Logger, sink metrics.MetricsSink, bus eventbus.EventBus) *Coordinator {
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Coordinator{
		transport: transport,
		booking:   booking,
		cfg:       cfg,
		log:       log,
		sink:      sink,
		bus:       bus,
		sleep:     sleepCtx,
	}
}

// Assign walks the ranked candidates in order, offering to at most
// RetryAttempts of them. A rejection or timeout consumes one slot and is
// followed by the configured backoff. Cancellation is cooperative: it is
// checked before each offer and during backoff, and a cancelled cycle sends
// no further offers and writes no booking.
func (c *Coordinator) Assign(ctx context.Context, req model.DispatchRequest, ranked []model.DriverCandidate, summary OfferSummary) Assignment {
	if err := ctx.Err(); err != nil {
		return Assignment{State: StateCancelled}
	}
	if len(ranked) == 0 {
		return Assignment{State: StateExhausted}
	}

	attempts := c.cfg.RetryAttempts
	if len(ranked) < attempts {
		attempts = len(ranked)
	}

	asn := Assignment{State: StateOffering}
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			asn.State = StateCancelled
			return asn
		}
		cand := ranked[i]
		accepted, dur, err := c.sendOffer(ctx, cand, summary)
		asn.Attempts++
		c.observeOffer(req.ID, cand.DriverID, asn.Attempts, accepted, err, dur)

		if accepted {
			if c.booking != nil {
				bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.lookupTimeout())
				berr := c.booking.RecordAssignment(bctx, cand.DriverID, req.ID)
				cancel()
				if berr != nil {
					c.log.Errorf("booking record failed for %s: %v", req.ID, berr)
				}
			}
			asn.State = StateAccepted
			asn.Winner = &cand
			return asn
		}
		if err != nil && !IsTimeout(err) {
			c.log.Warnf("offer to %s failed, treating as decline: %v", cand.DriverID, err)
		}
		if i < attempts-1 {
			if serr := c.sleep(ctx, c.cfg.offerBackoff()); serr != nil {
				asn.State = StateCancelled
				return asn
			}
		}
	}
	asn.State = StateExhausted
	return asn
}

// sendOffer performs one synchronous offer round-trip with the offer timeout
// applied. Transport errors are declines; they never abort the cycle.
func (c *Coordinator) sendOffer(ctx context.Context, cand model.DriverCandidate, summary OfferSummary) (bool, time.Duration, error) {
	summary.PickupKm = cand.DistanceKm
	summary.ArrivalMins = cand.ArrivalMinutes
	octx, cancel := context.WithTimeout(ctx, c.cfg.offerTimeout())
	defer cancel()

	start := time.Now()
	accepted, err := c.transport.SendOffer(octx, cand.DriverID, summary)
	dur := time.Since(start)
	if err != nil {
		return false, dur, err
	}
	return accepted, dur, nil
}

func (c *Coordinator) observeOffer(requestID, driverID string, attempt int, accepted bool, err error, dur time.Duration) {
	timedOut := err != nil && IsTimeout(err)
	offersSent.Inc()
	offerLatency.Observe(dur.Seconds())
	if or, ok := c.sink.(metrics.OfferRecorder); ok {
		_ = or.RecordOffer(metrics.OfferEvent{
			RequestID: requestID,
			DriverID:  driverID,
			Attempt:   attempt,
			Accepted:  accepted,
			TimedOut:  timedOut,
			Latency:   dur,
			Time:      time.Now(),
		})
	}
	if c.bus != nil {
		c.bus.Publish(events.OfferEvent{
			RequestID: requestID,
			DriverID:  driverID,
			Attempt:   attempt,
			Accepted:  accepted,
			TimedOut:  timedOut,
			Latency:   dur,
			Err:       err,
		})
	}
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
