package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/tambula/dispatch/core/model"
	"github.com/tambula/dispatch/core/pricing"
	"github.com/tambula/dispatch/infra/logger"
	"github.com/tambula/dispatch/internal/eventbus"
)

type staticCounter struct {
	demand, supply int
}

func (s staticCounter) ActiveDemand(ctx context.Context, windowMinutes int) (int, error) {
	return s.demand, nil
}

func (s staticCounter) AvailableSupply(ctx context.Context) (int, error) {
	return s.supply, nil
}

type noRules struct{}

func (noRules) GetRule(ctx context.Context, service model.ServiceType, class string) (*pricing.FareRule, error) {
	return nil, nil
}

// gombeFleet builds five drivers around the Gombe pickup with one clear
// winner: closest, best rated, most experienced and freshest ping.
func gombeFleet(now time.Time) ([]model.DriverLocation, *fakeProfiles, *fakeStats) {
	type row struct {
		id        string
		latOffset float64
		rating    float64
		rides     int
		accept    float64
		pingAge   time.Duration
	}
	rows := []row{
		{"best", 0.004, 4.8, 180, 95, 30 * time.Second},
		{"second", 0.008, 4.5, 120, 90, time.Minute},
		{"third", 0.012, 4.2, 60, 85, 2 * time.Minute},
		{"fourth", 0.015, 3.9, 30, 80, 3 * time.Minute},
		{"fifth", 0.017, 3.5, 10, 70, 4 * time.Minute},
	}
	locations := make([]model.DriverLocation, 0, len(rows))
	profiles := &fakeProfiles{profiles: map[string]model.DriverProfile{}}
	stats := &fakeStats{stats: map[string]model.DriverStats{}}
	for _, r := range rows {
		locations = append(locations, model.DriverLocation{
			DriverID: r.id,
			Position: model.Coordinate{Lat: pickup.Lat + r.latOffset, Lng: pickup.Lng},
			Service:  model.ServiceTransport,
			LastPing: now.Add(-r.pingAge),
		})
		profiles.profiles[r.id] = model.DriverProfile{
			Rating: r.rating, TotalRides: r.rides, IsActive: true, Verified: true,
		}
		stats.stats[r.id] = model.DriverStats{AcceptanceRate: r.accept, CompletionRate: 92}
	}
	return locations, profiles, stats
}

func newTestEngine(t *testing.T, col Collaborators) *Engine {
	t.Helper()
	e, err := NewEngine(col, Config{}, pricing.Config{}, nil, logger.NopLogger{}, nil, eventbus.New())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	e.coordinator.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return e
}

func TestDispatchHappyPath(t *testing.T) {
	now := time.Now()
	locations, profiles, stats := gombeFleet(now)
	tr := &scriptedTransport{script: map[string]string{"best": "accept"}}
	booking := &fakeBooking{}

	e := newTestEngine(t, Collaborators{
		Feed:      &fakeFeed{locations: locations},
		Profiles:  profiles,
		Stats:     stats,
		Rules:     noRules{},
		Counter:   staticCounter{demand: 5, supply: 10},
		Transport: tr,
		Booking:   booking,
	})

	res := e.Dispatch(context.Background(), model.DispatchRequest{
		CustomerID: "c1",
		Service:    model.ServiceTransport,
		Pickup:     pickup,
	})
	if !res.Success {
		t.Fatalf("expected success, got reason %q", res.Reason)
	}
	if res.RequestID == "" {
		t.Error("missing request id must be generated")
	}
	if res.Driver == nil || res.Driver.DriverID != "best" {
		t.Fatalf("strongest candidate should win, got %+v", res.Driver)
	}
	if res.City != "Gombe" {
		t.Fatalf("expected Gombe, got %s", res.City)
	}
	if res.EstimatedPrice != 3500 {
		t.Fatalf("expected 2000 + 5*300 at surge 1.0 = 3500, got %d", res.EstimatedPrice)
	}
	if res.Surge != 1.0 {
		t.Fatalf("balanced market should not surge, got %.2f", res.Surge)
	}
	if res.OfferAttempts != 1 {
		t.Fatalf("winner accepted first, attempts=%d", res.OfferAttempts)
	}
	if res.ArrivalMinutes <= 0 {
		t.Error("arrival estimate missing")
	}
	if len(res.Alternates) != 3 {
		t.Fatalf("expected 3 alternates from 5 candidates, got %d", len(res.Alternates))
	}
	for _, alt := range res.Alternates {
		if alt.DriverID == "best" {
			t.Fatal("winner must not appear among alternates")
		}
	}
	if len(booking.records) != 1 {
		t.Fatalf("exactly one booking, got %v", booking.records)
	}
}

func TestDispatchNoDrivers(t *testing.T) {
	tr := &scriptedTransport{}
	e := newTestEngine(t, Collaborators{
		Feed:      &fakeFeed{},
		Counter:   staticCounter{demand: 8, supply: 4},
		Transport: tr,
	})

	res := e.Dispatch(context.Background(), model.DispatchRequest{
		Service: model.ServiceTransport,
		Pickup:  pickup,
	})
	if res.Success {
		t.Fatal("no drivers must not succeed")
	}
	if res.Reason != model.ReasonNoCandidatesFound {
		t.Fatalf("expected no_candidates_found, got %q", res.Reason)
	}
	if res.Surge != 2.0 {
		t.Fatalf("surge still reported on failure, got %.2f", res.Surge)
	}
	if len(tr.sent) != 0 {
		t.Fatal("no offers without candidates")
	}
}

func TestDispatchAllDecline(t *testing.T) {
	now := time.Now()
	locations, profiles, stats := gombeFleet(now)
	tr := &scriptedTransport{} // everyone declines

	e := newTestEngine(t, Collaborators{
		Feed:      &fakeFeed{locations: locations},
		Profiles:  profiles,
		Stats:     stats,
		Counter:   staticCounter{demand: 5, supply: 10},
		Transport: tr,
	})

	res := e.Dispatch(context.Background(), model.DispatchRequest{
		Service: model.ServiceTransport,
		Pickup:  pickup,
	})
	if res.Success || res.Reason != model.ReasonAllOffersDeclined {
		t.Fatalf("expected all_offers_declined, got %+v", res)
	}
	if res.OfferAttempts != 3 {
		t.Fatalf("retry cap is 3, got %d attempts", res.OfferAttempts)
	}
}

func TestDispatchInvalidRequest(t *testing.T) {
	e := newTestEngine(t, Collaborators{
		Feed:      &fakeFeed{},
		Transport: &scriptedTransport{},
	})

	res := e.Dispatch(context.Background(), model.DispatchRequest{
		Service: "hoverboard",
		Pickup:  pickup,
	})
	if res.Reason != model.ReasonInvalidRequest {
		t.Fatalf("expected invalid_request, got %q", res.Reason)
	}
}

func TestDispatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := &scriptedTransport{}
	e := newTestEngine(t, Collaborators{
		Feed:      &fakeFeed{locations: []model.DriverLocation{driverAt("d1", 0.002, model.ServiceTransport)}},
		Counter:   staticCounter{demand: 1, supply: 10},
		Transport: tr,
	})

	res := e.Dispatch(ctx, model.DispatchRequest{
		Service: model.ServiceTransport,
		Pickup:  pickup,
	})
	if res.Reason != model.ReasonCancelled {
		t.Fatalf("expected cancelled, got %q", res.Reason)
	}
	if len(tr.sent) != 0 {
		t.Fatal("cancelled dispatch must send no offers")
	}
}

func TestDispatchRequiresFeedAndTransport(t *testing.T) {
	if _, err := NewEngine(Collaborators{Transport: &scriptedTransport{}}, Config{}, pricing.Config{}, nil, logger.NopLogger{}, nil, nil); err == nil {
		t.Error("missing feed must be rejected")
	}
	if _, err := NewEngine(Collaborators{Feed: &fakeFeed{}}, Config{}, pricing.Config{}, nil, logger.NopLogger{}, nil, nil); err == nil {
		t.Error("missing transport must be rejected")
	}
}

func TestDispatchMetricsWindow(t *testing.T) {
	now := time.Now()
	locations, profiles, stats := gombeFleet(now)
	e := newTestEngine(t, Collaborators{
		Feed:      &fakeFeed{locations: locations},
		Profiles:  profiles,
		Stats:     stats,
		Counter:   staticCounter{demand: 5, supply: 10},
		Transport: &scriptedTransport{script: map[string]string{"best": "accept"}},
	})

	e.Dispatch(context.Background(), model.DispatchRequest{Service: model.ServiceTransport, Pickup: pickup})
	e.Dispatch(context.Background(), model.DispatchRequest{Service: model.ServiceTransport, Pickup: pickup})

	stats24 := e.Metrics(24)
	if stats24.Dispatches != 2 {
		t.Fatalf("expected 2 recorded cycles, got %d", stats24.Dispatches)
	}
	if stats24.SuccessRate != 1.0 {
		t.Fatalf("both cycles succeeded, rate=%.2f", stats24.SuccessRate)
	}
	if stats24.SurgeFrequency != 0 {
		t.Fatalf("no surge in a balanced market, frequency=%.2f", stats24.SurgeFrequency)
	}
}

func TestDispatchEventBus(t *testing.T) {
	now := time.Now()
	locations, profiles, stats := gombeFleet(now)
	bus := eventbus.New()
	sub := bus.Subscribe()

	e, err := NewEngine(Collaborators{
		Feed:      &fakeFeed{locations: locations},
		Profiles:  profiles,
		Stats:     stats,
		Counter:   staticCounter{demand: 5, supply: 10},
		Transport: &scriptedTransport{script: map[string]string{"best": "accept"}},
	}, Config{}, pricing.Config{}, nil, logger.NopLogger{}, nil, bus)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	e.coordinator.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }

	e.Dispatch(context.Background(), model.DispatchRequest{Service: model.ServiceTransport, Pickup: pickup})

	// Request, offer and assignment events land on the bus.
	var got int
	for {
		select {
		case <-sub:
			got++
			if got >= 3 {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("expected 3 lifecycle events, saw %d", got)
		}
	}
}
