package dispatch

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/tambula/dispatch/core/geo"
	"github.com/tambula/dispatch/core/logger"
	"github.com/tambula/dispatch/core/metrics"
	"github.com/tambula/dispatch/core/model"
)

var (
	errRadiiNotIncreasing = errors.New("radius sequence must be strictly increasing")
	errNilCollaborator    = errors.New("dispatch: feed and transport collaborators are required")
)

// Defaults applied when the stats provider is unreachable.
const (
	defaultAcceptanceRate = 80.0
	defaultCompletionRate = 90.0
)

// Locator performs the progressive-radius candidate search: widen until at
// least MinCandidates eligible drivers are found or the sequence is
// exhausted.
type Locator struct {
	feed     LocationFeed
	profiles ProfileStore
	stats    StatsProvider
	cfg      Config
	log      logger.Logger
	sink     metrics.MetricsSink
}

// NewLocator builds a locator. profiles and stats may be nil in tests; nil
// profiles skips eligibility gating, nil stats uses the rate defaults.
func NewLocator(feed LocationFeed, profiles ProfileStore, stats StatsProvider, cfg Config, log logger.Logger, sink metrics.MetricsSink) *Locator {
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Locator{feed: feed, profiles: profiles, stats: stats, cfg: cfg, log: log, sink: sink}
}

// Locate runs the radius search for the request. The returned slice never
// contains duplicate driver IDs. All radii empty yields
// model.ErrNoCandidates; feed failures at every level do too.
func (l *Locator) Locate(ctx context.Context, req model.DispatchRequest) ([]model.DriverCandidate, error) {
	radii := l.cfg.RadiiKm
	if req.MaxDistanceKm > 0 {
		radii = capRadii(radii, req.MaxDistanceKm)
	}

	var candidates []model.DriverCandidate
	for _, radius := range radii {
		if err := ctx.Err(); err != nil {
			return nil, model.ErrCancelled
		}
		found, err := l.searchRadius(ctx, req, radius)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, model.ErrCancelled
			}
			l.log.Warnf("radius %.0fkm query failed: %v", radius, err)
			continue
		}
		if sr, ok := l.sink.(metrics.SearchRecorder); ok {
			_ = sr.RecordSearch(metrics.CandidateSearchEvent{
				RequestID: req.ID, RadiusKm: radius, Found: len(found), Time: time.Now(),
			})
		}
		candidates = found
		if len(candidates) >= l.cfg.MinCandidates {
			break
		}
	}
	if len(candidates) == 0 {
		return nil, model.ErrNoCandidates
	}
	return candidates, nil
}

// searchRadius queries the feed once and builds enriched candidates within
// the given radius.
func (l *Locator) searchRadius(ctx context.Context, req model.DispatchRequest, radiusKm float64) ([]model.DriverCandidate, error) {
	qctx, cancel := context.WithTimeout(ctx, l.cfg.lookupTimeout())
	defer cancel()
	locations, err := l.feed.QueryOnlineAvailable(qctx, req.Service)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(locations))
	var out []model.DriverCandidate
	for _, loc := range locations {
		if seen[loc.DriverID] {
			continue
		}
		seen[loc.DriverID] = true
		if !req.Compatible(loc.Service) {
			continue
		}
		dist := geo.DistanceKm(req.Pickup, loc.Position)
		if dist > radiusKm {
			continue
		}
		cand, ok := l.enrich(ctx, req, loc, dist)
		if !ok {
			continue
		}
		out = append(out, cand)
	}
	return out, nil
}

// enrich loads profile and stats data for the driver. A profile fetch error
// or an inactive/unverified profile drops the driver; a stats error falls
// back to the documented default rates.
func (l *Locator) enrich(ctx context.Context, req model.DispatchRequest, loc model.DriverLocation, distKm float64) (model.DriverCandidate, bool) {
	cand := model.DriverCandidate{
		DriverID:       loc.DriverID,
		Position:       loc.Position,
		DistanceKm:     distKm,
		VehicleClass:   loc.VehicleClass,
		Service:        loc.Service,
		LastPing:       loc.LastPing,
		AcceptanceRate: defaultAcceptanceRate,
		CompletionRate: defaultCompletionRate,
		ArrivalMinutes: EstimateArrivalMinutes(distKm),
	}

	if l.profiles != nil {
		pctx, cancel := context.WithTimeout(ctx, l.cfg.lookupTimeout())
		profile, err := l.profiles.GetProfile(pctx, loc.DriverID)
		cancel()
		if err != nil {
			l.log.Debugf("profile fetch failed for %s, dropping: %v", loc.DriverID, err)
			return cand, false
		}
		if !profile.IsActive || !profile.Verified {
			return cand, false
		}
		cand.Rating = profile.Rating
		cand.TotalRides = profile.TotalRides
	}

	if l.stats != nil {
		sctx, cancel := context.WithTimeout(ctx, l.cfg.lookupTimeout())
		stats, err := l.stats.GetStats(sctx, loc.DriverID, l.cfg.StatsWindowDays)
		cancel()
		if err != nil {
			l.log.Debugf("stats fetch failed for %s, using defaults: %v", loc.DriverID, err)
		} else {
			cand.AcceptanceRate = stats.AcceptanceRate
			cand.CompletionRate = stats.CompletionRate
		}
	}
	return cand, true
}

// EstimateArrivalMinutes is the documented placeholder heuristic: two minutes
// per kilometre, rounded up. A routing-service call may replace it without
// changing the rest of the contract.
func EstimateArrivalMinutes(distKm float64) int {
	return int(math.Ceil(distKm * 2))
}

// capRadii trims the sequence to radii at or under the requester's maximum,
// keeping at least the smallest level so nearby drivers are still found.
func capRadii(radii []float64, maxKm float64) []float64 {
	var out []float64
	for _, r := range radii {
		if r <= maxKm {
			out = append(out, r)
		}
	}
	if len(out) == 0 && len(radii) > 0 {
		out = []float64{maxKm}
	}
	return out
}
