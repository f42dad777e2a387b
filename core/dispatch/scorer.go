package dispatch

import (
	"sort"
	"time"

	"github.com/tambula/dispatch/core/model"
)

// Scorer ranks candidates with a weighted multi-factor score. It is a pure
// function of its inputs: the reference time is passed in, so identical
// inputs always produce identical scores and ordering.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer returns a scorer with the given weights.
func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes each candidate's score and returns the list sorted
// descending. The sort is stable so equal scores keep their input order.
func (s *Scorer) Score(candidates []model.DriverCandidate, req model.DispatchRequest, now time.Time) []model.DriverCandidate {
	out := make([]model.DriverCandidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		out[i].Score = s.score(out[i], req, now)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// score is weights·components plus the additive bonuses. Every weighted
// component lies in [0,100], so the weighted sum does too; bonuses are
// intentionally not normalised.
func (s *Scorer) score(c model.DriverCandidate, req model.DispatchRequest, now time.Time) float64 {
	score := s.cfg.ProximityWeight*proximityScore(c.DistanceKm) +
		s.cfg.QualityWeight*qualityScore(c.Rating) +
		s.cfg.ExperienceWeight*experienceScore(c.TotalRides) +
		s.cfg.ReliabilityWeight*reliabilityScore(c.AcceptanceRate, c.CompletionRate) +
		s.cfg.RecencyWeight*s.recencyScore(c.LastPing, now)

	if req.Priority == model.PriorityUrgent && c.DistanceKm < 1 {
		score += s.cfg.UrgentProximityBonus
	}
	if req.VehicleClass != "" && c.VehicleClass == req.VehicleClass {
		score += s.cfg.VehicleClassBonus
	}
	return score
}

func proximityScore(distKm float64) float64 {
	v := 100 - distKm*20
	if v < 0 {
		return 0
	}
	return v
}

func qualityScore(rating float64) float64 {
	if rating < 0 {
		return 0
	}
	if rating > 5 {
		rating = 5
	}
	return rating / 5 * 100
}

func experienceScore(rides int) float64 {
	v := float64(rides) * 2
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}

func reliabilityScore(acceptance, completion float64) float64 {
	v := (acceptance + completion) / 2
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// recencyScore decays linearly from 100 to 0 over the recency window.
func (s *Scorer) recencyScore(lastPing, now time.Time) float64 {
	window := time.Duration(s.cfg.RecencyWindowMinutes) * time.Minute
	age := now.Sub(lastPing)
	if age <= 0 {
		return 100
	}
	if age >= window {
		return 0
	}
	return 100 * (1 - float64(age)/float64(window))
}
