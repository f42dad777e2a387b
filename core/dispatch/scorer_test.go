package dispatch

import (
	"testing"
	"time"

	"github.com/tambula/dispatch/core/model"
)

func testScorer() *Scorer {
	return NewScorer(DefaultConfig().Scoring)
}

func candidate(id string) model.DriverCandidate {
	return model.DriverCandidate{
		DriverID:       id,
		DistanceKm:     1,
		Rating:         4.0,
		TotalRides:     50,
		AcceptanceRate: 80,
		CompletionRate: 90,
	}
}

func TestScoreDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	cands := []model.DriverCandidate{candidate("a"), candidate("b")}
	cands[0].LastPing = now.Add(-2 * time.Minute)
	cands[1].LastPing = now.Add(-4 * time.Minute)
	req := model.DispatchRequest{Service: model.ServiceTransport}

	s := testScorer()
	first := s.Score(cands, req, now)
	second := s.Score(cands, req, now)
	for i := range first {
		if first[i].DriverID != second[i].DriverID || first[i].Score != second[i].Score {
			t.Fatal("identical inputs must produce identical scores and order")
		}
	}
}

func TestScoreDoesNotMutateInput(t *testing.T) {
	now := time.Now()
	cands := []model.DriverCandidate{candidate("a")}
	testScorer().Score(cands, model.DispatchRequest{}, now)
	if cands[0].Score != 0 {
		t.Error("scoring must work on a copy of the slice")
	}
}

func TestScoreOrdering(t *testing.T) {
	now := time.Now()
	strong := candidate("strong")
	strong.DistanceKm = 0.5
	strong.Rating = 4.8
	strong.TotalRides = 180
	strong.AcceptanceRate = 95
	strong.LastPing = now

	weak := candidate("weak")
	weak.DistanceKm = 4
	weak.Rating = 3.0
	weak.TotalRides = 5
	weak.AcceptanceRate = 50
	weak.LastPing = now.Add(-10 * time.Minute)

	ranked := testScorer().Score([]model.DriverCandidate{weak, strong}, model.DispatchRequest{}, now)
	if ranked[0].DriverID != "strong" {
		t.Fatalf("expected strong driver first, got %s", ranked[0].DriverID)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Fatal("ranking must be descending by score")
	}
}

func TestComponentScoresClamped(t *testing.T) {
	cases := []struct {
		name string
		got  float64
	}{
		{"proximity far", proximityScore(50)},
		{"proximity zero", proximityScore(0)},
		{"quality negative", qualityScore(-1)},
		{"quality overflow", qualityScore(9)},
		{"experience overflow", experienceScore(5000)},
		{"experience negative", experienceScore(-3)},
		{"reliability overflow", reliabilityScore(150, 150)},
	}
	for _, c := range cases {
		if c.got < 0 || c.got > 100 {
			t.Errorf("%s: component %.1f escapes [0,100]", c.name, c.got)
		}
	}
	if proximityScore(0) != 100 {
		t.Error("zero distance is a perfect proximity score")
	}
	if qualityScore(5) != 100 {
		t.Error("five-star rating is a perfect quality score")
	}
}

func TestRecencyDecay(t *testing.T) {
	s := testScorer()
	now := time.Now()

	if got := s.recencyScore(now, now); got != 100 {
		t.Errorf("fresh ping should score 100, got %.1f", got)
	}
	if got := s.recencyScore(now.Add(-5*time.Minute), now); got != 0 {
		t.Errorf("ping at window edge should score 0, got %.1f", got)
	}
	mid := s.recencyScore(now.Add(-150*time.Second), now)
	if mid < 49 || mid > 51 {
		t.Errorf("half-window ping should score ~50, got %.1f", mid)
	}
}

func TestUrgentProximityBonus(t *testing.T) {
	now := time.Now()
	near := candidate("near")
	near.DistanceKm = 0.8
	near.LastPing = now

	normal := testScorer().Score([]model.DriverCandidate{near}, model.DispatchRequest{Priority: model.PriorityNormal}, now)
	urgent := testScorer().Score([]model.DriverCandidate{near}, model.DispatchRequest{Priority: model.PriorityUrgent}, now)

	diff := urgent[0].Score - normal[0].Score
	if diff != DefaultConfig().Scoring.UrgentProximityBonus {
		t.Fatalf("expected urgent bonus %.0f for a sub-km driver, got %.1f", DefaultConfig().Scoring.UrgentProximityBonus, diff)
	}
}

func TestUrgentBonusRequiresProximity(t *testing.T) {
	now := time.Now()
	far := candidate("far")
	far.DistanceKm = 1.5
	far.LastPing = now

	normal := testScorer().Score([]model.DriverCandidate{far}, model.DispatchRequest{Priority: model.PriorityNormal}, now)
	urgent := testScorer().Score([]model.DriverCandidate{far}, model.DispatchRequest{Priority: model.PriorityUrgent}, now)
	if urgent[0].Score != normal[0].Score {
		t.Fatal("urgent bonus only applies under one kilometre")
	}
}

func TestVehicleClassBonus(t *testing.T) {
	now := time.Now()
	suv := candidate("suv")
	suv.VehicleClass = "suv"
	suv.LastPing = now

	plain := testScorer().Score([]model.DriverCandidate{suv}, model.DispatchRequest{}, now)
	matched := testScorer().Score([]model.DriverCandidate{suv}, model.DispatchRequest{VehicleClass: "suv"}, now)

	diff := matched[0].Score - plain[0].Score
	if diff != DefaultConfig().Scoring.VehicleClassBonus {
		t.Fatalf("expected class bonus %.0f, got %.1f", DefaultConfig().Scoring.VehicleClassBonus, diff)
	}
}

func TestStableOrderOnTies(t *testing.T) {
	now := time.Now()
	a := candidate("a")
	b := candidate("b")
	a.LastPing = now
	b.LastPing = now

	ranked := testScorer().Score([]model.DriverCandidate{a, b}, model.DispatchRequest{}, now)
	if ranked[0].DriverID != "a" || ranked[1].DriverID != "b" {
		t.Fatal("equal scores must keep input order")
	}
}
