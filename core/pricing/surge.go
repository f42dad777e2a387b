package pricing

import "github.com/tambula/dispatch/core/model"

// surgeForRatio maps a demand/supply ratio to a multiplier tier.
func surgeForRatio(ratio float64) float64 {
	switch {
	case ratio > 2:
		return 2.5
	case ratio > 1.5:
		return 2.0
	case ratio > 1:
		return 1.5
	case ratio > 0.7:
		return 1.2
	default:
		return 1.0
	}
}

// SurgeMultiplier computes the multiplier from raw demand and supply counts.
// Supply is floored at one so an empty zone does not divide by zero. Urgent
// requests get a flat bump; the result is clamped to [MinSurge, MaxSurge].
func (e *Engine) SurgeMultiplier(demand, supply int, priority model.Priority) float64 {
	if supply < 1 {
		supply = 1
	}
	m := surgeForRatio(float64(demand) / float64(supply))
	if priority == model.PriorityUrgent {
		m += e.cfg.UrgentSurgeBump
	}
	if m < e.cfg.MinSurge {
		m = e.cfg.MinSurge
	}
	if m > e.cfg.MaxSurge {
		m = e.cfg.MaxSurge
	}
	return m
}
