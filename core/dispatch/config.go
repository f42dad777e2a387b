package dispatch

import "time"

// ScoringConfig holds the ranking weights and bonuses. Weights sum to 1.
type ScoringConfig struct {
	ProximityWeight   float64 `json:"proximity_weight"`
	QualityWeight     float64 `json:"quality_weight"`
	ExperienceWeight  float64 `json:"experience_weight"`
	ReliabilityWeight float64 `json:"reliability_weight"`
	RecencyWeight     float64 `json:"recency_weight"`

	UrgentProximityBonus float64 `json:"urgent_proximity_bonus"`
	VehicleClassBonus    float64 `json:"vehicle_class_bonus"`

	// RecencyWindow is the ping age beyond which the recency component is 0.
	RecencyWindowMinutes int `json:"recency_window_minutes"`
}

// Config defines dispatch-related settings.
type Config struct {
	RadiiKm              []float64     `json:"radii_km"`
	MinCandidates        int           `json:"min_candidates"`
	RetryAttempts        int           `json:"retry_attempts"`
	OfferTimeoutSeconds  int           `json:"offer_timeout_seconds"`
	OfferBackoffMS       int           `json:"offer_backoff_ms"`
	LookupTimeoutSeconds int           `json:"lookup_timeout_seconds"`
	StatsWindowDays      int           `json:"stats_window_days"`
	Scoring              ScoringConfig `json:"scoring"`
}

// DefaultConfig returns the production dispatch settings.
func DefaultConfig() Config {
	return Config{
		RadiiKm:              []float64{2, 5, 10, 20},
		MinCandidates:        3,
		RetryAttempts:        3,
		OfferTimeoutSeconds:  10,
		OfferBackoffMS:       1000,
		LookupTimeoutSeconds: 3,
		StatsWindowDays:      30,
		Scoring: ScoringConfig{
			ProximityWeight:      0.40,
			QualityWeight:        0.25,
			ExperienceWeight:     0.15,
			ReliabilityWeight:    0.10,
			RecencyWeight:        0.10,
			UrgentProximityBonus: 20,
			VehicleClassBonus:    10,
			RecencyWindowMinutes: 5,
		},
	}
}

// SetDefaults fills zero fields with production defaults.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if len(c.RadiiKm) == 0 {
		c.RadiiKm = d.RadiiKm
	}
	if c.MinCandidates == 0 {
		c.MinCandidates = d.MinCandidates
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	if c.OfferTimeoutSeconds == 0 {
		c.OfferTimeoutSeconds = d.OfferTimeoutSeconds
	}
	if c.OfferBackoffMS == 0 {
		c.OfferBackoffMS = d.OfferBackoffMS
	}
	if c.LookupTimeoutSeconds == 0 {
		c.LookupTimeoutSeconds = d.LookupTimeoutSeconds
	}
	if c.StatsWindowDays == 0 {
		c.StatsWindowDays = d.StatsWindowDays
	}
	s := &c.Scoring
	ds := d.Scoring
	if s.ProximityWeight == 0 && s.QualityWeight == 0 && s.ExperienceWeight == 0 {
		*s = ds
	}
	if s.RecencyWindowMinutes == 0 {
		s.RecencyWindowMinutes = ds.RecencyWindowMinutes
	}
}

// Validate checks structural invariants of the configuration.
func (c Config) Validate() error {
	for i := 1; i < len(c.RadiiKm); i++ {
		if c.RadiiKm[i] <= c.RadiiKm[i-1] {
			return errRadiiNotIncreasing
		}
	}
	return nil
}

func (c Config) offerTimeout() time.Duration {
	return time.Duration(c.OfferTimeoutSeconds) * time.Second
}

func (c Config) offerBackoff() time.Duration {
	return time.Duration(c.OfferBackoffMS) * time.Millisecond
}

func (c Config) lookupTimeout() time.Duration {
	return time.Duration(c.LookupTimeoutSeconds) * time.Second
}
