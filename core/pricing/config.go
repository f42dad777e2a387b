package pricing

// Config holds fare and surge tuning. Prices are CDF amounts.
type Config struct {
	DefaultBaseFare int64   `json:"default_base_fare"`
	DefaultPerKm    int64   `json:"default_per_km"`
	DefaultTripKm   float64 `json:"default_trip_km"`

	DemandWindowMinutes  int     `json:"demand_window_minutes"`
	UrgentSurgeBump      float64 `json:"urgent_surge_bump"`
	MinSurge             float64 `json:"min_surge"`
	MaxSurge             float64 `json:"max_surge"`
	LookupTimeoutSeconds int     `json:"lookup_timeout_seconds"`
}

// DefaultConfig returns the production fare defaults used when no rule is
// configured for a service/class pair.
func DefaultConfig() Config {
	return Config{
		DefaultBaseFare:      2000,
		DefaultPerKm:         300,
		DefaultTripKm:        5,
		DemandWindowMinutes:  30,
		UrgentSurgeBump:      0.5,
		MinSurge:             1.0,
		MaxSurge:             3.0,
		LookupTimeoutSeconds: 3,
	}
}

// SetDefaults fills zero fields with production defaults.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.DefaultBaseFare == 0 {
		c.DefaultBaseFare = d.DefaultBaseFare
	}
	if c.DefaultPerKm == 0 {
		c.DefaultPerKm = d.DefaultPerKm
	}
	if c.DefaultTripKm == 0 {
		c.DefaultTripKm = d.DefaultTripKm
	}
	if c.DemandWindowMinutes == 0 {
		c.DemandWindowMinutes = d.DemandWindowMinutes
	}
	if c.UrgentSurgeBump == 0 {
		c.UrgentSurgeBump = d.UrgentSurgeBump
	}
	if c.MinSurge == 0 {
		c.MinSurge = d.MinSurge
	}
	if c.MaxSurge == 0 {
		c.MaxSurge = d.MaxSurge
	}
	if c.LookupTimeoutSeconds == 0 {
		c.LookupTimeoutSeconds = d.LookupTimeoutSeconds
	}
}
