package pricing

import (
	"context"

	"github.com/tambula/dispatch/core/model"
)

// FareRule is the configured tariff for a (service, vehicle class) pair.
type FareRule struct {
	BaseFare int64
	PerKm    int64
}

// RulesStore looks up configured fare rules. A (nil, nil) return means no
// rule exists and the engine falls back to defaults.
type RulesStore interface {
	GetRule(ctx context.Context, service model.ServiceType, vehicleClass string) (*FareRule, error)
}

// DemandSupplyCounter reports live marketplace pressure for surge pricing.
type DemandSupplyCounter interface {
	ActiveDemand(ctx context.Context, windowMinutes int) (int, error)
	AvailableSupply(ctx context.Context) (int, error)
}
