// Package geo resolves coordinates to named city zones and landmarks and
// provides the distance primitives used across the dispatch engine.
package geo

import "github.com/tambula/dispatch/core/model"

// ZoneMatch is the outcome of resolving a coordinate. City is never nil:
// points outside every bounding box fall back to the globally nearest zone
// center, in which case Landmark is nil.
type ZoneMatch struct {
	City     *model.CityZone
	Landmark *model.Landmark
	// Approximate is true when the point was outside every zone box.
	Approximate bool
}

// Resolver maps coordinates to the static zone table. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	zones []model.CityZone
}

// NewResolver builds a resolver over the given zones. An empty slice falls
// back to the built-in table.
func NewResolver(zones []model.CityZone) *Resolver {
	if len(zones) == 0 {
		zones = DefaultZones()
	}
	return &Resolver{zones: zones}
}

// Resolve returns the zone containing the point, preferring the zone with the
// nearest center when boxes overlap, together with the nearest landmark of
// that zone.
func (r *Resolver) Resolve(p model.Coordinate) ZoneMatch {
	var best *model.CityZone
	bestDist := 0.0
	for i := range r.zones {
		z := &r.zones[i]
		if !z.Box.Contains(p) {
			continue
		}
		d := DistanceKm(p, z.Center)
		if best == nil || d < bestDist {
			best, bestDist = z, d
		}
	}
	if best != nil {
		return ZoneMatch{City: best, Landmark: nearestLandmark(best, p)}
	}

	// Outside every box: nearest center wins, no landmark.
	for i := range r.zones {
		z := &r.zones[i]
		d := DistanceKm(p, z.Center)
		if best == nil || d < bestDist {
			best, bestDist = z, d
		}
	}
	return ZoneMatch{City: best, Approximate: true}
}

func nearestLandmark(z *model.CityZone, p model.Coordinate) *model.Landmark {
	var best *model.Landmark
	bestDist := 0.0
	for i := range z.Landmarks {
		l := &z.Landmarks[i]
		d := DistanceKm(p, l.Position)
		if best == nil || d < bestDist {
			best, bestDist = l, d
		}
	}
	return best
}
