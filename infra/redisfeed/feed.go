// Package redisfeed implements the live driver location feed on Redis: a GEO
// set holds positions, a hash per driver holds class/service/ping metadata
// and a set tracks who is online. Drivers push updates periodically; readers
// take eventually consistent snapshots without locking.
package redisfeed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tambula/dispatch/core/model"
)

const (
	geoKey    = "drivers:geo"
	onlineKey = "drivers:online"
	metaKey   = "drivers:meta:%s"
)

// Config holds the Redis connection settings.
type Config struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Feed reads and writes the live driver location state.
type Feed struct {
	rdb *redis.Client
}

// New creates a Feed over a new Redis client.
func New(cfg Config) *Feed {
	return &Feed{rdb: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})}
}

// NewWithClient wraps an existing client, used by tests.
func NewWithClient(rdb *redis.Client) *Feed {
	return &Feed{rdb: rdb}
}

// UpdateLocation upserts a driver's position and metadata and marks them
// online. Called by the driver position ingestion path.
func (f *Feed) UpdateLocation(ctx context.Context, loc model.DriverLocation) error {
	pipe := f.rdb.TxPipeline()
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      loc.DriverID,
		Longitude: loc.Position.Lng,
		Latitude:  loc.Position.Lat,
	})
	pipe.HSet(ctx, fmt.Sprintf(metaKey, loc.DriverID), map[string]any{
		"vehicle_class": loc.VehicleClass,
		"service_type":  string(loc.Service),
		"last_ping_ms":  loc.LastPing.UnixMilli(),
	})
	pipe.SAdd(ctx, onlineKey, loc.DriverID)
	_, err := pipe.Exec(ctx)
	return err
}

// SetOffline removes the driver from the online set; their position and
// metadata are left behind for the TTL sweep.
func (f *Feed) SetOffline(ctx context.Context, driverID string) error {
	return f.rdb.SRem(ctx, onlineKey, driverID).Err()
}

// QueryOnlineAvailable returns every online driver compatible with the
// service type, with their last known position and ping time.
func (f *Feed) QueryOnlineAvailable(ctx context.Context, service model.ServiceType) ([]model.DriverLocation, error) {
	ids, err := f.rdb.SMembers(ctx, onlineKey).Result()
	if err != nil {
		return nil, fmt.Errorf("online set: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := f.rdb.Pipeline()
	metaCmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		metaCmds[i] = pipe.HGetAll(ctx, fmt.Sprintf(metaKey, id))
	}
	posCmd := pipe.GeoPos(ctx, geoKey, ids...)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("feed snapshot: %w", err)
	}

	positions, err := posCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("geo positions: %w", err)
	}

	var out []model.DriverLocation
	for i, id := range ids {
		meta, err := metaCmds[i].Result()
		if err != nil || len(meta) == 0 {
			continue
		}
		driverService := model.ServiceType(meta["service_type"])
		if driverService != model.ServiceAll && driverService != service {
			continue
		}
		if i >= len(positions) || positions[i] == nil {
			continue
		}
		loc := model.DriverLocation{
			DriverID:     id,
			VehicleClass: meta["vehicle_class"],
			Service:      driverService,
			Position: model.Coordinate{
				Lat: positions[i].Latitude,
				Lng: positions[i].Longitude,
			},
		}
		if ms, err := strconv.ParseInt(meta["last_ping_ms"], 10, 64); err == nil {
			loc.LastPing = time.UnixMilli(ms)
		}
		out = append(out, loc)
	}
	return out, nil
}

// Close releases the Redis client.
func (f *Feed) Close() error {
	return f.rdb.Close()
}
