package redisfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const demandKey = "requests:active"

// Counter reports live demand and supply for surge pricing. Demand is a
// sorted set of request IDs scored by arrival time; supply is the size of
// the online driver set.
type Counter struct {
	rdb *redis.Client
}

// NewCounter wraps the same Redis instance the feed uses.
func NewCounter(cfg Config) *Counter {
	return &Counter{rdb: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})}
}

// NewCounterWithClient wraps an existing client, used by tests.
func NewCounterWithClient(rdb *redis.Client) *Counter {
	return &Counter{rdb: rdb}
}

// MarkRequest records an incoming request for demand counting and prunes
// entries older than an hour.
func (c *Counter) MarkRequest(ctx context.Context, requestID string, at time.Time) error {
	pipe := c.rdb.TxPipeline()
	pipe.ZAdd(ctx, demandKey, redis.Z{Score: float64(at.UnixMilli()), Member: requestID})
	pipe.ZRemRangeByScore(ctx, demandKey, "0", fmt.Sprintf("%d", at.Add(-time.Hour).UnixMilli()))
	_, err := pipe.Exec(ctx)
	return err
}

// ActiveDemand counts requests seen within the window.
func (c *Counter) ActiveDemand(ctx context.Context, windowMinutes int) (int, error) {
	since := time.Now().Add(-time.Duration(windowMinutes) * time.Minute).UnixMilli()
	n, err := c.rdb.ZCount(ctx, demandKey, fmt.Sprintf("%d", since), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("demand count: %w", err)
	}
	return int(n), nil
}

// AvailableSupply counts drivers currently online.
func (c *Counter) AvailableSupply(ctx context.Context) (int, error) {
	n, err := c.rdb.SCard(ctx, onlineKey).Result()
	if err != nil {
		return 0, fmt.Errorf("supply count: %w", err)
	}
	return int(n), nil
}

// Close releases the Redis client.
func (c *Counter) Close() error {
	return c.rdb.Close()
}
