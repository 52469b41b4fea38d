package floorplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CongestionCache stores finished congestion reports. Keys embed the map
// revision, so entries for a mutated map are simply never read again.
type CongestionCache interface {
	Get(ctx context.Context, key string) (*CongestionReport, bool, error)
	Set(ctx context.Context, key string, report CongestionReport) error
}

type RedisCongestionCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewRedisCongestionCache(client goredis.Cmdable, ttl time.Duration) *RedisCongestionCache {
	return &RedisCongestionCache{client: client, ttl: ttl}
}

func (c *RedisCongestionCache) Get(ctx context.Context, key string) (*CongestionReport, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read congestion cache: %w", err)
	}

	var report CongestionReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached congestion report: %w", err)
	}
	return &report, true, nil
}

func (c *RedisCongestionCache) Set(ctx context.Context, key string, report CongestionReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode congestion report: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write congestion cache: %w", err)
	}
	return nil
}

func congestionCacheKey(epoch string, mapID int, revision uint64, q CongestionQuery) string {
	filter := "none"
	if q.FilterSpaceID != nil {
		filter = fmt.Sprintf("%d", *q.FilterSpaceID)
	}
	return fmt.Sprintf("floorplan:congestion:%s:%d:%d:%d:%d:%s:%s",
		epoch, mapID, revision, q.FromPeriod, q.ToPeriod, filter, q.Direction)
}
