// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/logger"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"
)

// SnapshotCache keeps whole record snapshots in Redis so repeated page
// requests within the TTL reuse one database load. The pipeline itself
// never caches; this memoization lives entirely at the loading boundary.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewSnapshotCache builds a cache with the given entry TTL.
func NewSnapshotCache(client *redis.Client, ttl time.Duration, log logger.Logger) *SnapshotCache {
	return &SnapshotCache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "snapshot-cache"}),
	}
}

func snapshotKey(rt pipeline.RecordType) string {
	return fmt.Sprintf("snapshot:%s", rt)
}

// Ping reports whether Redis is reachable.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns the cached snapshot for a record type; ok is false on a miss.
// A corrupt entry is dropped and reported as a miss rather than failing the
// request.
func (c *SnapshotCache) Get(ctx context.Context, rt pipeline.RecordType) ([]pipeline.Record, bool) {
	payload, err := c.client.Get(ctx, snapshotKey(rt)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("snapshot cache read failed", map[string]interface{}{
				"recordType": string(rt),
				"error":      err,
			})
		}
		return nil, false
	}

	var records []pipeline.Record
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		c.logger.Warn("dropping corrupt snapshot cache entry", map[string]interface{}{
			"recordType": string(rt),
			"error":      err,
		})
		c.client.Del(ctx, snapshotKey(rt))
		return nil, false
	}
	return records, true
}

// Set stores a snapshot. Field order survives the round trip, so cached and
// fresh snapshots export identical CSV.
func (c *SnapshotCache) Set(ctx context.Context, rt pipeline.RecordType, records []pipeline.Record) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey(rt), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot for a record type, forcing the next
// request to reload from the database.
func (c *SnapshotCache) Invalidate(ctx context.Context, rt pipeline.RecordType) error {
	return c.client.Del(ctx, snapshotKey(rt)).Err()
}
