package transcript

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/af-corp/thoth/internal/telemetry"
)

const cacheKeyPrefix = "thoth:transcript:"

type cacheEntry struct {
	res       *Result
	expiresAt time.Time
}

// Cache keeps successful fetches in memory (L1) and optionally in Redis (L2).
// Failures are never cached.
type Cache struct {
	next    Source
	l1      sync.Map // video id -> *cacheEntry
	rdb     *redis.Client
	ttl     time.Duration
	metrics *telemetry.Metrics
	now     func() time.Time
}

// NewCache wraps next. rdb may be nil to disable L2.
func NewCache(next Source, rdb *redis.Client, ttl time.Duration, metrics *telemetry.Metrics) *Cache {
	return &Cache{next: next, rdb: rdb, ttl: ttl, metrics: metrics, now: time.Now}
}

func (c *Cache) Fetch(ctx context.Context, videoID string) (*Result, error) {
	if res, ok := c.get(ctx, videoID); ok {
		c.metrics.RecordCacheLookup(true)
		return res, nil
	}
	c.metrics.RecordCacheLookup(false)

	res, err := c.next.Fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, videoID, res)
	return res, nil
}

func (c *Cache) get(ctx context.Context, videoID string) (*Result, bool) {
	if val, ok := c.l1.Load(videoID); ok {
		e := val.(*cacheEntry)
		if c.now().Before(e.expiresAt) {
			return e.res, true
		}
		c.l1.Delete(videoID)
	}

	if c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, cacheKeyPrefix+videoID).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Debug("transcript cache L2 get failed", "video_id", videoID, "error", err)
		}
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	c.l1.Store(videoID, &cacheEntry{res: &res, expiresAt: c.now().Add(c.ttl)})
	return &res, true
}

func (c *Cache) set(ctx context.Context, videoID string, res *Result) {
	c.l1.Store(videoID, &cacheEntry{res: res, expiresAt: c.now().Add(c.ttl)})

	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+videoID, data, c.ttl).Err(); err != nil {
		slog.Debug("transcript cache L2 set failed", "video_id", videoID, "error", err)
	}
}

// Sweep drops expired L1 entries.
func (c *Cache) Sweep(_ context.Context) (int, error) {
	now := c.now()
	removed := 0
	c.l1.Range(func(key, val any) bool {
		if !now.Before(val.(*cacheEntry).expiresAt) {
			c.l1.Delete(key)
			removed++
		}
		return true
	})
	return removed, nil
}
