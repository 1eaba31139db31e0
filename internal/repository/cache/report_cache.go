package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// NewRedisClient connects to the Redis server at url
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisReportCache implements domain.ReportImageCache on Redis
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReportCache creates a report image cache whose entries expire after ttl
func NewRedisReportCache(client *redis.Client, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{client: client, ttl: ttl}
}

// Get returns the cached image, if any
func (c *RedisReportCache) Get(ctx context.Context, key domain.ReportImageKey) ([]byte, bool, error) {
	img, err := c.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return img, true, nil
}

func generationKey(userID int64) string {
	return fmt.Sprintf("report_image_gen:%d", userID)
}

// Generation returns the user's invalidation counter, 0 before the first invalidation
func (c *RedisReportCache) Generation(ctx context.Context, userID int64) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set stores an image with the configured TTL unless the user's generation moved past gen.
// The check and the write run under WATCH so an invalidation cannot slip in between.
func (c *RedisReportCache) Set(ctx context.Context, key domain.ReportImageKey, gen int64, image []byte) (bool, error) {
	genKey := generationKey(key.UserID)
	stored := false
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key.String(), image, c.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		stored = true
		return nil
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// Invalidate advances the user's generation and removes images affected by a change in year/month
func (c *RedisReportCache) Invalidate(ctx context.Context, userID int64, year, month int) error {
	if err := c.client.Incr(ctx, generationKey(userID)).Err(); err != nil {
		return err
	}

	switch {
	case year == 0:
		var patterns []string
		for _, t := range domain.AllChartTypes() {
			patterns = append(patterns, fmt.Sprintf("report_image:%s:%d:*", t, userID))
		}
		return c.deleteMatching(ctx, patterns)
	case month == 0:
		var patterns, keys []string
		for _, t := range domain.MonthScopedCharts {
			patterns = append(patterns, fmt.Sprintf("report_image:%s:%d:%d:*", t, userID, year))
		}
		for _, t := range domain.YearScopedCharts {
			keys = append(keys, domain.ReportImageKey{Type: t, UserID: userID, Year: year}.String())
		}
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
		return c.deleteMatching(ctx, patterns)
	default:
		var keys []string
		for _, k := range domain.AffectedImageKeys(userID, year, month) {
			keys = append(keys, k.String())
		}
		return c.client.Del(ctx, keys...).Err()
	}
}

// deleteMatching walks the keyspace with SCAN so large instances are not blocked
func (c *RedisReportCache) deleteMatching(ctx context.Context, patterns []string) error {
	for _, pattern := range patterns {
		var batch []string
		iter := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == scanBatch {
				if err := c.client.Del(ctx, batch...).Err(); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(batch) > 0 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// NoopReportCache is used when Redis is not configured
type NoopReportCache struct{}

func (NoopReportCache) Get(context.Context, domain.ReportImageKey) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Generation(context.Context, int64) (int64, error) { return 0, nil }

func (NoopReportCache) Set(context.Context, domain.ReportImageKey, int64, []byte) (bool, error) {
	return false, nil
}

func (NoopReportCache) Invalidate(context.Context, int64, int, int) error { return nil }
