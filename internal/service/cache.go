package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jask/signalfromnoise/internal/database/repository"
)

const cacheKeyPrefix = "sfn:categories:"

// CategoryCache keeps category counts in redis, msgpack encoded.
type CategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCategoryCache connects to addr and verifies the connection.
func NewCategoryCache(ctx context.Context, addr string, ttl time.Duration) (*CategoryCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &CategoryCache{client: client, ttl: ttl}, nil
}

func (c *CategoryCache) Close() error {
	return c.client.Close()
}

func cacheKey(requestID int64) string {
	if requestID == 0 {
		return cacheKeyPrefix + "all"
	}
	return cacheKeyPrefix + strconv.FormatInt(requestID, 10)
}

type cachedTotal struct {
	Category string `msgpack:"c"`
	Count    int    `msgpack:"n"`
}

// Get returns the cached counts for requestID; ok is false on a miss.
func (c *CategoryCache) Get(ctx context.Context, requestID int64) ([]repository.CategoryTotal, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(requestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var cached []cachedTotal
	if err := msgpack.Unmarshal(raw, &cached); err != nil {
		return nil, false, fmt.Errorf("decode cached categories: %w", err)
	}
	out := make([]repository.CategoryTotal, len(cached))
	for i, ct := range cached {
		out[i] = repository.CategoryTotal{Category: ct.Category, Count: ct.Count}
	}
	return out, true, nil
}

func (c *CategoryCache) Set(ctx context.Context, requestID int64, totals []repository.CategoryTotal) error {
	cached := make([]cachedTotal, len(totals))
	for i, t := range totals {
		cached[i] = cachedTotal{Category: t.Category, Count: t.Count}
	}
	raw, err := msgpack.Marshal(cached)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(requestID), raw, c.ttl).Err()
}

// Invalidate drops every cached count; the catalog calls it after imports.
func (c *CategoryCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
