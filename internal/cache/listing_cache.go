// Package cache provides an optional redis read-through cache for property
// listing responses. All methods are nil-receiver safe so callers need no
// "is caching on" branches.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const listingPrefix = "properties"

type ListingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns nil when addr is empty; a nil cache is a no-op.
func New(addr, password string, ttl time.Duration) *ListingCache {
	if addr == "" {
		return nil
	}
	return &ListingCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
		}),
		ttl: ttl,
	}
}

// Key builds a stable cache key from sorted query parameters.
func (c *ListingCache) Key(queryParams map[string]string) string {
	keys := make([]string, 0, len(queryParams))
	for k := range queryParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(":")
		}
		builder.WriteString(k)
		builder.WriteString("=")
		builder.WriteString(queryParams[k])
	}

	hash := md5.Sum([]byte(builder.String()))
	return listingPrefix + ":" + hex.EncodeToString(hash[:])
}

// Get reports whether the key was found, unmarshalling into dest if so.
func (c *ListingCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(data), dest)
}

func (c *ListingCache) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate drops every cached listing page; called after any property
// write.
func (c *ListingCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	iter := c.rdb.Scan(ctx, 0, listingPrefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
