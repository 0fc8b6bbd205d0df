package porecap

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const (
	recapKeyPrefix  = "porecap:recap"
	recapVersionKey = recapKeyPrefix + ":version"
)

// Cache keeps assembled recap documents in Redis. Every document key embeds
// the dataset version, so one Invalidate after a write retires all cached
// recaps on every instance sharing the Redis database.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a recap cache. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the dataset version, starting at 1.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, recapVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, recapVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, recapVersionKey).Int64()
	}
	return ver, err
}

// Invalidate moves the dataset to a new version. Documents stored under the
// old version are never read again and expire with their TTL.
func (c *Cache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, recapVersionKey).Err()
}

func recapKey(ver int64, filter Filter) string {
	return recapKeyPrefix + ":" + strconv.FormatInt(ver, 10) + ":" + filter.CacheKey()
}

// Recap returns the cached document for filter, calling build and storing
// its result on a miss. Hits and misses both return the stored JSON form so
// callers see the same document either way.
func (c *Cache) Recap(ctx context.Context, filter Filter, build func(context.Context, Filter) (Document, error)) (Document, error) {
	if !c.enabled() {
		return build(ctx, filter)
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("porecap cache: version: %w", err)
	}
	key := recapKey(ver, filter)

	var doc Document
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Document{}, fmt.Errorf("porecap cache: decode %s: %w", key, err)
		}
		return doc, nil
	case !errors.Is(err, redis.Nil):
		return Document{}, fmt.Errorf("porecap cache: get: %w", err)
	}

	built, err := build(ctx, filter)
	if err != nil {
		return Document{}, err
	}
	raw, err = json.Marshal(built)
	if err != nil {
		return Document{}, fmt.Errorf("porecap cache: encode: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return Document{}, fmt.Errorf("porecap cache: set: %w", err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// CacheKey returns a stable digest of the filter. Company order and
// surrounding whitespace do not change the key; the search term keeps its
// case because the report subtitle quotes it.
func (flt Filter) CacheKey() string {
	companies := make([]string, 0, len(flt.Companies))
	for _, c := range flt.Companies {
		companies = append(companies, strings.TrimSpace(c))
	}
	sort.Strings(companies)
	canonical := strings.Join([]string{
		strings.Join(companies, "\x1f"),
		strings.TrimSpace(flt.Search),
		strconv.Itoa(flt.Year),
		strconv.Itoa(flt.Month),
	}, "\x1e")
	sum := blake2b.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:16])
}
