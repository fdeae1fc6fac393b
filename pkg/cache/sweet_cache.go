package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sweetKeyPrefix = "sweet"

// ErrStale is returned by Set when the cache already holds the same or a
// newer version of the sweet.
var ErrStale = errors.New("cache: stale write ignored")

// setIfNewer replaces the hash only when ARGV[1] is greater than the stored
// version. A tombstone carries a version too, so a late event for a deleted
// sweet cannot bring it back.
//
// KEYS[1] key, ARGV[1] version, ARGV[2] ttl ms, ARGV[3..] field/value pairs.
var setIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], unpack(ARGV, 3))
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// CachedSweet is the denormalized read model stored as a Redis hash.
// Price is kept as its two-decimal string so no float ever touches it.
type CachedSweet struct {
	ID        uuid.UUID
	Name      string
	Category  string
	Price     string
	Quantity  int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SweetCache reads and writes "sweet:{id}" hashes.
type SweetCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewSweetCache returns a SweetCache whose entries expire after ttl.
func NewSweetCache(r *RedisClient, ttl time.Duration) *SweetCache {
	return &SweetCache{client: r, ttl: ttl}
}

// Get returns the cached sweet. A missing key or a tombstone yields redis.Nil.
func (c *SweetCache) Get(ctx context.Context, id uuid.UUID) (*CachedSweet, error) {
	vals, err := c.client.Client().HGetAll(ctx, SweetKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 || vals["deleted"] == "1" {
		return nil, redis.Nil
	}
	return decodeSweet(vals)
}

// Set stores s unless the cache already holds version s.Version or newer,
// in which case ErrStale is returned.
func (c *SweetCache) Set(ctx context.Context, s *CachedSweet) error {
	return c.write(ctx, s.ID, s.Version, c.ttl, encodeSweet(s))
}

// Delete leaves a tombstone at version so older snapshots are rejected.
// The tombstone expires with the same TTL as a live entry.
func (c *SweetCache) Delete(ctx context.Context, id uuid.UUID, version int64) error {
	return c.write(ctx, id, version, c.ttl, []any{
		"version", strconv.FormatInt(version, 10),
		"deleted", "1",
	})
}

func (c *SweetCache) write(ctx context.Context, id uuid.UUID, version int64, ttl time.Duration, fields []any) error {
	args := append([]any{version, ttl.Milliseconds()}, fields...)
	applied, err := setIfNewer.Run(ctx, c.client.Client(), []string{SweetKey(id)}, args...).Int()
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	if applied == 0 {
		return ErrStale
	}
	return nil
}

// SweetKey builds the Redis key: "sweet:{id}".
func SweetKey(id uuid.UUID) string {
	return sweetKeyPrefix + ":" + id.String()
}

func encodeSweet(s *CachedSweet) []any {
	return []any{
		"id", s.ID.String(),
		"name", s.Name,
		"category", s.Category,
		"price", s.Price,
		"quantity", strconv.FormatInt(s.Quantity, 10),
		"version", strconv.FormatInt(s.Version, 10),
		"created_at", s.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at", s.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeSweet(vals map[string]string) (*CachedSweet, error) {
	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	qty, err := strconv.ParseInt(vals["quantity"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache parse quantity: %w", err)
	}
	version, err := strconv.ParseInt(vals["version"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache parse version: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, vals["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse updated_at: %w", err)
	}
	return &CachedSweet{
		ID:        id,
		Name:      vals["name"],
		Category:  vals["category"],
		Price:     vals["price"],
		Quantity:  qty,
		Version:   version,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
