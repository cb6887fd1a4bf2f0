package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// DedupStore implements domain.DedupStore with one string key per
// opportunity holding the report time in Unix milliseconds. Keys carry a PX
// expiry equal to the cooldown, so Redis drops them without a sweep and
// several engine instances can share the window.
type DedupStore struct {
	c *Client
}

// NewDedupStore creates a DedupStore backed by the given Client.
func NewDedupStore(c *Client) *DedupStore {
	return &DedupStore{c: c}
}

func (s *DedupStore) key(k string) string {
	return s.c.Key("dedup:" + k)
}

// LastReported returns when key was last reported. ok is false when the key
// is absent or expired.
func (s *DedupStore) LastReported(ctx context.Context, key string) (time.Time, bool, error) {
	raw, err := s.c.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis: get dedup %s: %w", key, err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis: parse dedup %s: %w", key, err)
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

// MarkReported records at for key with a ttl expiry.
func (s *DedupStore) MarkReported(ctx context.Context, key string, at time.Time, ttl time.Duration) error {
	if err := s.c.rdb.Set(ctx, s.key(key), strconv.FormatInt(at.UnixMilli(), 10), ttl).Err(); err != nil {
		return fmt.Errorf("redis: set dedup %s: %w", key, err)
	}
	return nil
}

var _ domain.DedupStore = (*DedupStore)(nil)
