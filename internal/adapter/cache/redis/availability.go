package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

const DefaultTTL = 30 * time.Second

// AvailabilityCache keeps seat counts under seats:<session_id>. Entries are
// advisory; admission always goes through the session row.
type AvailabilityCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewAvailabilityCache(client goredis.Cmdable, ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AvailabilityCache{client: client, ttl: ttl}
}

func Key(sessionID uuid.UUID) string {
	return fmt.Sprintf("seats:%s", sessionID.String())
}

func (c *AvailabilityCache) Get(ctx context.Context, sessionID uuid.UUID) (*domain.Availability, bool, error) {
	raw, err := c.client.Get(ctx, Key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var a domain.Availability
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, false, fmt.Errorf("decode availability: %w", err)
	}
	return &a, true, nil
}

func (c *AvailabilityCache) Set(ctx context.Context, a domain.Availability) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}
	if err := c.client.Set(ctx, Key(a.SessionID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	if err := c.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
