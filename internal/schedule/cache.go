package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/careslot/clinic-booking/internal/booking"
)

// Cache is a short-TTL read-side accelerator for schedule views. Reads may
// be momentarily stale; the reserve path never goes through it, so a stale
// "available" render is still rejected at reserve time.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(departmentID uuid.UUID, start booking.Date, days int) string {
	return fmt.Sprintf("schedule:%s:%s:%d", departmentID, start, days)
}

// Get returns the cached view, or nil on a miss or a redis error.
func (c *Cache) Get(ctx context.Context, departmentID uuid.UUID, start booking.Date, days int) []DaySchedule {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, cacheKey(departmentID, start, days)).Bytes()
	if err != nil {
		return nil
	}
	var view []DaySchedule
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil
	}
	return view
}

// Set stores the view, best-effort.
func (c *Cache) Set(ctx context.Context, departmentID uuid.UUID, start booking.Date, days int, view []DaySchedule) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cacheKey(departmentID, start, days), raw, c.ttl).Err()
}

// Invalidate drops every cached view for the department. Views are keyed by
// range, so a single changed date clears them all rather than guessing which
// ranges contain it.
func (c *Cache) Invalidate(ctx context.Context, departmentID uuid.UUID, _ booking.Date) {
	if c == nil || c.client == nil {
		return
	}
	pattern := fmt.Sprintf("schedule:%s:*", departmentID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}
