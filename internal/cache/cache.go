package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/dininguru/internal/venue"
)

const defaultTTL = 10 * time.Minute

const venuesKey = "venues"

// allPeriods is the key suffix for averages taken across every meal period.
const allPeriods = "all"

// Cache wraps a Redis client and provides typed get/set/delete for the
// venue listing and per-venue average ratings.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with a 10-minute TTL.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: defaultTTL}
}

// averageKey returns the Redis key for a venue's average in period.
func averageKey(venueID int, period venue.MealPeriod) string {
	p := string(period)
	if p == "" {
		p = allPeriods
	}
	return "rating:" + strconv.Itoa(venueID) + ":" + p
}

// GetVenues retrieves the cached venue listing.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) GetVenues(ctx context.Context) ([]venue.Venue, error) {
	var venues []venue.Venue
	ok, err := c.get(ctx, venuesKey, &venues)
	if err != nil || !ok {
		return nil, err
	}
	return venues, nil
}

// SetVenues stores the venue listing with the configured TTL. A nil
// listing is not cached.
func (c *Cache) SetVenues(ctx context.Context, venues []venue.Venue) error {
	if venues == nil {
		return nil
	}
	return c.set(ctx, venuesKey, venues)
}

// DeleteVenues drops the cached listing.
func (c *Cache) DeleteVenues(ctx context.Context) error {
	if err := c.client.Del(ctx, venuesKey).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", venuesKey, err)
	}
	return nil
}

// GetAverage retrieves a venue's cached average for period.
// Returns nil, nil on a cache miss.
func (c *Cache) GetAverage(ctx context.Context, venueID int, period venue.MealPeriod) (*venue.RatingSummary, error) {
	var s venue.RatingSummary
	ok, err := c.get(ctx, averageKey(venueID, period), &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// SetAverage caches a venue's average for period.
func (c *Cache) SetAverage(ctx context.Context, venueID int, period venue.MealPeriod, s venue.RatingSummary) error {
	return c.set(ctx, averageKey(venueID, period), s)
}

// DeleteAverage drops every cached average of a venue, per period and
// across all periods.
func (c *Cache) DeleteAverage(ctx context.Context, venueID int) error {
	keys := []string{averageKey(venueID, "")}
	for _, p := range []venue.MealPeriod{venue.Breakfast, venue.Lunch, venue.Dinner, venue.Closed} {
		keys = append(keys, averageKey(venueID, p))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete averages for venue %d: %w", venueID, err)
	}
	return nil
}

func attemptsKey(email string) string {
	return "login_attempts:" + email
}

// IncrLoginAttempts counts one failed verification for email and returns
// the new count. The counter expires ttl after the first failure.
func (c *Cache) IncrLoginAttempts(ctx context.Context, email string, ttl time.Duration) (int64, error) {
	key := attemptsKey(email)
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache incr %s: %w", key, err)
	}
	if n == 1 {
		if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("cache expire %s: %w", key, err)
		}
	}
	return n, nil
}

// ResetLoginAttempts clears the failure count for email.
func (c *Cache) ResetLoginAttempts(ctx context.Context, email string) error {
	key := attemptsKey(email)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), dst); err != nil {
		return false, fmt.Errorf("unmarshaling cached %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
