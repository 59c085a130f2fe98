package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/dininguru/internal/cache"
	"github.com/neexbeast/dininguru/internal/venue"
)

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewCache(client), mr
}

func sampleVenues() []venue.Venue {
	return []venue.Venue{
		{
			ID:   593,
			Name: "1920 Commons",
			Days: []venue.Day{{
				Date:   "2024-11-22",
				Status: "open",
				DayParts: []venue.DayPart{
					{StartTime: "2024-11-22T11:00:00", EndTime: "2024-11-22T14:00:00", Label: "Lunch"},
				},
			}},
		},
	}
}

func TestCache_SetAndGetVenues(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetVenues(ctx, sampleVenues()))

	got, err := c.GetVenues(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1920 Commons", got[0].Name)
	assert.Equal(t, "2024-11-22T14:00:00", got[0].Days[0].DayParts[0].EndTime)
}

func TestCache_GetVenues_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.GetVenues(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got, "cache miss should return nil, nil")
}

func TestCache_SetVenues_Nil(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, c.SetVenues(context.Background(), nil))
	assert.False(t, mr.Exists("venues"))
}

func TestCache_DeleteVenues(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetVenues(ctx, sampleVenues()))
	require.NoError(t, c.DeleteVenues(ctx))

	got, err := c.GetVenues(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "entry should be gone after delete")
}

func TestCache_VenuesTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetVenues(ctx, sampleVenues()))
	mr.FastForward(11 * time.Minute)

	got, err := c.GetVenues(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "entry should be expired after TTL")
}

func TestCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("venues", "{not json"))

	_, err := c.GetVenues(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling")
}

func TestCache_AveragesArePerPeriod(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetAverage(ctx, 593, venue.Lunch, venue.RatingSummary{AverageRating: 0.5, ReviewCount: 2}))
	require.NoError(t, c.SetAverage(ctx, 593, "", venue.RatingSummary{AverageRating: 0.25, ReviewCount: 4}))
	assert.True(t, mr.Exists("rating:593:lunch"))
	assert.True(t, mr.Exists("rating:593:all"))

	got, err := c.GetAverage(ctx, 593, venue.Lunch)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.ReviewCount)

	miss, err := c.GetAverage(ctx, 593, venue.Dinner)
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestCache_DeleteAverageDropsEveryPeriod(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetAverage(ctx, 593, venue.Lunch, venue.RatingSummary{ReviewCount: 1}))
	require.NoError(t, c.SetAverage(ctx, 593, "", venue.RatingSummary{ReviewCount: 1}))
	require.NoError(t, c.SetAverage(ctx, 636, venue.Lunch, venue.RatingSummary{ReviewCount: 1}))

	require.NoError(t, c.DeleteAverage(ctx, 593))

	for _, p := range []venue.MealPeriod{venue.Lunch, ""} {
		got, err := c.GetAverage(ctx, 593, p)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	other, err := c.GetAverage(ctx, 636, venue.Lunch)
	require.NoError(t, err)
	assert.NotNil(t, other, "other venues are untouched")
}

func TestCache_LoginAttempts(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := c.IncrLoginAttempts(ctx, "a@upenn.edu", 10*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	assert.Equal(t, 10*time.Minute, mr.TTL("login_attempts:a@upenn.edu"))

	other, err := c.IncrLoginAttempts(ctx, "b@upenn.edu", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other, "counts are per email")

	require.NoError(t, c.ResetLoginAttempts(ctx, "a@upenn.edu"))
	n, err := c.IncrLoginAttempts(ctx, "a@upenn.edu", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mr.FastForward(11 * time.Minute)
	n, err = c.IncrLoginAttempts(ctx, "a@upenn.edu", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counter expires with the code")
}

func TestCache_DeleteAverage_NonExistent(t *testing.T) {
	c, _ := newTestCache(t)
	require.NoError(t, c.DeleteAverage(context.Background(), 1))
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "localhost:19999")
}

func TestConnect_Miniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
