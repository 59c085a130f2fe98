package dining

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/dininguru/internal/venue"
)

// AverageRatings fetches every venue's average rating concurrently and
// returns once all calls have finished. Failed calls are logged and leave
// no entry in the result; they never fail the batch.
func (c *Client) AverageRatings(ctx context.Context, venueIDs []int, period venue.MealPeriod) (map[int]*venue.RatingSummary, error) {
	var g errgroup.Group
	results := make([]*venue.RatingSummary, len(venueIDs))

	for i, id := range venueIDs {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error("average rating fetch panicked", "venue_id", id, "recover", r)
					err = fmt.Errorf("average rating fetch for venue %d panicked: %v", id, r)
				}
			}()
			summary, fetchErr := c.AverageRating(ctx, id, period)
			if fetchErr != nil {
				c.log.Warn("average rating fetch failed", "venue_id", id, "err", fetchErr)
				return nil
			}
			results[i] = summary
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching average ratings: %w", err)
	}

	out := make(map[int]*venue.RatingSummary, len(venueIDs))
	for i, id := range venueIDs {
		if results[i] != nil {
			out[id] = results[i]
		}
	}
	return out, nil
}

// AttachRatings fetches ratings for venues and stores them on each venue.
func (c *Client) AttachRatings(ctx context.Context, venues []venue.Venue, period venue.MealPeriod) error {
	ids := make([]int, len(venues))
	for i, v := range venues {
		ids[i] = v.ID
	}

	ratings, err := c.AverageRatings(ctx, ids, period)
	if err != nil {
		return err
	}
	for i := range venues {
		venues[i].Rating = ratings[venues[i].ID]
	}
	return nil
}
