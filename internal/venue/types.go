package venue

import (
	"fmt"
	"time"
)

// DayPart is a named open/close window within a single day.
type DayPart struct {
	StartTime string `json:"starttime"`
	EndTime   string `json:"endtime"`
	Label     string `json:"label"`
}

// Day holds the schedule for one calendar date.
type Day struct {
	Date     string    `json:"date"`
	Status   string    `json:"status"`
	DayParts []DayPart `json:"dayparts"`
}

// Venue is a dining location as served by the dining API.
type Venue struct {
	ID      int            `json:"id"`
	Name    string         `json:"name"`
	Address string         `json:"address"`
	Image   *string        `json:"image,omitempty"`
	Days    []Day          `json:"days"`
	Rating  *RatingSummary `json:"rating,omitempty"`
}

// Validate reports a venue whose schedule lists the same date twice.
func (v Venue) Validate() error {
	seen := make(map[string]struct{}, len(v.Days))
	for _, d := range v.Days {
		if _, ok := seen[d.Date]; ok {
			return fmt.Errorf("venue %d: duplicate day %s", v.ID, d.Date)
		}
		seen[d.Date] = struct{}{}
	}
	return nil
}

// RatingSummary is the aggregate rating of a venue for one meal period.
type RatingSummary struct {
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

// Comment is a user's text comment on a venue for one meal period.
type Comment struct {
	ID         int        `json:"id"`
	VenueID    int        `json:"venue_id"`
	UserID     int        `json:"user_id"`
	Text       string     `json:"text"`
	MealPeriod MealPeriod `json:"meal_period,omitempty"`
	LikeCount  int        `json:"like_count"`
	HasLiked   bool       `json:"has_liked"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
