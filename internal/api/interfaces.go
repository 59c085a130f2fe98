package api

import (
	"context"

	"github.com/neexbeast/dininguru/internal/venue"
)

// Repo defines the storage operations needed by handlers.
type Repo interface {
	UserExists(ctx context.Context, id int) (bool, error)
	DeleteUser(ctx context.Context, id int) ([]int, error)
	UpsertRating(ctx context.Context, venueID, userID int, period venue.MealPeriod, value float64) error
	AverageRating(ctx context.Context, venueID int, period venue.MealPeriod) (venue.RatingSummary, error)
	UpsertComment(ctx context.Context, venueID, userID int, period venue.MealPeriod, text string) (*venue.Comment, error)
	ListComments(ctx context.Context, venueID int, period venue.MealPeriod, viewerID int) ([]venue.Comment, error)
	LikeComment(ctx context.Context, commentID, userID int) (int, error)
	UnlikeComment(ctx context.Context, commentID, userID int) (int, error)
}

// Cache defines the cache operations needed by handlers.
type Cache interface {
	GetVenues(ctx context.Context) ([]venue.Venue, error)
	SetVenues(ctx context.Context, venues []venue.Venue) error
	GetAverage(ctx context.Context, venueID int, period venue.MealPeriod) (*venue.RatingSummary, error)
	SetAverage(ctx context.Context, venueID int, period venue.MealPeriod, s venue.RatingSummary) error
	DeleteAverage(ctx context.Context, venueID int) error
}

// VenueFetcher defines the upstream venue listing needed by handlers.
// fromBackup is true when the primary source failed and the static backup
// document was served instead.
type VenueFetcher interface {
	FetchListing(ctx context.Context) (venues []venue.Venue, fromBackup bool, err error)
}

// Accounts defines the login-code flow needed by handlers.
type Accounts interface {
	RequestCode(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (int, error)
}
