package dining

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/neexbeast/dininguru/internal/venue"
)

// venueLister is the interface satisfied by VenueSource.
type venueLister interface {
	FetchVenues(ctx context.Context) ([]venue.Venue, error)
}

// Client talks to the DininGuru backend. It has one method per endpoint.
type Client struct {
	baseURL string
	client  *http.Client
	venues  venueLister
	log     *slog.Logger
}

// NewClient constructs a Client for the backend at baseURL. Venue listings
// come from venues, which carries its own backup URL.
func NewClient(baseURL string, venues *VenueSource, log *slog.Logger) *Client {
	return NewClientWithLister(baseURL, venues, log)
}

// NewClientWithLister constructs a Client with an injectable venue lister (used in tests).
func NewClientWithLister(baseURL string, venues venueLister, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
		venues:  venues,
		log:     log,
	}
}

// Venues returns the venue listing.
func (c *Client) Venues(ctx context.Context) ([]venue.Venue, error) {
	return c.venues.FetchVenues(ctx)
}

// Comments lists a venue's comments for a meal period. userID, when
// non-zero, lets the server fill in HasLiked.
func (c *Client) Comments(ctx context.Context, venueID int, period venue.MealPeriod, userID int) ([]venue.Comment, error) {
	q := url.Values{}
	if period != "" {
		q.Set("meal_period", string(period))
	}
	if userID != 0 {
		q.Set("user_id", strconv.Itoa(userID))
	}

	var resp CommentsResponse
	if err := doGet(ctx, c.client, c.endpoint(fmt.Sprintf("/api/comments/%d", venueID), q), &resp); err != nil {
		return nil, fmt.Errorf("fetching comments for venue %d: %w", venueID, err)
	}
	return resp.Comments, nil
}

// SubmitComment creates the user's comment for the venue and period, or
// replaces it if one exists.
func (c *Client) SubmitComment(ctx context.Context, venueID, userID int, text string, period venue.MealPeriod) error {
	body := CommentRequest{VenueID: venueID, UserID: userID, Text: text, MealPeriod: period}
	if err := doJSON(ctx, c.client, http.MethodPost, c.endpoint("/api/comments", nil), body, nil); err != nil {
		return fmt.Errorf("submitting comment for venue %d: %w", venueID, err)
	}
	return nil
}

// LikeComment likes a comment and returns its new like count.
func (c *Client) LikeComment(ctx context.Context, commentID, userID int) (int, error) {
	return c.like(ctx, commentID, userID, "like")
}

// UnlikeComment removes the user's like and returns the new like count.
func (c *Client) UnlikeComment(ctx context.Context, commentID, userID int) (int, error) {
	return c.like(ctx, commentID, userID, "unlike")
}

func (c *Client) like(ctx context.Context, commentID, userID int, action string) (int, error) {
	var resp LikeResponse
	path := fmt.Sprintf("/api/comments/%d/%s", commentID, action)
	if err := doJSON(ctx, c.client, http.MethodPost, c.endpoint(path, nil), LikeRequest{UserID: userID}, &resp); err != nil {
		return 0, fmt.Errorf("%s comment %d: %w", action, commentID, err)
	}
	return resp.LikeCount, nil
}

// AverageRating returns a venue's average rating for a meal period.
func (c *Client) AverageRating(ctx context.Context, venueID int, period venue.MealPeriod) (*venue.RatingSummary, error) {
	q := url.Values{}
	if period != "" {
		q.Set("meal_period", string(period))
	}

	var resp venue.RatingSummary
	if err := doGet(ctx, c.client, c.endpoint(fmt.Sprintf("/api/ratings/%d/average", venueID), q), &resp); err != nil {
		return nil, fmt.Errorf("fetching average rating for venue %d: %w", venueID, err)
	}
	return &resp, nil
}

// SubmitRating records the user's rating for the venue and period; a
// second submission overwrites the first.
func (c *Client) SubmitRating(ctx context.Context, venueID, userID int, rating venue.Rating, period venue.MealPeriod) error {
	body := RatingRequest{VenueID: venueID, UserID: userID, Rating: rating.Value(), MealPeriod: period}
	if err := doJSON(ctx, c.client, http.MethodPost, c.endpoint("/api/ratings", nil), body, nil); err != nil {
		return fmt.Errorf("submitting rating for venue %d: %w", venueID, err)
	}
	return nil
}

// RequestLoginCode asks the backend to email a one-time code.
func (c *Client) RequestLoginCode(ctx context.Context, email string) error {
	if err := doJSON(ctx, c.client, http.MethodPost, c.endpoint("/api/accounts/login/", nil), LoginRequest{Email: email}, nil); err != nil {
		return fmt.Errorf("requesting login code: %w", err)
	}
	return nil
}

// VerifyLoginCode exchanges an emailed code for the user's id.
func (c *Client) VerifyLoginCode(ctx context.Context, email, code string) (int, error) {
	var resp VerifyResponse
	body := VerifyRequest{Email: email, Code: code}
	if err := doJSON(ctx, c.client, http.MethodPost, c.endpoint("/api/accounts/verify/", nil), body, &resp); err != nil {
		return 0, fmt.Errorf("verifying login code: %w", err)
	}
	if resp.UserID == 0 {
		return 0, fmt.Errorf("verifying login code: %w", ErrNoData)
	}
	return resp.UserID, nil
}

// DeleteAccount removes the user and everything they posted.
func (c *Client) DeleteAccount(ctx context.Context, userID int) error {
	if err := doJSON(ctx, c.client, http.MethodPost, c.endpoint("/api/deleteAccount", nil), DeleteAccountRequest{UserID: userID}, nil); err != nil {
		return fmt.Errorf("deleting account %d: %w", userID, err)
	}
	return nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	if len(q) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + q.Encode()
}
