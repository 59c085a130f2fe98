package dining

import "github.com/neexbeast/dininguru/internal/venue"

// Request and response bodies shared by the client and the server.

type RatingRequest struct {
	VenueID    int              `json:"venue_id"`
	UserID     int              `json:"user_id"`
	Rating     float64          `json:"rating"`
	MealPeriod venue.MealPeriod `json:"meal_period"`
}

type CommentRequest struct {
	VenueID    int              `json:"venue_id"`
	UserID     int              `json:"user_id"`
	Text       string           `json:"text"`
	MealPeriod venue.MealPeriod `json:"meal_period"`
}

type CommentsResponse struct {
	Comments []venue.Comment `json:"comments"`
}

type CommentResponse struct {
	Message string        `json:"message"`
	Comment venue.Comment `json:"comment"`
}

type LikeRequest struct {
	UserID int `json:"user_id"`
}

type LikeResponse struct {
	Message   string `json:"message"`
	LikeCount int    `json:"like_count"`
}

type LoginRequest struct {
	Email string `json:"email"`
}

type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type VerifyResponse struct {
	UserID int `json:"user_id"`
}

type DeleteAccountRequest struct {
	UserID int `json:"userId"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
