package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/dininguru/internal/venue"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyLiked = errors.New("comment already liked")
	ErrNotLiked     = errors.New("comment not liked")
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides database access for users, ratings and comments.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// LoginCode is a pending one-time login code.
type LoginCode struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
}

// ---- users ----

// EnsureUser returns the id of the user with email, creating it if needed.
func (r *Repository) EnsureUser(ctx context.Context, email string) (int, error) {
	const q = `
		INSERT INTO users (email) VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id
	`

	var id int
	if err := r.q.QueryRow(ctx, q, email).Scan(&id); err != nil {
		return 0, fmt.Errorf("ensuring user %s: %w", email, err)
	}
	return id, nil
}

// UserExists reports whether a user with id exists.
func (r *Repository) UserExists(ctx context.Context, id int) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking user %d: %w", id, err)
	}
	return ok, nil
}

// DeleteUser removes a user; ratings, comments and likes cascade. It
// returns the venues the user had rated so their cached averages can be
// dropped.
func (r *Repository) DeleteUser(ctx context.Context, id int) ([]int, error) {
	const q = `
		WITH rated AS (
			SELECT DISTINCT venue_id FROM ratings WHERE user_id = $1
		), gone AS (
			DELETE FROM users WHERE id = $1 RETURNING id
		)
		SELECT (SELECT COUNT(*) FROM gone), ARRAY(SELECT venue_id FROM rated)
	`

	var deleted int
	var venues []int
	if err := r.q.QueryRow(ctx, q, id).Scan(&deleted, &venues); err != nil {
		return nil, fmt.Errorf("deleting user %d: %w", id, err)
	}
	if deleted == 0 {
		return nil, ErrNotFound
	}
	return venues, nil
}

// ---- login codes ----

// SaveLoginCode stores the hash of a new code for email, replacing any
// earlier one.
func (r *Repository) SaveLoginCode(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	const q = `
		INSERT INTO login_codes (email, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (email) DO UPDATE
		SET code_hash  = EXCLUDED.code_hash,
		    expires_at = EXCLUDED.expires_at,
		    created_at = EXCLUDED.created_at
	`

	if _, err := r.q.Exec(ctx, q, email, codeHash, expiresAt); err != nil {
		return fmt.Errorf("saving login code for %s: %w", email, err)
	}
	return nil
}

// GetLoginCode returns the pending code for email, or ErrNotFound.
func (r *Repository) GetLoginCode(ctx context.Context, email string) (*LoginCode, error) {
	const q = `SELECT email, code_hash, expires_at FROM login_codes WHERE email = $1`

	var c LoginCode
	if err := r.q.QueryRow(ctx, q, email).Scan(&c.Email, &c.CodeHash, &c.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying login code for %s: %w", email, err)
	}
	return &c, nil
}

// DeleteLoginCode removes the pending code for email.
func (r *Repository) DeleteLoginCode(ctx context.Context, email string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM login_codes WHERE email = $1`, email); err != nil {
		return fmt.Errorf("deleting login code for %s: %w", email, err)
	}
	return nil
}

// ---- ratings ----

// UpsertRating records a user's rating of a venue for a meal period,
// replacing any earlier rating for the same triple.
func (r *Repository) UpsertRating(ctx context.Context, venueID, userID int, period venue.MealPeriod, value float64) error {
	const q = `
		INSERT INTO ratings (venue_id, user_id, meal_period, rating)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (venue_id, user_id, meal_period) DO UPDATE
		SET rating     = EXCLUDED.rating,
		    updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, q, venueID, userID, string(period), value); err != nil {
		return fmt.Errorf("upserting rating for venue %d user %d: %w", venueID, userID, err)
	}
	return nil
}

// AverageRating aggregates a venue's ratings. An empty period aggregates
// across all periods. No ratings yields a zero summary.
func (r *Repository) AverageRating(ctx context.Context, venueID int, period venue.MealPeriod) (venue.RatingSummary, error) {
	const q = `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM ratings
		WHERE venue_id = $1
		AND ($2::text = '' OR meal_period = $2::text)
	`

	var s venue.RatingSummary
	if err := r.q.QueryRow(ctx, q, venueID, string(period)).Scan(&s.AverageRating, &s.ReviewCount); err != nil {
		return venue.RatingSummary{}, fmt.Errorf("averaging ratings for venue %d: %w", venueID, err)
	}
	return s, nil
}

// ---- comments ----

// UpsertComment creates or replaces a user's comment on a venue for a
// meal period.
func (r *Repository) UpsertComment(ctx context.Context, venueID, userID int, period venue.MealPeriod, text string) (*venue.Comment, error) {
	const q = `
		INSERT INTO comments (venue_id, user_id, meal_period, text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (venue_id, user_id, meal_period) DO UPDATE
		SET text       = EXCLUDED.text,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at,
		          (SELECT COUNT(*) FROM comment_likes l WHERE l.comment_id = comments.id)
	`

	c := venue.Comment{VenueID: venueID, UserID: userID, MealPeriod: period, Text: text}
	if err := r.q.QueryRow(ctx, q, venueID, userID, string(period), text).Scan(
		&c.ID,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.LikeCount,
	); err != nil {
		return nil, fmt.Errorf("upserting comment for venue %d user %d: %w", venueID, userID, err)
	}
	return &c, nil
}

// ListComments returns a venue's comments newest first. An empty period
// lists all periods. viewerID, when non-zero, fills in HasLiked.
func (r *Repository) ListComments(ctx context.Context, venueID int, period venue.MealPeriod, viewerID int) ([]venue.Comment, error) {
	const q = `
		SELECT c.id, c.venue_id, c.user_id, c.meal_period, c.text, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM comment_likes l WHERE l.comment_id = c.id),
		       EXISTS (SELECT 1 FROM comment_likes l WHERE l.comment_id = c.id AND l.user_id = $3)
		FROM comments c
		WHERE c.venue_id = $1
		AND ($2::text = '' OR c.meal_period = $2::text)
		ORDER BY c.created_at DESC, c.id DESC
	`

	rows, err := r.q.Query(ctx, q, venueID, string(period), viewerID)
	if err != nil {
		return nil, fmt.Errorf("querying comments for venue %d: %w", venueID, err)
	}
	defer rows.Close()

	comments := []venue.Comment{}
	for rows.Next() {
		var c venue.Comment
		var mealPeriod string
		if err := rows.Scan(
			&c.ID,
			&c.VenueID,
			&c.UserID,
			&mealPeriod,
			&c.Text,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.LikeCount,
			&c.HasLiked,
		); err != nil {
			return nil, fmt.Errorf("scanning comment row: %w", err)
		}
		c.MealPeriod = venue.MealPeriod(mealPeriod)
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comment rows: %w", err)
	}

	return comments, nil
}

// LikeComment adds userID's like and returns the new like count.
func (r *Repository) LikeComment(ctx context.Context, commentID, userID int) (int, error) {
	if err := r.commentExists(ctx, commentID); err != nil {
		return 0, err
	}

	tag, err := r.q.Exec(ctx, `
		INSERT INTO comment_likes (comment_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, commentID, userID)
	if err != nil {
		return 0, fmt.Errorf("liking comment %d: %w", commentID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrAlreadyLiked
	}

	return r.likeCount(ctx, commentID)
}

// UnlikeComment removes userID's like and returns the new like count.
func (r *Repository) UnlikeComment(ctx context.Context, commentID, userID int) (int, error) {
	if err := r.commentExists(ctx, commentID); err != nil {
		return 0, err
	}

	tag, err := r.q.Exec(ctx, `DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`, commentID, userID)
	if err != nil {
		return 0, fmt.Errorf("unliking comment %d: %w", commentID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNotLiked
	}

	return r.likeCount(ctx, commentID)
}

func (r *Repository) commentExists(ctx context.Context, commentID int) error {
	var ok bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM comments WHERE id = $1)`, commentID).Scan(&ok); err != nil {
		return fmt.Errorf("checking comment %d: %w", commentID, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) likeCount(ctx context.Context, commentID int) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM comment_likes WHERE comment_id = $1`, commentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting likes for comment %d: %w", commentID, err)
	}
	return n, nil
}
