package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
)

// DefaultRatePerMinute is the per-IP request budget when none is configured.
const DefaultRatePerMinute = 300

// RouterOptions configures the cross-cutting parts of the router.
type RouterOptions struct {
	AdminToken     string
	RatePerMinute  int
	AllowedOrigins []string
}

// NewRouter builds and returns the Chi router with all routes configured.
// Only the admin refresh route requires bearer auth. Rate limiting is
// applied globally per IP.
func NewRouter(handlers *Handlers, opts RouterOptions, db dbPinger, redisClient redisPinger, log *slog.Logger) *chi.Mux {
	rate := opts.RatePerMinute
	if rate <= 0 {
		rate = DefaultRatePerMinute
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler)
	r.Use(httprate.LimitByIP(rate, time.Minute))

	r.Get("/api/health", HealthHandlerFunc(db, redisClient, log))

	r.Get("/api/dining/venues/", handlers.GetVenues)

	r.Post("/api/ratings", handlers.SubmitRating)
	r.Get("/api/ratings/{id}/average", handlers.AverageRating)

	r.Post("/api/comments", handlers.SubmitComment)
	r.Get("/api/comments/{id}", handlers.ListComments)
	r.Post("/api/comments/{id}/like", handlers.LikeComment)
	r.Post("/api/comments/{id}/unlike", handlers.UnlikeComment)

	r.Post("/api/accounts/login/", handlers.Login)
	r.Post("/api/accounts/verify/", handlers.Verify)
	r.Post("/api/deleteAccount", handlers.DeleteAccount)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(opts.AdminToken))
		r.Post("/api/admin/venues/refresh", handlers.RefreshVenues)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
