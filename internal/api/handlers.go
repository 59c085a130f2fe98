package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	repo     Repo
	cache    Cache
	venues   VenueFetcher
	accounts Accounts
	log      *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(repo Repo, cache Cache, venues VenueFetcher, accounts Accounts, log *slog.Logger) *Handlers {
	return &Handlers{
		repo:     repo,
		cache:    cache,
		venues:   venues,
		accounts: accounts,
		log:      log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody decodes the JSON request body into dst, answering 400 itself
// when the body is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// intParam parses a positive integer URL parameter, answering 400 itself
// when it is not one.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}

// requireUser answers 404 when userID does not exist and 500 when the
// lookup fails.
func (h *Handlers) requireUser(w http.ResponseWriter, r *http.Request, userID int) bool {
	ok, err := h.repo.UserExists(r.Context(), userID)
	if err != nil {
		h.log.Error("user lookup failed", "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return false
	}
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return false
	}
	return true
}

// GetVenues handles GET /api/dining/venues/.
// Cache hit → return. Otherwise fetch upstream and return, caching only a
// listing from the primary source.
func (h *Handlers) GetVenues(w http.ResponseWriter, r *http.Request) {
	cached, err := h.cache.GetVenues(r.Context())
	if err != nil {
		h.log.Error("cache get venues failed", "err", err)
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	venues, fromBackup, err := h.venues.FetchListing(r.Context())
	if err != nil {
		h.log.Error("fetching venues failed", "err", err)
		writeError(w, http.StatusBadGateway, "failed to fetch venues")
		return
	}

	if !fromBackup {
		if err := h.cache.SetVenues(r.Context(), venues); err != nil {
			h.log.Warn("cache set venues failed", "err", err)
		}
	}

	writeJSON(w, http.StatusOK, venues)
}

// RefreshVenues handles POST /api/admin/venues/refresh.
// Refetches upstream and repopulates the cache. A backup listing leaves
// the cache untouched and answers 502.
func (h *Handlers) RefreshVenues(w http.ResponseWriter, r *http.Request) {
	venues, fromBackup, err := h.venues.FetchListing(r.Context())
	if err != nil {
		h.log.Error("refreshing venues failed", "err", err)
		writeError(w, http.StatusBadGateway, "failed to fetch venues")
		return
	}
	if fromBackup {
		h.log.Warn("refresh served from backup; cache left as is", "count", len(venues))
		writeError(w, http.StatusBadGateway, "primary venue source unavailable")
		return
	}

	if err := h.cache.SetVenues(r.Context(), venues); err != nil {
		h.log.Error("cache set venues failed after refresh", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to cache venues")
		return
	}

	h.log.Info("venue listing refreshed", "count", len(venues))
	writeJSON(w, http.StatusOK, map[string]any{"message": "venues refreshed", "count": len(venues)})
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc for GET /api/health.
// Pings DB and Redis; returns 200 if both ok, 503 otherwise.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		body := map[string]string{"status": "ok", "db": "ok", "redis": "ok"}
		status := http.StatusOK

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			body["db"] = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			body["redis"] = "error"
			status = http.StatusServiceUnavailable
		}

		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		writeJSON(w, status, body)
	}
}
