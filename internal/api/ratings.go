package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/neexbeast/dininguru/internal/dining"
	"github.com/neexbeast/dininguru/internal/storage"
	"github.com/neexbeast/dininguru/internal/venue"
)

// periodQuery reads the optional meal_period query parameter. An empty
// value means every period.
func periodQuery(w http.ResponseWriter, r *http.Request) (venue.MealPeriod, bool) {
	raw := r.URL.Query().Get("meal_period")
	if raw == "" {
		return "", true
	}
	p, err := venue.ParseMealPeriod(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return p, true
}

// SubmitRating handles POST /api/ratings.
func (h *Handlers) SubmitRating(w http.ResponseWriter, r *http.Request) {
	var req dining.RatingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.VenueID <= 0 || req.UserID <= 0 || req.MealPeriod == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	period, err := venue.ParseMealPeriod(string(req.MealPeriod))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := venue.RatingFromValue(req.Rating); !ok {
		writeError(w, http.StatusBadRequest, "rating must be one of -1, -0.5, 0, 0.5, 1")
		return
	}

	if !h.requireUser(w, r, req.UserID) {
		return
	}

	if err := h.repo.UpsertRating(r.Context(), req.VenueID, req.UserID, period, req.Rating); err != nil {
		h.log.Error("upsert rating failed", "venue_id", req.VenueID, "user_id", req.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store rating")
		return
	}

	if err := h.cache.DeleteAverage(r.Context(), req.VenueID); err != nil {
		h.log.Warn("cache delete average failed", "venue_id", req.VenueID, "err", err)
	}

	writeJSON(w, http.StatusCreated, dining.MessageResponse{Message: "rating submitted"})
}

// AverageRating handles GET /api/ratings/{id}/average.
// Cache hit → return. Otherwise aggregate in the DB and cache.
func (h *Handlers) AverageRating(w http.ResponseWriter, r *http.Request) {
	venueID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	period, ok := periodQuery(w, r)
	if !ok {
		return
	}

	cached, err := h.cache.GetAverage(r.Context(), venueID, period)
	if err != nil {
		h.log.Error("cache get average failed", "venue_id", venueID, "err", err)
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := h.repo.AverageRating(r.Context(), venueID, period)
	if err != nil {
		h.log.Error("average rating failed", "venue_id", venueID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.cache.SetAverage(r.Context(), venueID, period, summary); err != nil {
		h.log.Warn("cache set average failed", "venue_id", venueID, "err", err)
	}

	writeJSON(w, http.StatusOK, summary)
}

// ListComments handles GET /api/comments/{id}. The optional user_id
// query parameter fills in has_liked; an unparseable one is ignored.
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	venueID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	period, ok := periodQuery(w, r)
	if !ok {
		return
	}
	viewer, _ := strconv.Atoi(r.URL.Query().Get("user_id"))

	comments, err := h.repo.ListComments(r.Context(), venueID, period, viewer)
	if err != nil {
		h.log.Error("list comments failed", "venue_id", venueID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, dining.CommentsResponse{Comments: comments})
}

// SubmitComment handles POST /api/comments.
func (h *Handlers) SubmitComment(w http.ResponseWriter, r *http.Request) {
	var req dining.CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	text := strings.TrimSpace(req.Text)
	if req.VenueID <= 0 || req.UserID <= 0 || text == "" || req.MealPeriod == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	period, err := venue.ParseMealPeriod(string(req.MealPeriod))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.requireUser(w, r, req.UserID) {
		return
	}

	comment, err := h.repo.UpsertComment(r.Context(), req.VenueID, req.UserID, period, text)
	if err != nil {
		h.log.Error("upsert comment failed", "venue_id", req.VenueID, "user_id", req.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store comment")
		return
	}

	writeJSON(w, http.StatusCreated, dining.CommentResponse{Message: "comment submitted", Comment: *comment})
}

// LikeComment handles POST /api/comments/{id}/like.
func (h *Handlers) LikeComment(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, true)
}

// UnlikeComment handles POST /api/comments/{id}/unlike.
func (h *Handlers) UnlikeComment(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, false)
}

func (h *Handlers) like(w http.ResponseWriter, r *http.Request, like bool) {
	commentID, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	var req dining.LikeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "missing user_id")
		return
	}

	if !h.requireUser(w, r, req.UserID) {
		return
	}

	var count int
	var err error
	msg := "comment liked"
	if like {
		count, err = h.repo.LikeComment(r.Context(), commentID, req.UserID)
	} else {
		msg = "comment unliked"
		count, err = h.repo.UnlikeComment(r.Context(), commentID, req.UserID)
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "comment not found")
	case errors.Is(err, storage.ErrAlreadyLiked):
		writeError(w, http.StatusBadRequest, "you have already liked this comment")
	case errors.Is(err, storage.ErrNotLiked):
		writeError(w, http.StatusBadRequest, "you have not liked this comment")
	case err != nil:
		h.log.Error("like comment failed", "comment_id", commentID, "user_id", req.UserID, "like", like, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusOK, dining.LikeResponse{Message: msg, LikeCount: count})
	}
}
