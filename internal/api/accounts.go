package api

import (
	"errors"
	"net/http"

	"github.com/neexbeast/dininguru/internal/accounts"
	"github.com/neexbeast/dininguru/internal/dining"
	"github.com/neexbeast/dininguru/internal/storage"
)

// Login handles POST /api/accounts/login/.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req dining.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.accounts.RequestCode(r.Context(), req.Email); err != nil {
		if errors.Is(err, accounts.ErrInvalidEmail) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("issuing login code failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to send login code")
		return
	}

	writeJSON(w, http.StatusOK, dining.MessageResponse{Message: "login code sent"})
}

// Verify handles POST /api/accounts/verify/.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	var req dining.VerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.accounts.Verify(r.Context(), req.Email, req.Code)
	switch {
	case errors.Is(err, accounts.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, accounts.ErrInvalidCode):
		writeError(w, http.StatusUnauthorized, err.Error())
	case err != nil:
		h.log.Error("verifying login code failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusOK, dining.VerifyResponse{UserID: id})
	}
}

// DeleteAccount handles POST /api/deleteAccount. Cached averages of every
// venue the user rated are dropped.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req dining.DeleteAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	rated, err := h.repo.DeleteUser(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error("delete user failed", "user_id", req.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}

	for _, venueID := range rated {
		if err := h.cache.DeleteAverage(r.Context(), venueID); err != nil {
			h.log.Warn("cache delete average failed", "venue_id", venueID, "err", err)
		}
	}

	h.log.Info("account deleted", "user_id", req.UserID)
	writeJSON(w, http.StatusOK, dining.MessageResponse{Message: "account deleted"})
}
