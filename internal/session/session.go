package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GuestValidity is how long a guest session lasts before the user is asked
// to sign in again.
const GuestValidity = 24 * time.Hour

// State is the login state of the app.
type State string

const (
	LoggedOut           State = "logged_out"
	Guest               State = "guest"
	PendingVerification State = "pending_verification"
	LoggedIn            State = "logged_in"
)

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrNotLoggedIn       = errors.New("not logged in")
)

// Preferences is everything the app persists between runs.
type Preferences struct {
	State        State      `json:"state"`
	UserID       *int       `json:"user_id,omitempty"`
	Email        string     `json:"email,omitempty"`
	GuestID      string     `json:"guest_id,omitempty"`
	GuestLoginAt *time.Time `json:"guest_login_at,omitempty"`
	Favorites    []int      `json:"favorites,omitempty"`
}

// Store loads and saves Preferences. Load returns zero Preferences when
// nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (Preferences, error)
	Save(ctx context.Context, p Preferences) error
}

// Session owns the login state and favorites. Every mutating call is
// persisted through the Store before it returns.
type Session struct {
	store Store
	prefs Preferences
}

// Open loads a Session from store.
func Open(ctx context.Context, store Store) (*Session, error) {
	p, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	if p.State == "" {
		p.State = LoggedOut
	}
	return &Session{store: store, prefs: p}, nil
}

// State returns the current state.
func (s *Session) State() State { return s.prefs.State }

// Email returns the email being verified or signed in, if any.
func (s *Session) Email() string { return s.prefs.Email }

// GuestID returns the identifier of the current guest session, if any.
func (s *Session) GuestID() string { return s.prefs.GuestID }

// UserID returns the signed-in user's id.
func (s *Session) UserID() (int, error) {
	if s.prefs.State != LoggedIn || s.prefs.UserID == nil {
		return 0, ErrNotLoggedIn
	}
	return *s.prefs.UserID, nil
}

// Active reports whether the user is past the login screen (signed in or
// browsing as a guest).
func (s *Session) Active() bool {
	return s.prefs.State == LoggedIn || s.prefs.State == Guest
}

// LoginAsGuest starts a guest session.
func (s *Session) LoginAsGuest(ctx context.Context, now time.Time) error {
	if err := s.expect(LoggedOut); err != nil {
		return err
	}
	at := now
	s.prefs.State = Guest
	s.prefs.GuestID = uuid.NewString()
	s.prefs.GuestLoginAt = &at
	s.prefs.UserID = nil
	s.prefs.Email = ""
	return s.save(ctx)
}

// BeginVerification records the email a login code was sent to.
func (s *Session) BeginVerification(ctx context.Context, email string) error {
	if err := s.expect(LoggedOut); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: empty email", ErrInvalidTransition)
	}
	s.prefs.State = PendingVerification
	s.prefs.Email = email
	return s.save(ctx)
}

// CompleteVerification signs in as userID after a code was accepted.
func (s *Session) CompleteVerification(ctx context.Context, userID int) error {
	if err := s.expect(PendingVerification); err != nil {
		return err
	}
	if userID <= 0 {
		return fmt.Errorf("%w: invalid user id %d", ErrInvalidTransition, userID)
	}
	id := userID
	s.prefs.State = LoggedIn
	s.prefs.UserID = &id
	return s.save(ctx)
}

// Logout clears identity from any state. Favorites are kept.
func (s *Session) Logout(ctx context.Context) error {
	s.prefs.State = LoggedOut
	s.prefs.UserID = nil
	s.prefs.Email = ""
	s.prefs.GuestID = ""
	s.prefs.GuestLoginAt = nil
	return s.save(ctx)
}

// GuestExpired reports whether a guest session is older than GuestValidity.
func (s *Session) GuestExpired(now time.Time) bool {
	if s.prefs.State != Guest || s.prefs.GuestLoginAt == nil {
		return false
	}
	return now.Sub(*s.prefs.GuestLoginAt) >= GuestValidity
}

// Refresh logs out an expired guest session. It reports whether it did.
func (s *Session) Refresh(ctx context.Context, now time.Time) (bool, error) {
	if !s.GuestExpired(now) {
		return false, nil
	}
	return true, s.Logout(ctx)
}

// Favorites returns the favorite venue ids in the order they were added.
func (s *Session) Favorites() []int {
	return slices.Clone(s.prefs.Favorites)
}

// IsFavorite reports whether venueID is a favorite.
func (s *Session) IsFavorite(venueID int) bool {
	return slices.Contains(s.prefs.Favorites, venueID)
}

// ToggleFavorite adds or removes venueID and reports whether it is now a favorite.
func (s *Session) ToggleFavorite(ctx context.Context, venueID int) (bool, error) {
	if i := slices.Index(s.prefs.Favorites, venueID); i >= 0 {
		s.prefs.Favorites = slices.Delete(s.prefs.Favorites, i, i+1)
	} else {
		s.prefs.Favorites = append(s.prefs.Favorites, venueID)
	}
	return s.IsFavorite(venueID), s.save(ctx)
}

func (s *Session) expect(want State) error {
	if s.prefs.State != want {
		return fmt.Errorf("%w: %s requires %s", ErrInvalidTransition, s.prefs.State, want)
	}
	return nil
}

func (s *Session) save(ctx context.Context) error {
	if err := s.store.Save(ctx, s.prefs); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}
