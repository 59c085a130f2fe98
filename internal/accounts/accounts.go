// Package accounts issues and verifies one-time email login codes.
package accounts

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/neexbeast/dininguru/internal/storage"
)

// CodeTTL is how long an issued code stays valid.
const CodeTTL = 10 * time.Minute

// MaxAttempts is how many wrong guesses a code survives. The code is
// deleted on the last one and a new one must be requested.
const MaxAttempts = 5

const codeDigits = 6

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidCode  = errors.New("invalid or expired code")

	// ErrTooManyAttempts also matches ErrInvalidCode.
	ErrTooManyAttempts = fmt.Errorf("%w: too many attempts", ErrInvalidCode)
)

// Repo is the storage the service needs.
type Repo interface {
	EnsureUser(ctx context.Context, email string) (int, error)
	SaveLoginCode(ctx context.Context, email, codeHash string, expiresAt time.Time) error
	GetLoginCode(ctx context.Context, email string) (*storage.LoginCode, error)
	DeleteLoginCode(ctx context.Context, email string) error
}

// Attempts counts failed verifications per email. Counts expire after
// ttl so a stale counter never outlives the code it guards.
type Attempts interface {
	IncrLoginAttempts(ctx context.Context, email string, ttl time.Duration) (int64, error)
	ResetLoginAttempts(ctx context.Context, email string) error
}

// Mailer delivers a login code to a user.
type Mailer interface {
	SendLoginCode(ctx context.Context, email, code string) error
}

// LogMailer "delivers" codes by logging them. It is the default until a
// real mail transport is configured.
type LogMailer struct {
	Log *slog.Logger
}

func (m LogMailer) SendLoginCode(_ context.Context, email, code string) error {
	log := m.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("login code issued", "email", email, "code", code)
	return nil
}

// Service implements the login-code flow.
type Service struct {
	repo     Repo
	attempts Attempts
	mailer   Mailer
	now      func() time.Time
	cost     int
}

// NewService constructs a Service using the wall clock and bcrypt's default cost.
func NewService(repo Repo, attempts Attempts, mailer Mailer) *Service {
	return NewServiceWithClock(repo, attempts, mailer, time.Now, bcrypt.DefaultCost)
}

// NewServiceWithClock constructs a Service with an injectable clock and
// bcrypt cost (used in tests).
func NewServiceWithClock(repo Repo, attempts Attempts, mailer Mailer, now func() time.Time, cost int) *Service {
	return &Service{repo: repo, attempts: attempts, mailer: mailer, now: now, cost: cost}
}

// NormalizeEmail trims and lowercases email and checks it parses as a
// bare address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// RequestCode creates the user on first use, stores a fresh code and
// sends it. Any earlier code for the address stops working.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}

	if _, err := s.repo.EnsureUser(ctx, email); err != nil {
		return err
	}

	code, err := newCode()
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return fmt.Errorf("hashing login code: %w", err)
	}

	if err := s.repo.SaveLoginCode(ctx, email, string(hash), s.now().Add(CodeTTL)); err != nil {
		return err
	}
	if err := s.attempts.ResetLoginAttempts(ctx, email); err != nil {
		return err
	}

	if err := s.mailer.SendLoginCode(ctx, email, code); err != nil {
		return fmt.Errorf("sending login code to %s: %w", email, err)
	}
	return nil
}

// Verify checks code against the pending code for email and returns the
// user's id. A code can be used once, and is deleted after MaxAttempts
// wrong guesses.
func (s *Service) Verify(ctx context.Context, email, code string) (int, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return 0, err
	}

	pending, err := s.repo.GetLoginCode(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, ErrInvalidCode
		}
		return 0, err
	}

	if !s.now().Before(pending.ExpiresAt) {
		return 0, ErrInvalidCode
	}
	if bcrypt.CompareHashAndPassword([]byte(pending.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		return 0, s.failAttempt(ctx, email)
	}

	if err := s.repo.DeleteLoginCode(ctx, email); err != nil {
		return 0, err
	}
	if err := s.attempts.ResetLoginAttempts(ctx, email); err != nil {
		return 0, err
	}

	return s.repo.EnsureUser(ctx, email)
}

// failAttempt records a wrong guess and burns the code on the last one.
func (s *Service) failAttempt(ctx context.Context, email string) error {
	n, err := s.attempts.IncrLoginAttempts(ctx, email, CodeTTL)
	if err != nil {
		return err
	}
	if n < MaxAttempts {
		return ErrInvalidCode
	}

	if err := s.repo.DeleteLoginCode(ctx, email); err != nil {
		return err
	}
	if err := s.attempts.ResetLoginAttempts(ctx, email); err != nil {
		return err
	}
	return ErrTooManyAttempts
}

func newCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generating login code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
