package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/websubhamdevloper/votecore/internal/config"
	"github.com/websubhamdevloper/votecore/internal/crypto"
	"github.com/websubhamdevloper/votecore/internal/domain"
	"github.com/websubhamdevloper/votecore/internal/repository"
	"github.com/websubhamdevloper/votecore/internal/token"
)

var (
	ErrVoterNotFound    = errors.New("auth: no voter registered for email")
	ErrIdentityMismatch = errors.New("auth: full name does not match registration")
	ErrBadCredential    = errors.New("auth: invalid password")
	ErrAlreadyVoted     = errors.New("auth: voter has already cast a vote")
	ErrPasswordMismatch = errors.New("auth: passwords do not match")
	ErrEmailTaken       = errors.New("auth: email already registered")
	ErrMissingField     = errors.New("auth: required field missing")
)

// Service handles registration and login for voters.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.Config
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.Config) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// Register creates a new voter account.
func (s Service) Register(ctx context.Context, fullName, email, password, confirm string) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" || email == "" || password == "" {
		return nil, ErrMissingField
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info("voter registered", "voter_id", user.ID)
	return user, nil
}

// Authenticate verifies email, claimed full name, and password, and returns a
// Session plus its signed token. The full-name check is a deliberate second
// factor: the claimed name must equal the registered name, case-insensitively.
// Read-only; the store is never mutated here.
func (s Service) Authenticate(ctx context.Context, email, claimedFullName, password string) (domain.Session, string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Session{}, "", ErrVoterNotFound
		}
		return domain.Session{}, "", err
	}
	if !strings.EqualFold(strings.TrimSpace(claimedFullName), user.FullName) {
		return domain.Session{}, "", ErrIdentityMismatch
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return domain.Session{}, "", ErrBadCredential
	}
	// Login resolves identity but a spent voter never reaches the vote screen.
	if user.Voted {
		return domain.Session{}, "", ErrAlreadyVoted
	}
	session := domain.Session{
		VoterID:  user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Voted:    user.Voted,
	}
	signed, err := token.Generate(session, s.cfg.SessionSecret, s.cfg.SessionTTL)
	if err != nil {
		return domain.Session{}, "", err
	}
	s.logger.Info("voter logged in", "voter_id", user.ID)
	return session, signed, nil
}

// Authorize validates a bearer token and returns the Session it carries.
func (s Service) Authorize(ctx context.Context, bearer string) (domain.Session, error) {
	trimmed := strings.TrimSpace(bearer)
	if trimmed == "" {
		return domain.Session{}, errors.New("token required")
	}
	return token.Parse(trimmed, s.cfg.SessionSecret)
}
