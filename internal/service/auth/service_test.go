package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/websubhamdevloper/votecore/internal/config"
	"github.com/websubhamdevloper/votecore/internal/crypto"
	"github.com/websubhamdevloper/votecore/internal/domain"
	"github.com/websubhamdevloper/votecore/internal/repository"
)

type userRepoMock struct {
	createFunc     func(context.Context, *domain.User) error
	getByEmailFunc func(context.Context, string) (*domain.User, error)
}

func (m userRepoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m userRepoMock) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	return config.Config{SessionSecret: "test-secret", SessionTTL: time.Minute}
}

func registeredVoter(t *testing.T, fullName, email, password string, voted bool) *domain.User {
	t.Helper()
	hash, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &domain.User{
		ID:           "voter-1",
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Voted:        voted,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	user := registeredVoter(t, "Asha Verma", "asha@example.com", "Testing123!", false)
	users := userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if email != "asha@example.com" {
				t.Fatalf("unexpected email lookup: %s", email)
			}
			return user, nil
		},
	}
	svc := New(users, newLogger(), testConfig())

	session, signed, err := svc.Authenticate(context.Background(), "asha@example.com", "Asha Verma", "Testing123!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.VoterID != user.ID || session.Email != user.Email {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.Voted {
		t.Fatalf("expected advisory voted flag false")
	}
	if signed == "" {
		t.Fatalf("expected signed session token")
	}

	parsed, err := svc.Authorize(context.Background(), signed)
	if err != nil {
		t.Fatalf("authorize round trip failed: %v", err)
	}
	if parsed != session {
		t.Fatalf("token session mismatch: %+v vs %+v", parsed, session)
	}
}

func TestAuthenticateFullNameCaseInsensitive(t *testing.T) {
	user := registeredVoter(t, "Asha Verma", "asha@example.com", "Testing123!", false)
	users := userRepoMock{
		getByEmailFunc: func(context.Context, string) (*domain.User, error) { return user, nil },
	}
	svc := New(users, newLogger(), testConfig())

	if _, _, err := svc.Authenticate(context.Background(), "asha@example.com", "ASHA verma", "Testing123!"); err != nil {
		t.Fatalf("case-differing full name must authenticate, got %v", err)
	}
	if _, _, err := svc.Authenticate(context.Background(), "asha@example.com", "Asha Sharma", "Testing123!"); !errors.Is(err, ErrIdentityMismatch) {
		t.Fatalf("expected ErrIdentityMismatch, got %v", err)
	}
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := New(userRepoMock{}, newLogger(), testConfig())
	if _, _, err := svc.Authenticate(context.Background(), "nobody@example.com", "Nobody", "pw"); !errors.Is(err, ErrVoterNotFound) {
		t.Fatalf("expected ErrVoterNotFound, got %v", err)
	}
}

func TestAuthenticateBadPassword(t *testing.T) {
	user := registeredVoter(t, "Asha Verma", "asha@example.com", "Testing123!", false)
	users := userRepoMock{
		getByEmailFunc: func(context.Context, string) (*domain.User, error) { return user, nil },
	}
	svc := New(users, newLogger(), testConfig())
	if _, _, err := svc.Authenticate(context.Background(), "asha@example.com", "Asha Verma", "wrong"); !errors.Is(err, ErrBadCredential) {
		t.Fatalf("expected ErrBadCredential, got %v", err)
	}
}

func TestAuthenticateSpentVoterRejected(t *testing.T) {
	user := registeredVoter(t, "Asha Verma", "asha@example.com", "Testing123!", true)
	users := userRepoMock{
		getByEmailFunc: func(context.Context, string) (*domain.User, error) { return user, nil },
	}
	svc := New(users, newLogger(), testConfig())
	if _, _, err := svc.Authenticate(context.Background(), "asha@example.com", "Asha Verma", "Testing123!"); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
}

func TestRegisterHashesAndStores(t *testing.T) {
	var stored *domain.User
	users := userRepoMock{
		createFunc: func(_ context.Context, user *domain.User) error {
			stored = user
			return nil
		},
	}
	svc := New(users, newLogger(), testConfig())

	user, err := svc.Register(context.Background(), "Ravi Nair", "ravi@example.com", "Testing123!", "Testing123!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored.ID != user.ID {
		t.Fatalf("expected user stored")
	}
	if stored.Voted {
		t.Fatalf("new voter must start unspent")
	}
	if err := crypto.ComparePassword(stored.PasswordHash, "Testing123!"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegisterPasswordConfirmMismatch(t *testing.T) {
	svc := New(userRepoMock{}, newLogger(), testConfig())
	if _, err := svc.Register(context.Background(), "Ravi Nair", "ravi@example.com", "one", "two"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := userRepoMock{
		createFunc: func(context.Context, *domain.User) error { return repository.ErrConflict },
	}
	svc := New(users, newLogger(), testConfig())
	if _, err := svc.Register(context.Background(), "Ravi Nair", "ravi@example.com", "pw", "pw"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}
