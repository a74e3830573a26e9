package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// PasswordAuthenticator stores bcrypt hashes in a UserStore.
type PasswordAuthenticator struct {
	users storage.UserStore
	cost  int

	// dummyHash is compared against when the email is unknown so a failed
	// login costs the same either way.
	dummyHash []byte
}

// PasswordOption configures a PasswordAuthenticator.
type PasswordOption func(*PasswordAuthenticator)

// WithBcryptCost overrides bcrypt.DefaultCost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) PasswordOption {
	return func(a *PasswordAuthenticator) { a.cost = cost }
}

// NewPasswordAuthenticator hashes at bcrypt.DefaultCost unless overridden.
func NewPasswordAuthenticator(users storage.UserStore, opts ...PasswordOption) *PasswordAuthenticator {
	a := &PasswordAuthenticator{users: users, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(a)
	}
	a.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("splitkit-dummy-password"), a.cost)
	return a
}

// ValidateCredential enforces MinPasswordLength.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register normalizes the email, hashes the password and saves the account.
func (a *PasswordAuthenticator) Register(ctx context.Context, reg Registration) (*models.User, error) {
	if err := a.ValidateCredential(reg.Credential); err != nil {
		return nil, err
	}

	email := NormalizeEmail(reg.Email)
	if _, err := a.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Credential), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(email, strings.TrimSpace(reg.DisplayName), string(hash))
	user.Phone = strings.TrimSpace(reg.Phone)

	// A concurrent registration can still win the race for the email.
	if err := a.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate does not reveal whether the email or the password was wrong.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	user, err := a.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(credential))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
