// Package auth handles account registration, login and session tokens.
package auth

import (
	"context"

	"github.com/mmynk/splitkit/internal/models"
)

// Registration is the data needed to open an account.
type Registration struct {
	Email       string
	DisplayName string
	Phone       string

	// Credential format depends on the Authenticator (a password for
	// PasswordAuthenticator).
	Credential string
}

// Authenticator verifies who a caller is. The auth service depends only on
// this interface, so credential schemes can change underneath it.
type Authenticator interface {
	// Register opens an account, failing with ErrEmailExists on a taken email.
	Register(ctx context.Context, reg Registration) (*models.User, error)

	// Authenticate returns the account for email, or ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	ValidateCredential(credential string) error
}
