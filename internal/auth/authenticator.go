// Package auth verifies user credentials and issues session tokens.
package auth

import (
	"context"

	"github.com/mmynk/settleup/internal/models"
)

// Authenticator registers and verifies users. Services depend on this
// interface so the credential scheme can change without touching them.
type Authenticator interface {
	// Register creates a user account. The credential format is up to the
	// implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user whose credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential reports whether credential is acceptable for a new account.
	ValidateCredential(credential string) error
}
