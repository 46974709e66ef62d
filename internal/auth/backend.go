// Package auth is the session provider: it verifies credentials through a
// Backend and publishes the signed-in identity to observers.
package auth

import (
	"context"

	models "github.com/Schera-ole/wellness/internal/model"
)

// Backend verifies credentials and issues identities.
type Backend interface {
	// SignIn verifies an email and password.
	SignIn(ctx context.Context, email, password string) (models.Identity, error)

	// CreateAccount registers an email and password and signs the new user in.
	CreateAccount(ctx context.Context, email, password string) (models.Identity, error)

	// FederatedURL starts a federated sign-in. The verifier must be handed
	// back to ExchangeFederated together with the returned code.
	FederatedURL(ctx context.Context) (url, verifier string, err error)

	// ExchangeFederated completes a federated sign-in.
	ExchangeFederated(ctx context.Context, code, verifier string) (models.Identity, error)

	// SignOut revokes the identity's session with the backend.
	SignOut(ctx context.Context, identity models.Identity) error
}
