package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	models "github.com/Schera-ole/wellness/internal/model"
	"github.com/Schera-ole/wellness/internal/repository"
)

// MinPasswordLength is the shortest password CreateAccount accepts.
const MinPasswordLength = 6

// LocalBackend keeps argon2id password hashes in the record store.
type LocalBackend struct {
	store  repository.CredentialStore
	pepper string
}

func NewLocalBackend(store repository.CredentialStore, pepper string) *LocalBackend {
	return &LocalBackend{store: store, pepper: pepper}
}

func (b *LocalBackend) SignIn(ctx context.Context, email, password string) (models.Identity, error) {
	cred, err := b.store.GetCredential(ctx, email)
	if err != nil {
		if errors.Is(err, internalerrors.ErrCredentialNotFound) {
			return models.Identity{}, internalerrors.NewAuthError("sign in", internalerrors.ErrInvalidCredentials)
		}
		return models.Identity{}, &internalerrors.AuthError{Op: "sign in", Message: "could not reach the identity store", Err: err}
	}
	ok, err := VerifyPassword(password, b.pepper, cred.Hash)
	if err != nil || !ok {
		return models.Identity{}, internalerrors.NewAuthError("sign in", internalerrors.ErrInvalidCredentials)
	}
	return models.Identity{UID: cred.UID, Email: cred.Email, Provider: models.ProviderPassword}, nil
}

func (b *LocalBackend) CreateAccount(ctx context.Context, email, password string) (models.Identity, error) {
	if len(password) < MinPasswordLength {
		return models.Identity{}, &internalerrors.AuthError{Op: "create account", Message: "password should be at least 6 characters"}
	}
	hash, err := HashPassword(password, b.pepper)
	if err != nil {
		return models.Identity{}, &internalerrors.AuthError{Op: "create account", Message: "could not hash password", Err: err}
	}
	cred := models.Credential{UID: uuid.NewString(), Email: strings.ToLower(email), Hash: hash}
	if err := b.store.PutCredential(ctx, cred); err != nil {
		if errors.Is(err, internalerrors.ErrEmailTaken) {
			return models.Identity{}, internalerrors.NewAuthError("create account", internalerrors.ErrEmailTaken)
		}
		return models.Identity{}, &internalerrors.AuthError{Op: "create account", Message: "could not reach the identity store", Err: err}
	}
	return models.Identity{UID: cred.UID, Email: cred.Email, Provider: models.ProviderPassword}, nil
}

func (b *LocalBackend) FederatedURL(ctx context.Context) (string, string, error) {
	return "", "", internalerrors.NewAuthError("federated sign in", internalerrors.ErrFederatedUnavailable)
}

func (b *LocalBackend) ExchangeFederated(ctx context.Context, code, verifier string) (models.Identity, error) {
	return models.Identity{}, internalerrors.NewAuthError("federated sign in", internalerrors.ErrFederatedUnavailable)
}

// SignOut has nothing to revoke: local sessions live only in the session registry.
func (b *LocalBackend) SignOut(ctx context.Context, identity models.Identity) error {
	return nil
}
