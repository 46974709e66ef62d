// Package service provides the account logic layered over the session provider
// and the users collection.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	models "github.com/Schera-ole/wellness/internal/model"
	"github.com/Schera-ole/wellness/internal/repository"
)

// AccountCreator is the part of the session provider sign-up needs.
type AccountCreator interface {
	CreateAccount(ctx context.Context, email, password string) (models.Identity, error)
}

// AccountService writes and reads user profiles.
type AccountService struct {
	// profiles is the users collection
	profiles repository.ProfileStore

	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewAccountService creates a new AccountService over the given profile store.
func NewAccountService(profiles repository.ProfileStore, logger *zap.SugaredLogger) *AccountService {

	return &AccountService{profiles: profiles, logger: logger, now: time.Now}
}

// SignUp creates the account through creator and stores users/{uid}.
//
// The account stays signed in even when the profile write fails; the
// returned error is then a StoreError.
func (as *AccountService) SignUp(ctx context.Context, creator AccountCreator, name, email, password string) (models.Identity, error) {

	name = strings.TrimSpace(name)
	if name == "" {
		return models.Identity{}, &internalerrors.AuthError{Op: "create account", Message: "name is required"}
	}
	identity, err := creator.CreateAccount(ctx, email, password)
	if err != nil {
		return models.Identity{}, err
	}

	profile := models.UserProfile{
		UID:       identity.UID,
		Name:      name,
		Email:     identity.Email,
		CreatedAt: as.now().UTC(),
	}
	if err := as.profiles.PutProfile(ctx, profile); err != nil {
		as.logger.Errorw("failed to write profile", "uid", identity.UID, "error", err)
		return identity, internalerrors.NewStoreError("put profile", err)
	}
	return identity, nil
}

// DisplayName is the greeting name: the provider's display name for
// federated identities, the profile name for password identities, and the
// email when neither is known.
func (as *AccountService) DisplayName(ctx context.Context, identity models.Identity) string {

	if identity.Provider == models.ProviderFederated {
		if identity.DisplayName != "" {
			return identity.DisplayName
		}
		return identity.Email
	}
	profile, err := as.profiles.GetProfile(ctx, identity.UID)
	if err != nil {
		if !errors.Is(err, internalerrors.ErrProfileNotFound) {
			as.logger.Warnw("failed to read profile", "uid", identity.UID, "error", err)
		}
		return identity.Email
	}
	return profile.Name
}
