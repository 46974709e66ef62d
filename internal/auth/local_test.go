package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	models "github.com/Schera-ole/wellness/internal/model"
	"github.com/Schera-ole/wellness/internal/repository"
)

type failingCredentials struct{}

func (failingCredentials) PutCredential(ctx context.Context, cred models.Credential) error {
	return internalerrors.ErrStorageUnavailable
}

func (failingCredentials) GetCredential(ctx context.Context, email string) (models.Credential, error) {
	return models.Credential{}, internalerrors.ErrStorageUnavailable
}

func TestLocalBackend_CreateAndSignIn(t *testing.T) {
	backend := NewLocalBackend(repository.NewMemStorage(), "pepper")
	ctx := context.Background()

	created, err := backend.CreateAccount(ctx, "Ann@Example.com", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, created.UID)
	assert.Equal(t, "ann@example.com", created.Email)
	assert.Equal(t, models.ProviderPassword, created.Provider)

	signedIn, err := backend.SignIn(ctx, "ann@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, created, signedIn)
}

func TestLocalBackend_Errors(t *testing.T) {
	backend := NewLocalBackend(repository.NewMemStorage(), "")
	ctx := context.Background()

	_, err := backend.CreateAccount(ctx, "ann@example.com", "short")
	var ae *internalerrors.AuthError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "password should be at least 6 characters", ae.Message)

	_, err = backend.CreateAccount(ctx, "ann@example.com", "password1")
	require.NoError(t, err)

	_, err = backend.CreateAccount(ctx, "ann@example.com", "password2")
	assert.ErrorIs(t, err, internalerrors.ErrEmailTaken)

	_, err = backend.SignIn(ctx, "ann@example.com", "wrong-pass")
	assert.ErrorIs(t, err, internalerrors.ErrInvalidCredentials)

	_, err = backend.SignIn(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, internalerrors.ErrInvalidCredentials)

	_, _, err = backend.FederatedURL(ctx)
	assert.ErrorIs(t, err, internalerrors.ErrFederatedUnavailable)

	_, err = backend.ExchangeFederated(ctx, "code", "verifier")
	assert.ErrorIs(t, err, internalerrors.ErrFederatedUnavailable)

	assert.NoError(t, backend.SignOut(ctx, models.Identity{}))
}

func TestLocalBackend_StoreFailure(t *testing.T) {
	backend := NewLocalBackend(failingCredentials{}, "")
	ctx := context.Background()

	_, err := backend.SignIn(ctx, "ann@example.com", "password1")
	var ae *internalerrors.AuthError
	require.True(t, errors.As(err, &ae))
	assert.ErrorIs(t, err, internalerrors.ErrStorageUnavailable)

	_, err = backend.CreateAccount(ctx, "ann@example.com", "password1")
	require.True(t, errors.As(err, &ae))
	assert.ErrorIs(t, err, internalerrors.ErrStorageUnavailable)
}
