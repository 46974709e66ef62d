package auth

import (
	"context"

	supabase "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"

	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	models "github.com/Schera-ole/wellness/internal/model"
)

type supabaseClient interface {
	SignInWithEmailPassword(email, password string) (*types.TokenResponse, error)
	Signup(req types.SignupRequest) (*types.SignupResponse, error)
	Authorize(req types.AuthorizeRequest) (*types.AuthorizeResponse, error)
	Token(req types.TokenRequest) (*types.TokenResponse, error)
}

// SupabaseBackend delegates identity to a Supabase (GoTrue) project.
type SupabaseBackend struct {
	client supabaseClient
	logout func(accessToken string) error
}

func NewSupabaseBackend(projectReference, apiKey string) *SupabaseBackend {
	client := supabase.New(projectReference, apiKey)
	return &SupabaseBackend{
		client: client,
		logout: func(accessToken string) error {
			return client.WithToken(accessToken).Logout()
		},
	}
}

func (b *SupabaseBackend) SignIn(ctx context.Context, email, password string) (models.Identity, error) {
	resp, err := b.client.SignInWithEmailPassword(email, password)
	if err != nil {
		return models.Identity{}, internalerrors.NewAuthError("sign in", err)
	}
	return identityFromUser(resp.User, models.ProviderPassword, resp.AccessToken), nil
}

func (b *SupabaseBackend) CreateAccount(ctx context.Context, email, password string) (models.Identity, error) {
	if _, err := b.client.Signup(types.SignupRequest{Email: email, Password: password}); err != nil {
		return models.Identity{}, internalerrors.NewAuthError("create account", err)
	}
	return b.SignIn(ctx, email, password)
}

func (b *SupabaseBackend) FederatedURL(ctx context.Context) (string, string, error) {
	resp, err := b.client.Authorize(types.AuthorizeRequest{
		Provider: types.ProviderGoogle,
		FlowType: types.FlowPKCE,
	})
	if err != nil {
		return "", "", internalerrors.NewAuthError("federated sign in", err)
	}
	return resp.AuthorizationURL, resp.Verifier, nil
}

func (b *SupabaseBackend) ExchangeFederated(ctx context.Context, code, verifier string) (models.Identity, error) {
	resp, err := b.client.Token(types.TokenRequest{
		GrantType:    "pkce",
		Code:         code,
		CodeVerifier: verifier,
	})
	if err != nil {
		return models.Identity{}, internalerrors.NewAuthError("federated sign in", err)
	}
	return identityFromUser(resp.User, models.ProviderFederated, resp.AccessToken), nil
}

func (b *SupabaseBackend) SignOut(ctx context.Context, identity models.Identity) error {
	if identity.AccessToken == "" {
		return nil
	}
	if err := b.logout(identity.AccessToken); err != nil {
		return internalerrors.NewAuthError("sign out", err)
	}
	return nil
}

func identityFromUser(user types.User, provider, accessToken string) models.Identity {
	identity := models.Identity{
		UID:         user.ID.String(),
		Email:       user.Email,
		Provider:    provider,
		AccessToken: accessToken,
	}
	for _, key := range []string{"full_name", "name"} {
		if name, ok := user.UserMetadata[key].(string); ok && name != "" {
			identity.DisplayName = name
			break
		}
	}
	return identity
}
