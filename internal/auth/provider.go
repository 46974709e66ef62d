package auth

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	models "github.com/Schera-ole/wellness/internal/model"
)

// IdentityObserver receives the current identity, or nil when signed out.
// ctx belongs to the operation that caused the change.
type IdentityObserver func(ctx context.Context, identity *models.Identity)

// Provider is the identity-status stream of one browser session.
type Provider struct {
	backend Backend
	logger  *zap.SugaredLogger

	mu        sync.Mutex
	current   *models.Identity
	observers map[int]IdentityObserver
	nextID    int
}

func NewProvider(backend Backend, logger *zap.SugaredLogger) *Provider {
	return &Provider{
		backend:   backend,
		logger:    logger,
		observers: make(map[int]IdentityObserver),
	}
}

// ObserveIdentity calls fn with the current identity right away and again on
// every change until the returned function is called.
func (p *Provider) ObserveIdentity(fn IdentityObserver) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.observers[id] = fn
	current := copyIdentity(p.current)
	p.mu.Unlock()

	fn(context.Background(), current)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.observers, id)
			p.mu.Unlock()
		})
	}
}

// Current returns the signed-in identity or nil.
func (p *Provider) Current() *models.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyIdentity(p.current)
}

// Restore sets an identity recovered from a persisted session without
// asking the backend.
func (p *Provider) Restore(ctx context.Context, identity models.Identity) {
	p.set(ctx, &identity)
}

func (p *Provider) SignInWithCredentials(ctx context.Context, email, password string) (models.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Identity{}, &internalerrors.AuthError{Op: "sign in", Message: "email and password are required"}
	}
	identity, err := p.backend.SignIn(ctx, email, password)
	if err != nil {
		return models.Identity{}, asAuthError("sign in", err)
	}
	p.logger.Infow("signed in", "uid", identity.UID, "provider", identity.Provider)
	p.set(ctx, &identity)
	return identity, nil
}

// FederatedURL returns where to send the browser and the verifier to keep
// until the callback arrives.
func (p *Provider) FederatedURL(ctx context.Context) (string, string, error) {
	url, verifier, err := p.backend.FederatedURL(ctx)
	if err != nil {
		return "", "", asAuthError("federated sign in", err)
	}
	return url, verifier, nil
}

func (p *Provider) SignInWithFederatedProvider(ctx context.Context, code, verifier string) (models.Identity, error) {
	if code == "" {
		return models.Identity{}, &internalerrors.AuthError{Op: "federated sign in", Message: "sign-in was cancelled"}
	}
	identity, err := p.backend.ExchangeFederated(ctx, code, verifier)
	if err != nil {
		return models.Identity{}, asAuthError("federated sign in", err)
	}
	p.logger.Infow("signed in", "uid", identity.UID, "provider", identity.Provider)
	p.set(ctx, &identity)
	return identity, nil
}

// CreateAccount registers the user and leaves them signed in.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (models.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Identity{}, &internalerrors.AuthError{Op: "create account", Message: "email and password are required"}
	}
	identity, err := p.backend.CreateAccount(ctx, email, password)
	if err != nil {
		return models.Identity{}, asAuthError("create account", err)
	}
	p.logger.Infow("account created", "uid", identity.UID)
	p.set(ctx, &identity)
	return identity, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	current := p.Current()
	if current == nil {
		return nil
	}
	err := p.backend.SignOut(ctx, *current)
	// the local session ends regardless of what the backend says
	p.set(ctx, nil)
	if err != nil {
		p.logger.Warnw("backend sign out failed", "uid", current.UID, "error", err)
		return asAuthError("sign out", err)
	}
	return nil
}

func (p *Provider) set(ctx context.Context, identity *models.Identity) {
	p.mu.Lock()
	p.current = copyIdentity(identity)
	observers := make([]IdentityObserver, 0, len(p.observers))
	for _, fn := range p.observers {
		observers = append(observers, fn)
	}
	p.mu.Unlock()

	for _, fn := range observers {
		fn(ctx, copyIdentity(identity))
	}
}

func copyIdentity(identity *models.Identity) *models.Identity {
	if identity == nil {
		return nil
	}
	c := *identity
	return &c
}

func asAuthError(op string, err error) error {
	if _, ok := err.(*internalerrors.AuthError); ok {
		return err
	}
	return internalerrors.NewAuthError(op, err)
}
