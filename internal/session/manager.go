// Package session keeps one client per browser session: the identity stream
// and the metrics view bound to it.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/wellness/internal/auth"
	"github.com/Schera-ole/wellness/internal/dashboard"
	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	"github.com/Schera-ole/wellness/internal/repository"
)

// Client is the state of one browser session.
type Client struct {
	Token     string
	Auth      *auth.Provider
	Dashboard *dashboard.Sync

	// guarded by Manager.mu
	lastSeen time.Time
}

type Option func(*Manager)

// WithClock replaces time.Now for session expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithChangeHook is passed on to every client's dashboard.
func WithChangeHook(fn dashboard.ChangeFunc) Option {
	return func(m *Manager) {
		m.onChange = fn
	}
}

// Manager maps session tokens to clients.
type Manager struct {
	backend auth.Backend
	store   repository.MetricStore
	tokens  TokenStore
	ttl     time.Duration
	logger  *zap.SugaredLogger

	onChange dashboard.ChangeFunc
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]*Client
}

func NewManager(backend auth.Backend, store repository.MetricStore, tokens TokenStore, ttl time.Duration, logger *zap.SugaredLogger, opts ...Option) *Manager {
	m := &Manager{
		backend: backend,
		store:   store,
		tokens:  tokens,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		clients: make(map[string]*Client),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) newClient(token string) *Client {
	provider := auth.NewProvider(m.backend, m.logger)
	var opts []dashboard.Option
	if m.onChange != nil {
		opts = append(opts, dashboard.WithChangeHook(m.onChange))
	}
	view := dashboard.New(m.store, m.logger, opts...)
	view.Bind(provider)
	return &Client{Token: token, Auth: provider, Dashboard: view}
}

// Open starts a signed-out client under a fresh token. The token is not
// persisted until Persist is called.
func (m *Manager) Open(ctx context.Context) (*Client, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	client := m.newClient(token)
	m.mu.Lock()
	client.lastSeen = m.now()
	m.clients[token] = client
	m.mu.Unlock()
	return client, nil
}

// Lookup returns the client for token. A persisted token without a client in
// memory, for example after a restart, gets a new client restored to the
// stored identity.
func (m *Manager) Lookup(ctx context.Context, token string) (*Client, error) {
	if token == "" {
		return nil, internalerrors.ErrSessionNotFound
	}
	identity, err := m.tokens.Load(ctx, token)
	if err != nil {
		if errors.Is(err, internalerrors.ErrSessionNotFound) {
			m.forget(token)
		}
		return nil, err
	}

	m.mu.Lock()
	client, ok := m.clients[token]
	if !ok {
		client = m.newClient(token)
		m.clients[token] = client
	}
	client.lastSeen = m.now()
	m.mu.Unlock()

	if !ok {
		m.logger.Debugw("restoring session", "owner", identity.Email)
		client.Auth.Restore(ctx, identity)
	}
	return client, nil
}

// Persist stores the client's current identity under its token.
func (m *Manager) Persist(ctx context.Context, client *Client) error {
	identity := client.Auth.Current()
	if identity == nil {
		return internalerrors.ErrNotSignedIn
	}
	if err := m.tokens.Save(ctx, client.Token, *identity, m.ttl); err != nil {
		return err
	}
	m.mu.Lock()
	client.lastSeen = m.now()
	m.mu.Unlock()
	return nil
}

// Drop releases the client and deletes its token.
func (m *Manager) Drop(ctx context.Context, token string) error {
	m.forget(token)
	return m.tokens.Delete(ctx, token)
}

func (m *Manager) forget(token string) {
	m.mu.Lock()
	client, ok := m.clients[token]
	delete(m.clients, token)
	m.mu.Unlock()
	if ok {
		client.Dashboard.Close()
	}
}

// expiringStore is implemented by token stores that do not expire entries on their own.
type expiringStore interface {
	DeleteExpired() int
}

// Sweep releases clients not seen for a whole session lifetime and purges
// expired tokens. Such a client's token has expired too, so a later request
// carrying it would be rejected anyway.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)
	var idle []*Client
	m.mu.Lock()
	for token, client := range m.clients {
		if !client.lastSeen.After(cutoff) {
			idle = append(idle, client)
			delete(m.clients, token)
		}
	}
	m.mu.Unlock()
	for _, client := range idle {
		client.Dashboard.Close()
	}

	purged := 0
	if store, ok := m.tokens.(expiringStore); ok {
		purged = store.DeleteExpired()
	}
	if len(idle) > 0 || purged > 0 {
		m.logger.Debugw("swept sessions", "clients", len(idle), "tokens", purged)
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Len reports the number of clients held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

type clientKey struct{}

// NewContext returns a context carrying client.
func NewContext(ctx context.Context, client *Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// FromContext returns the client stored by NewContext, or nil.
func FromContext(ctx context.Context) *Client {
	client, _ := ctx.Value(clientKey{}).(*Client)
	return client
}

// SignedIn reports whether client has a current identity.
func (c *Client) SignedIn() bool {
	return c != nil && c.Auth.Current() != nil
}
