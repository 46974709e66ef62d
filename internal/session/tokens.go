package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	models "github.com/Schera-ole/wellness/internal/model"
)

const tokenBytes = 32

// NewToken returns 32 random bytes, hex encoded.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// TokenStore persists the identity behind a session token.
type TokenStore interface {
	Save(ctx context.Context, token string, identity models.Identity, ttl time.Duration) error
	// Load returns ErrSessionNotFound for unknown or expired tokens.
	Load(ctx context.Context, token string) (models.Identity, error)
	Delete(ctx context.Context, token string) error
}

type memToken struct {
	identity models.Identity
	expires  time.Time
}

// MemTokenStore keeps tokens in process memory.
type MemTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memToken
	now    func() time.Time
}

func NewMemTokenStore() *MemTokenStore {
	return &MemTokenStore{
		tokens: make(map[string]memToken),
		now:    time.Now,
	}
}

func (ms *MemTokenStore) Save(ctx context.Context, token string, identity models.Identity, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.tokens[token] = memToken{identity: identity, expires: ms.now().Add(ttl)}
	return nil
}

func (ms *MemTokenStore) Load(ctx context.Context, token string) (models.Identity, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	t, ok := ms.tokens[token]
	if !ok {
		return models.Identity{}, internalerrors.ErrSessionNotFound
	}
	if !ms.now().Before(t.expires) {
		delete(ms.tokens, token)
		return models.Identity{}, internalerrors.ErrSessionNotFound
	}
	return t.identity, nil
}

func (ms *MemTokenStore) Delete(ctx context.Context, token string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.tokens, token)
	return nil
}

// DeleteExpired drops expired tokens that were never looked up again.
func (ms *MemTokenStore) DeleteExpired() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	now := ms.now()
	n := 0
	for token, t := range ms.tokens {
		if !now.Before(t.expires) {
			delete(ms.tokens, token)
			n++
		}
	}
	return n
}

// Len reports the number of stored tokens, expired ones included.
func (ms *MemTokenStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.tokens)
}

const redisKeyPrefix = "wellness:session:"

// RedisTokenStore keeps tokens in redis so sessions survive a restart.
type RedisTokenStore struct {
	rdb *redis.Client
}

// NewRedisTokenStore connects to addr and checks the connection.
func NewRedisTokenStore(ctx context.Context, addr, password string) (*RedisTokenStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisTokenStore{rdb: rdb}, nil
}

func (rs *RedisTokenStore) Save(ctx context.Context, token string, identity models.Identity, ttl time.Duration) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	return rs.rdb.Set(ctx, redisKeyPrefix+token, data, ttl).Err()
}

func (rs *RedisTokenStore) Load(ctx context.Context, token string) (models.Identity, error) {
	data, err := rs.rdb.Get(ctx, redisKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Identity{}, internalerrors.ErrSessionNotFound
		}
		return models.Identity{}, fmt.Errorf("load session: %w", err)
	}
	var identity models.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return models.Identity{}, fmt.Errorf("unmarshal identity: %w", err)
	}
	return identity, nil
}

func (rs *RedisTokenStore) Delete(ctx context.Context, token string) error {
	return rs.rdb.Del(ctx, redisKeyPrefix+token).Err()
}

func (rs *RedisTokenStore) Close() error {
	return rs.rdb.Close()
}
