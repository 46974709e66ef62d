package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Schera-ole/wellness/internal/auth"
	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	models "github.com/Schera-ole/wellness/internal/model"
	"github.com/Schera-ole/wellness/internal/repository"
)

type change struct {
	action, owner, id string
}

func newTestManager(t *testing.T, tokens TokenStore, opts ...Option) (*Manager, *repository.MemStorage) {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	memStorage := repository.NewMemStorage()
	backend := auth.NewLocalBackend(memStorage, "")
	return NewManager(backend, memStorage, tokens, time.Hour, logger.Sugar(), opts...), memStorage
}

func TestManager_OpenPersistLookup(t *testing.T) {
	tokens := NewMemTokenStore()
	manager, _ := newTestManager(t, tokens)
	ctx := context.Background()

	client, err := manager.Open(ctx)
	require.NoError(t, err)
	assert.Len(t, client.Token, 64)
	assert.Nil(t, client.Auth.Current())

	// not persisted yet
	_, err = manager.Lookup(ctx, client.Token)
	assert.ErrorIs(t, err, internalerrors.ErrSessionNotFound)

	client, err = manager.Open(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, manager.Persist(ctx, client), internalerrors.ErrNotSignedIn)

	_, err = client.Auth.CreateAccount(ctx, "ann@example.com", "password1")
	require.NoError(t, err)
	require.NoError(t, manager.Persist(ctx, client))

	found, err := manager.Lookup(ctx, client.Token)
	require.NoError(t, err)
	assert.Same(t, client, found)
}

func TestManager_LookupRestoresAfterRestart(t *testing.T) {
	tokens := NewMemTokenStore()
	manager, memStorage := newTestManager(t, tokens)
	ctx := context.Background()

	_, err := memStorage.InsertMetric(ctx, models.MetricRecord{Steps: 100, Sleep: 7, Mood: models.MoodHappy, Date: time.Now(), Owner: ann.Email})
	require.NoError(t, err)
	require.NoError(t, tokens.Save(ctx, "tok", ann, time.Hour))

	client, err := manager.Lookup(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, client.Auth.Current())
	assert.Equal(t, ann.Email, client.Auth.Current().Email)
	assert.Equal(t, ann.Email, client.Dashboard.Snapshot().Owner)
	assert.Len(t, client.Dashboard.Records(), 1)
}

func TestManager_Drop(t *testing.T) {
	tokens := NewMemTokenStore()
	manager, _ := newTestManager(t, tokens)
	ctx := context.Background()

	require.NoError(t, tokens.Save(ctx, "tok", ann, time.Hour))
	client, err := manager.Lookup(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, manager.Len())

	require.NoError(t, manager.Drop(ctx, "tok"))
	assert.Equal(t, 0, manager.Len())
	_, err = manager.Lookup(ctx, "tok")
	assert.ErrorIs(t, err, internalerrors.ErrSessionNotFound)

	// a dropped client no longer follows its identity
	require.NoError(t, client.Auth.SignOut(ctx))
	assert.Equal(t, ann.Email, client.Dashboard.Snapshot().Owner)
}

func TestManager_ExpiredTokenForgetsClient(t *testing.T) {
	tokens := NewMemTokenStore()
	now := time.Now()
	tokens.now = func() time.Time { return now }
	manager, _ := newTestManager(t, tokens)
	ctx := context.Background()

	require.NoError(t, tokens.Save(ctx, "tok", ann, time.Hour))
	_, err := manager.Lookup(ctx, "tok")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = manager.Lookup(ctx, "tok")
	assert.ErrorIs(t, err, internalerrors.ErrSessionNotFound)
	assert.Equal(t, 0, manager.Len())
}

func TestManager_SweepReleasesIdleSessions(t *testing.T) {
	tokens := NewMemTokenStore()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tokens.now = clock
	manager, _ := newTestManager(t, tokens, WithClock(clock))
	ctx := context.Background()

	for i := range 50 {
		client, err := manager.Open(ctx)
		require.NoError(t, err)
		client.Auth.Restore(ctx, models.Identity{UID: fmt.Sprintf("u%d", i), Email: fmt.Sprintf("user%d@example.com", i)})
		require.NoError(t, manager.Persist(ctx, client))
	}
	active, err := manager.Open(ctx)
	require.NoError(t, err)
	active.Auth.Restore(ctx, ann)
	require.NoError(t, manager.Persist(ctx, active))
	require.Equal(t, 51, manager.Len())

	now = now.Add(30 * time.Minute)
	assert.Equal(t, 0, manager.Sweep())
	require.NoError(t, manager.Persist(ctx, active))

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 50, manager.Sweep())
	assert.Equal(t, 1, manager.Len())
	assert.Equal(t, 1, tokens.Len())

	found, err := manager.Lookup(ctx, active.Token)
	require.NoError(t, err)
	assert.Same(t, active, found)
}

func TestManager_SweepClosesDashboard(t *testing.T) {
	tokens := NewMemTokenStore()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tokens.now = clock
	manager, _ := newTestManager(t, tokens, WithClock(clock))
	ctx := context.Background()

	client, err := manager.Open(ctx)
	require.NoError(t, err)
	client.Auth.Restore(ctx, ann)
	require.NoError(t, manager.Persist(ctx, client))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, manager.Sweep())

	// the released view no longer follows the identity stream
	require.NoError(t, client.Auth.SignOut(ctx))
	assert.Equal(t, ann.Email, client.Dashboard.Snapshot().Owner)
}

func TestManager_Run(t *testing.T) {
	tokens := NewMemTokenStore()
	manager, _ := newTestManager(t, tokens)
	ctx, cancel := context.WithCancel(context.Background())

	client, err := manager.Open(ctx)
	require.NoError(t, err)
	client.Auth.Restore(ctx, ann)
	require.NoError(t, manager.Persist(ctx, client))

	later := time.Now().Add(2 * time.Hour)
	manager.now = func() time.Time { return later }
	tokens.now = manager.now

	done := make(chan struct{})
	go func() {
		manager.Run(ctx, time.Millisecond)
		close(done)
	}()
	assert.Eventually(t, func() bool {
		return manager.Len() == 0 && tokens.Len() == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestManager_LookupEmptyToken(t *testing.T) {
	manager, _ := newTestManager(t, NewMemTokenStore())
	_, err := manager.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, internalerrors.ErrSessionNotFound)
}

func TestManager_ChangeHook(t *testing.T) {
	var changes []change
	hook := func(ctx context.Context, action, owner, id string) {
		changes = append(changes, change{action, owner, id})
	}
	manager, _ := newTestManager(t, NewMemTokenStore(), WithChangeHook(hook))
	ctx := context.Background()

	client, err := manager.Open(ctx)
	require.NoError(t, err)
	_, err = client.Auth.CreateAccount(ctx, "ann@example.com", "password1")
	require.NoError(t, err)

	saved, err := client.Dashboard.Save(ctx, models.Draft{Steps: "10", Sleep: "8"})
	require.NoError(t, err)
	assert.True(t, saved)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ActionCreate, changes[0].action)
	assert.Equal(t, "ann@example.com", changes[0].owner)
	assert.NotEmpty(t, changes[0].id)
}
