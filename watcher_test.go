package dulceria_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dulceria "github.com/uayeb25/dulceria-client"
)

func TestSessionWatcher_StopsOnAlreadyInvalidSession(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newManager(t, &fakeAuthAPI{})

	var expired atomic.Bool
	watcher := dulceria.NewSessionWatcher(manager,
		dulceria.WithWatcherInterval(10*time.Millisecond),
		dulceria.WithOnExpired(func() { expired.Store(true) }),
	)

	assert.False(t, watcher.Start(ctx), "an empty store is not a valid session")
	assert.True(t, expired.Load())

	select {
	case <-watcher.Done():
	default:
		t.Fatal("watcher must report done after refusing to start")
	}
}

func TestSessionWatcher_StartIsSingleUse(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newManager(t, &fakeAuthAPI{})

	watcher := dulceria.NewSessionWatcher(manager,
		dulceria.WithWatcherInterval(10*time.Millisecond),
	)

	assert.False(t, watcher.Start(ctx))
	// A second call after a refused start must be a no-op, not a panic.
	assert.False(t, watcher.Start(ctx))

	select {
	case <-watcher.Done():
	default:
		t.Fatal("watcher must report done after refusing to start")
	}
}

func TestSessionWatcher_SelfCancelsWhenSessionExpires(t *testing.T) {
	ctx := context.Background()
	token := makeToken(t, map[string]any{"email": "a@b.co", "exp": time.Now().Add(time.Hour).Unix()})
	api := &fakeAuthAPI{loginResult: &dulceria.LoginResult{IDToken: token}}
	manager, store, kv := newManager(t, api)
	require.NoError(t, manager.Login(ctx, "a@b.co", "Secreta1!"))

	var expired atomic.Bool
	watcher := dulceria.NewSessionWatcher(manager,
		dulceria.WithWatcherInterval(10*time.Millisecond),
		dulceria.WithOnExpired(func() { expired.Store(true) }),
	)
	require.True(t, watcher.Start(ctx))

	// Swap the stored token for an expired one behind the watcher's back.
	expiredToken := makeToken(t, map[string]any{"email": "a@b.co", "exp": time.Now().Add(-time.Hour).Unix()})
	require.NoError(t, kv.Set(ctx, dulceria.StoreKeyToken, expiredToken))

	select {
	case <-watcher.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not self-cancel on an expired session")
	}

	assert.True(t, expired.Load())
	assert.False(t, manager.IsAuthenticated())

	stored, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSessionWatcher_StopIsIdempotent(t *testing.T) {
	ctx := context.Background()
	token := makeToken(t, map[string]any{"email": "a@b.co", "exp": time.Now().Add(time.Hour).Unix()})
	api := &fakeAuthAPI{loginResult: &dulceria.LoginResult{IDToken: token}}
	manager, _, _ := newManager(t, api)
	require.NoError(t, manager.Login(ctx, "a@b.co", "Secreta1!"))

	watcher := dulceria.NewSessionWatcher(manager,
		dulceria.WithWatcherInterval(time.Minute),
	)
	require.True(t, watcher.Start(ctx))

	watcher.Stop()
	watcher.Stop()

	select {
	case <-watcher.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}

	assert.True(t, manager.IsAuthenticated(), "stopping the watcher must not touch the session")
}
