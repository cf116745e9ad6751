package dulceria_test

import (
	"context"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dulceria "github.com/uayeb25/dulceria-client"
)

type fakeAuthAPI struct {
	loginResult    *dulceria.LoginResult
	loginErr       error
	loginCalls     int
	registerResult *dulceria.UserRecord
	registerErr    error
	registerCalls  int
}

func (f *fakeAuthAPI) Login(_ context.Context, _ dulceria.Credential) (*dulceria.LoginResult, error) {
	f.loginCalls++
	return f.loginResult, f.loginErr
}

func (f *fakeAuthAPI) RegisterUser(_ context.Context, _ dulceria.RegisterUserPayload) (*dulceria.UserRecord, error) {
	f.registerCalls++
	return f.registerResult, f.registerErr
}

func newManager(t *testing.T, api *fakeAuthAPI) (*dulceria.SessionManager, *dulceria.Store, *dulceria.MemoryKeyValue) {
	t.Helper()
	kv := dulceria.NewMemoryKeyValue()
	store := dulceria.NewStore(kv)
	return dulceria.NewSessionManager(api, store), store, kv
}

func TestSessionManager_LoginSuccess(t *testing.T) {
	ctx := context.Background()
	token := makeToken(t, map[string]any{
		"email":     "ana@dulceria.hn",
		"firstname": "Ana",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	api := &fakeAuthAPI{loginResult: &dulceria.LoginResult{IDToken: token}}
	manager, store, _ := newManager(t, api)

	require.NoError(t, manager.Login(ctx, "ana@dulceria.hn", "Secreta1!"))

	assert.True(t, manager.IsAuthenticated())
	assert.Equal(t, dulceria.StateAuthenticated, manager.State())
	assert.False(t, manager.Loading())

	user := manager.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "ana@dulceria.hn", user.Identifier())

	stored, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, stored)
	assert.NotNil(t, store.Claims(ctx))
}

func TestSessionManager_LoginRejected(t *testing.T) {
	ctx := context.Background()
	api := &fakeAuthAPI{loginErr: dulceria.ErrInvalidCredentials}
	manager, store, _ := newManager(t, api)

	err := manager.Login(ctx, "ana@dulceria.hn", "wrong-pass")
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, dulceria.MsgInvalidCredentials, richErr.Message)

	assert.False(t, manager.IsAuthenticated())
	assert.Equal(t, dulceria.StateUnauthenticated, manager.State())

	stored, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSessionManager_LoginResponseWithoutToken(t *testing.T) {
	ctx := context.Background()
	api := &fakeAuthAPI{loginResult: &dulceria.LoginResult{}}
	manager, _, _ := newManager(t, api)

	err := manager.Login(ctx, "ana@dulceria.hn", "Secreta1!")
	require.Error(t, err)
	assert.True(t, dulceria.IsTokenDecodeError(err))
	assert.False(t, manager.IsAuthenticated())
}

func TestSessionManager_LoginValidatesCredentialsLocally(t *testing.T) {
	ctx := context.Background()
	api := &fakeAuthAPI{}
	manager, _, _ := newManager(t, api)

	err := manager.Login(ctx, "not-an-email", "pass")
	require.Error(t, err)
	assert.Zero(t, api.loginCalls, "invalid input must never reach the network")
}

func TestSessionManager_RegisterNeverOpensSession(t *testing.T) {
	ctx := context.Background()
	api := &fakeAuthAPI{registerResult: &dulceria.UserRecord{ID: 7, Email: "ana@dulceria.hn"}}
	manager, store, _ := newManager(t, api)

	user, err := manager.Register(ctx, "Ana", "Martínez", "ana@dulceria.hn", "Secreta1!")
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)

	assert.False(t, manager.IsAuthenticated())
	stored, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSessionManager_RegisterSurfacesServerMessage(t *testing.T) {
	ctx := context.Background()
	serverErr := goerrors.New("El email tiene un formato inválido", goerrors.CategoryBadInput).
		WithCode(goerrors.CodeBadRequest)
	api := &fakeAuthAPI{registerErr: serverErr}
	manager, store, _ := newManager(t, api)

	_, err := manager.Register(ctx, "Ana", "Martínez", "ana@dulceria.hn", "Secreta1!")
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, "El email tiene un formato inválido", richErr.Message)

	stored, storeErr := store.Token(ctx)
	require.NoError(t, storeErr)
	assert.Empty(t, stored, "registration failure must not write storage")
}

func TestSessionManager_Logout(t *testing.T) {
	ctx := context.Background()
	token := makeToken(t, map[string]any{"email": "a@b.co", "exp": time.Now().Add(time.Hour).Unix()})
	api := &fakeAuthAPI{loginResult: &dulceria.LoginResult{IDToken: token}}
	manager, store, _ := newManager(t, api)

	require.NoError(t, manager.Login(ctx, "a@b.co", "Secreta1!"))
	require.True(t, manager.IsAuthenticated())

	require.NoError(t, manager.Logout(ctx))

	assert.False(t, manager.IsAuthenticated())
	assert.Nil(t, manager.CurrentUser())

	stored, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Nil(t, store.Claims(ctx))
}

func TestSessionManager_ValidateToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token leaves state untouched", func(t *testing.T) {
		token := makeToken(t, map[string]any{"email": "a@b.co", "exp": time.Now().Add(time.Hour).Unix()})
		api := &fakeAuthAPI{loginResult: &dulceria.LoginResult{IDToken: token}}
		manager, store, _ := newManager(t, api)
		require.NoError(t, manager.Login(ctx, "a@b.co", "Secreta1!"))

		assert.True(t, manager.ValidateToken(ctx))
		assert.True(t, manager.IsAuthenticated())

		stored, err := store.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, token, stored)
	})

	t.Run("expired token forces a full logout", func(t *testing.T) {
		expired := makeToken(t, map[string]any{"email": "a@b.co", "exp": time.Now().Add(-time.Hour).Unix()})
		manager, store, _ := newManager(t, &fakeAuthAPI{})

		claims := &dulceria.Claims{Email: "a@b.co"}
		require.NoError(t, store.Save(ctx, expired, claims))

		assert.False(t, manager.ValidateToken(ctx))
		assert.False(t, manager.IsAuthenticated())

		stored, err := store.Token(ctx)
		require.NoError(t, err)
		assert.Empty(t, stored)
		assert.Nil(t, store.Claims(ctx))
	})

	t.Run("absent token returns false and clears state", func(t *testing.T) {
		manager, _, _ := newManager(t, &fakeAuthAPI{})
		assert.False(t, manager.ValidateToken(ctx))
		assert.False(t, manager.IsAuthenticated())
	})

	t.Run("concurrent expired checks each complete cleanly", func(t *testing.T) {
		expired := makeToken(t, map[string]any{"email": "a@b.co", "exp": time.Now().Add(-time.Hour).Unix()})
		manager, store, _ := newManager(t, &fakeAuthAPI{})
		require.NoError(t, store.Save(ctx, expired, &dulceria.Claims{Email: "a@b.co"}))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.False(t, manager.ValidateToken(ctx))
			}()
		}
		wg.Wait()

		stored, err := store.Token(ctx)
		require.NoError(t, err)
		assert.Empty(t, stored)
		assert.Nil(t, store.Claims(ctx))
	})
}

func TestSessionManager_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("rehydrates a valid persisted session", func(t *testing.T) {
		token := makeToken(t, map[string]any{"email": "ana@dulceria.hn", "exp": time.Now().Add(time.Hour).Unix()})
		claims, err := dulceria.DecodeToken(token)
		require.NoError(t, err)

		manager, store, _ := newManager(t, &fakeAuthAPI{})
		require.NoError(t, store.Save(ctx, token, claims))

		manager.Start(ctx)

		assert.True(t, manager.IsAuthenticated())
		assert.False(t, manager.Loading())
		require.NotNil(t, manager.CurrentUser())
		assert.Equal(t, "ana@dulceria.hn", manager.CurrentUser().Identifier())
	})

	t.Run("empty storage settles into unauthenticated", func(t *testing.T) {
		manager, _, _ := newManager(t, &fakeAuthAPI{})
		manager.Start(ctx)

		assert.False(t, manager.IsAuthenticated())
		assert.False(t, manager.Loading())
	})

	t.Run("a lone token without claims is not a session", func(t *testing.T) {
		token := makeToken(t, map[string]any{"email": "a@b.co", "exp": time.Now().Add(time.Hour).Unix()})
		manager, _, kv := newManager(t, &fakeAuthAPI{})
		require.NoError(t, kv.Set(ctx, dulceria.StoreKeyToken, token))

		manager.Start(ctx)
		assert.False(t, manager.IsAuthenticated())
	})

	t.Run("expired persisted session is discarded", func(t *testing.T) {
		token := makeToken(t, map[string]any{"email": "a@b.co", "exp": time.Now().Add(-time.Hour).Unix()})
		manager, store, _ := newManager(t, &fakeAuthAPI{})
		require.NoError(t, store.Save(ctx, token, &dulceria.Claims{Email: "a@b.co"}))

		manager.Start(ctx)
		assert.False(t, manager.IsAuthenticated())
	})
}

func TestSessionManager_LoginWhileAuthenticated(t *testing.T) {
	ctx := context.Background()
	token := makeToken(t, map[string]any{"email": "a@b.co", "exp": time.Now().Add(time.Hour).Unix()})
	api := &fakeAuthAPI{loginResult: &dulceria.LoginResult{IDToken: token}}
	manager, _, _ := newManager(t, api)

	require.NoError(t, manager.Login(ctx, "a@b.co", "Secreta1!"))

	err := manager.Login(ctx, "a@b.co", "Secreta1!")
	require.Error(t, err)
	assert.Equal(t, 1, api.loginCalls)
	assert.True(t, manager.IsAuthenticated(), "rejected transition must not tear the session down")
}
