package dulceria

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// SessionState is the lifecycle state of the client session.
type SessionState string

const (
	StateUnauthenticated SessionState = "unauthenticated"
	StateAuthenticating  SessionState = "authenticating"
	StateAuthenticated   SessionState = "authenticated"
)

const textCodeInvalidSessionTransition = "INVALID_SESSION_TRANSITION"

// ErrInvalidSessionTransition is returned when a requested state change is
// not allowed, e.g. logging in while already authenticated.
var ErrInvalidSessionTransition = goerrors.New("invalid session state transition", goerrors.CategoryConflict).
	WithTextCode(textCodeInvalidSessionTransition).
	WithCode(goerrors.CodeConflict)

// AuthAPI is the slice of the API client the manager needs.
type AuthAPI interface {
	Login(ctx context.Context, cred Credential) (*LoginResult, error)
	RegisterUser(ctx context.Context, payload RegisterUserPayload) (*UserRecord, error)
}

// SessionManager orchestrates login, registration, logout, and validity
// checks. It owns the in-memory auth state and is the single writer of the
// session store; every other component sees read-only derived state.
type SessionManager struct {
	api    AuthAPI
	store  *Store
	logger Logger
	now    func() time.Time

	transitions map[SessionState]map[SessionState]struct{}

	mu      sync.Mutex
	state   SessionState
	user    *Claims
	loading bool
}

var _ StateReader = (*SessionManager)(nil)

type SessionManagerOption func(*SessionManager)

// WithLogger overrides the manager logger.
func WithLogger(logger Logger) SessionManagerOption {
	return func(m *SessionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) SessionManagerOption {
	return func(m *SessionManager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// NewSessionManager returns a manager in the Unauthenticated state. Call
// Start to rehydrate a persisted session.
func NewSessionManager(api AuthAPI, store *Store, opts ...SessionManagerOption) *SessionManager {
	m := &SessionManager{
		api:    api,
		store:  store,
		logger: defLogger{},
		now:    time.Now,
		state:  StateUnauthenticated,
		transitions: map[SessionState]map[SessionState]struct{}{
			StateUnauthenticated: {
				StateAuthenticating: {},
			},
			StateAuthenticating: {
				StateAuthenticated:   {},
				StateUnauthenticated: {},
			},
			StateAuthenticated: {
				StateUnauthenticated: {},
			},
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Start rehydrates the session from the store without touching the network.
// The manager reports loading until rehydration settles into Authenticated
// or Unauthenticated.
func (m *SessionManager) Start(ctx context.Context) {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	user, err := m.store.Session(ctx)
	if err != nil {
		m.logger.Debug("no session to rehydrate: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if user != nil {
		m.state = StateAuthenticated
		m.user = user
	} else {
		m.state = StateUnauthenticated
		m.user = nil
	}
	m.loading = false
}

// Login authenticates against the API and establishes a session. On any
// failure the state reverts to Unauthenticated and the mapped error
// propagates to the caller for inline display.
func (m *SessionManager) Login(ctx context.Context, email, password string) error {
	cred := Credential{Email: email, Password: password}
	if err := cred.Validate(); err != nil {
		return err
	}

	if err := m.begin(); err != nil {
		return err
	}

	result, err := m.api.Login(ctx, cred)
	if err != nil {
		m.settle(nil, "")
		return err
	}

	if result == nil || result.IDToken == "" {
		m.settle(nil, "")
		return ErrTokenMalformed.WithMetadata(map[string]any{
			"reason": "login response carried no token",
		})
	}

	claims, err := DecodeToken(result.IDToken)
	if err != nil {
		m.settle(nil, "")
		return err
	}

	if err := m.store.Save(ctx, result.IDToken, claims); err != nil {
		m.settle(nil, "")
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to persist session")
	}

	m.settle(claims, result.IDToken)
	m.logger.Info("session established for %s", claims.Identifier())
	return nil
}

// Register creates a new account. It never mutates the session state or the
// store: registration does not log the user in.
func (m *SessionManager) Register(ctx context.Context, name, lastname, email, password string) (*UserRecord, error) {
	payload := RegisterUserPayload{
		Name:     name,
		Lastname: lastname,
		Email:    email,
		Password: password,
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return m.api.RegisterUser(ctx, payload)
}

// Logout tears the session down locally. The server is not notified; its
// tokens simply stop being presented.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clearLocked(ctx)
}

// ValidateToken re-reads the store and reports whether the session is still
// valid. An absent, undecodable, or expired token triggers the full logout
// side effect before returning false. Idempotent: concurrent invocations
// each observe either a valid session or a fully cleared one.
func (m *SessionManager) ValidateToken(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.store.Token(ctx)
	if err != nil || token == "" {
		m.clearLocked(ctx)
		return false
	}

	claims, err := DecodeToken(token)
	if err != nil || claims.Expired(m.now()) {
		m.clearLocked(ctx)
		return false
	}

	return true
}

// CurrentUser returns the claims of the authenticated user, nil otherwise.
func (m *SessionManager) CurrentUser() *Claims {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// IsAuthenticated reports whether the session is established.
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateAuthenticated
}

// Loading reports whether a login or rehydration is in flight.
func (m *SessionManager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// State returns the current lifecycle state.
func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// begin moves into Authenticating ahead of the network call.
func (m *SessionManager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.canTransition(m.state, StateAuthenticating) {
		return ErrInvalidSessionTransition.WithMetadata(map[string]any{
			"from": m.state,
			"to":   StateAuthenticating,
		})
	}

	m.state = StateAuthenticating
	m.loading = true
	return nil
}

// settle resolves an Authenticating episode. A nil user reverts to
// Unauthenticated.
func (m *SessionManager) settle(user *Claims, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loading = false
	if user == nil || token == "" {
		m.state = StateUnauthenticated
		m.user = nil
		return
	}

	m.state = StateAuthenticated
	m.user = user
}

// clearLocked resets state and storage. Callers hold m.mu.
func (m *SessionManager) clearLocked(ctx context.Context) error {
	err := m.store.Clear(ctx)
	if err != nil {
		m.logger.Warn("session store clear failed: %v", err)
	}

	m.user = nil
	m.state = StateUnauthenticated
	m.loading = false
	return err
}

func (m *SessionManager) canTransition(from, to SessionState) bool {
	if allowed, ok := m.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}
