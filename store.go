package dulceria

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Storage keys mirror the upstream front end. Both are written together and
// cleared together; one without the other is treated as no session.
const (
	StoreKeyToken  = "authToken"
	StoreKeyClaims = "userInfo"
)

// Store persists the (token, claims) pair across restarts on top of a
// KeyValue backend. It performs no validation beyond what HasValidSession
// needs; lifecycle decisions belong to the SessionManager.
type Store struct {
	kv     KeyValue
	logger Logger
	now    func() time.Time
}

type StoreOption func(*Store)

// WithStoreLogger overrides the logger used for swallowed read failures.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreClock injects a custom clock (useful for tests).
func WithStoreClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewStore returns a Store over the given KeyValue backend.
func NewStore(kv KeyValue, opts ...StoreOption) *Store {
	s := &Store{
		kv:     kv,
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Save writes the token and its claims under the fixed keys, overwriting any
// prior values. The two writes are independent best-effort operations but
// are always issued together.
func (s *Store) Save(ctx context.Context, token string, claims *Claims) error {
	if err := s.kv.Set(ctx, StoreKeyToken, token); err != nil {
		return err
	}

	data, err := json.Marshal(claims)
	if err != nil {
		return err
	}

	return s.kv.Set(ctx, StoreKeyClaims, string(data))
}

// Token returns the stored raw token, empty when absent.
func (s *Store) Token(ctx context.Context) (string, error) {
	return s.kv.Get(ctx, StoreKeyToken)
}

// Claims returns the stored claims, nil when absent. Parse failures are
// swallowed and reported as no claims, matching upstream behavior.
func (s *Store) Claims(ctx context.Context) *Claims {
	raw, err := s.kv.Get(ctx, StoreKeyClaims)
	if err != nil || raw == "" {
		return nil
	}

	claims := &Claims{}
	if err := json.Unmarshal([]byte(raw), claims); err != nil {
		s.logger.Debug("discarding unparseable stored claims: %v", err)
		return nil
	}

	return claims
}

// Clear removes both keys unconditionally. Idempotent; each key removal is
// atomic at the storage level, so concurrent clears cannot leave a lone
// token or lone claims value behind.
func (s *Store) Clear(ctx context.Context) error {
	errToken := s.kv.Delete(ctx, StoreKeyToken)
	errClaims := s.kv.Delete(ctx, StoreKeyClaims)

	if errToken != nil {
		return errToken
	}
	return errClaims
}

// Session returns the decoded claims of the persisted session. It reports
// ErrNoSession when either key is absent, the token-decode error kind for an
// unreadable token, and ErrSessionExpired when exp is past.
func (s *Store) Session(ctx context.Context) (*Claims, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoSession
	}

	claims, err := DecodeToken(token)
	if err != nil {
		return nil, err
	}

	// Both keys are written together; a lone token is not a session.
	if s.Claims(ctx) == nil {
		return nil, ErrNoSession
	}

	if claims.Expired(s.now()) {
		return nil, ErrSessionExpired
	}

	return claims, nil
}

// HasValidSession reports whether the store holds a live session.
func (s *Store) HasValidSession(ctx context.Context) bool {
	_, err := s.Session(ctx)
	return err == nil
}

// TokenSource returns a read-only view over the store so components that
// attach bearer credentials cannot write session state.
func (s *Store) TokenSource() TokenSource {
	return readOnlyTokens{store: s}
}

type readOnlyTokens struct {
	store *Store
}

func (r readOnlyTokens) Token(ctx context.Context) (string, error) {
	return r.store.Token(ctx)
}

// MemoryKeyValue is an in-process KeyValue backend. It backs tests and
// ephemeral sessions that should not outlive the process.
type MemoryKeyValue struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ KeyValue = (*MemoryKeyValue)(nil)

func NewMemoryKeyValue() *MemoryKeyValue {
	return &MemoryKeyValue{values: map[string]string{}}
}

func (m *MemoryKeyValue) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *MemoryKeyValue) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKeyValue) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryKeyValue) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string]string{}
	return nil
}
