package dulceria

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// KeyValue is the durable local storage the session persists into. Set and
// Delete must be atomic per key; Clear removes every key unconditionally.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// StateReader is the read-only view of the session state handed to route
// guards and other consumers. Only the SessionManager can mutate state or
// write the session store.
type StateReader interface {
	CurrentUser() *Claims
	IsAuthenticated() bool
	Loading() bool
}

// TokenSource provides read-only access to the stored raw token for
// components that attach it to outgoing requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config holds client options
type Config interface {
	GetBaseURL() string
	GetHTTPTimeout() time.Duration
	GetLoginRoute() string
	GetLandingRoute() string
	GetValidateInterval() time.Duration
}

// SimpleConfig is a plain Config implementation with sane defaults applied
// by NewDefaultConfig.
type SimpleConfig struct {
	BaseURL          string
	HTTPTimeout      time.Duration
	LoginRoute       string
	LandingRoute     string
	ValidateInterval time.Duration
}

// NewDefaultConfig returns the configuration the upstream deployment uses.
func NewDefaultConfig() *SimpleConfig {
	return &SimpleConfig{
		BaseURL:          "https://dulceria-api-production.up.railway.app",
		HTTPTimeout:      30 * time.Second,
		LoginRoute:       "/login",
		LandingRoute:     "/dashboard",
		ValidateInterval: 60 * time.Second,
	}
}

func (c *SimpleConfig) GetBaseURL() string                 { return c.BaseURL }
func (c *SimpleConfig) GetHTTPTimeout() time.Duration      { return c.HTTPTimeout }
func (c *SimpleConfig) GetLoginRoute() string              { return c.LoginRoute }
func (c *SimpleConfig) GetLandingRoute() string            { return c.LandingRoute }
func (c *SimpleConfig) GetValidateInterval() time.Duration { return c.ValidateInterval }

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] DULCERIA "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] DULCERIA "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] DULCERIA "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] DULCERIA "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
