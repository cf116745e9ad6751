// Package routegate provides the two route guards of the admin UI:
// RequireAuthenticated for protected views and RequireAnonymous for entry
// points like login and signup. Both are pure functions of the session
// state; the only side effects they produce are a redirect and, on a
// successful pass through RequireAuthenticated, the session claims placed
// in the request context for downstream handlers.
package routegate

import (
	"github.com/gofiber/fiber/v2"

	dulceria "github.com/uayeb25/dulceria-client"
)

// Config holds guard options
type Config struct {
	// State is the read-only session state. Required.
	State dulceria.StateReader

	// LoginRoute is where RequireAuthenticated redirects anonymous
	// visitors. Defaults to /login.
	LoginRoute string

	// LandingRoute is where RequireAnonymous redirects authenticated
	// visitors. Defaults to /dashboard.
	LandingRoute string

	// PendingHandler renders while the session is still rehydrating.
	// Defaults to a 503 with a Retry-After hint.
	PendingHandler fiber.Handler
}

func (cfg *Config) applyDefaults() {
	if cfg.LoginRoute == "" {
		cfg.LoginRoute = "/login"
	}
	if cfg.LandingRoute == "" {
		cfg.LandingRoute = "/dashboard"
	}
	if cfg.PendingHandler == nil {
		cfg.PendingHandler = func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, "1")
			return c.Status(fiber.StatusServiceUnavailable).SendString("Cargando...")
		}
	}
}

// RequireAuthenticated lets the request through only with an established
// session; anonymous visitors are redirected to the login route. Handlers
// behind the guard can read the session claims with
// dulceria.ClaimsFromContext(c.UserContext()).
func RequireAuthenticated(cfg Config) fiber.Handler {
	cfg.applyDefaults()

	return func(c *fiber.Ctx) error {
		if cfg.State.Loading() {
			return cfg.PendingHandler(c)
		}

		if !cfg.State.IsAuthenticated() {
			return c.Redirect(cfg.LoginRoute, fiber.StatusFound)
		}

		if user := cfg.State.CurrentUser(); user != nil {
			c.SetUserContext(dulceria.WithClaimsContext(c.UserContext(), user))
		}

		return c.Next()
	}
}

// RequireAnonymous is the inverse guard: authenticated visitors are sent to
// the landing route instead of seeing entry points again.
func RequireAnonymous(cfg Config) fiber.Handler {
	cfg.applyDefaults()

	return func(c *fiber.Ctx) error {
		if cfg.State.Loading() {
			return cfg.PendingHandler(c)
		}

		if cfg.State.IsAuthenticated() {
			return c.Redirect(cfg.LandingRoute, fiber.StatusFound)
		}

		return c.Next()
	}
}
