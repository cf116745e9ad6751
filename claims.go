package dulceria

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a server-issued token. The schema is
// strict: exp and an identifier (email or sub) are required, everything else
// is optional. Unknown payload fields are dropped on decode.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Firstname string `json:"firstname,omitempty"`
	Lastname  string `json:"lastname,omitempty"`
}

// Identifier returns the claim identifying the user, preferring email.
func (c *Claims) Identifier() string {
	if c.Email != "" {
		return c.Email
	}
	return c.RegisteredClaims.Subject
}

// FullName joins the name claims for display.
func (c *Claims) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.Firstname) + " " + strings.TrimSpace(c.Lastname))
}

// Expires returns the expiration time, zero when the claim is missing.
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Expired reports whether the claims are past expiry at the given instant.
// Missing exp counts as expired; exp is the authoritative expiry.
func (c *Claims) Expired(now time.Time) bool {
	if c.RegisteredClaims.ExpiresAt == nil {
		return true
	}
	return !c.Expires().After(now)
}

// Validate enforces the claims schema after decoding.
func (c *Claims) Validate() error {
	if c.RegisteredClaims.ExpiresAt == nil {
		return ErrTokenMalformed.WithMetadata(map[string]any{
			"reason": "missing exp claim",
		})
	}

	if c.Identifier() == "" {
		return ErrTokenMalformed.WithMetadata(map[string]any{
			"reason": "missing email and sub claims",
		})
	}

	return validation.ValidateStruct(c,
		validation.Field(&c.Email, is.Email),
	)
}
