package dulceria

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"
)

// tokenSegments is the segment count of a compact signed token
// (header.payload.signature).
const tokenSegments = 3

// DecodeToken extracts the claims from the payload segment of a compact
// signed token. The signature is never verified: tokens are only ever
// accepted from the issuing server, which is the trust boundary.
//
// Any failure (wrong segment count, invalid base64, unparseable payload,
// schema violation) yields the token-decode error kind; DecodeToken never
// returns an unrelated kind. The underlying cause stays reachable through
// errors.Is: ErrUnableToDecodeToken for wire-format failures and
// ErrUnableToMapClaims for payloads that do not fit the claims schema.
// Pure function, no I/O.
func DecodeToken(tokenString string) (*Claims, error) {
	claims, err := decodeClaims(tokenString)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, MsgInvalidToken).
			WithTextCode(TextCodeTokenMalformed).
			WithCode(goerrors.CodeUnauthorized)
	}
	return claims, nil
}

// decodeClaims reports failures through the package sentinels so callers can
// tell a broken wire format from a payload that does not map to the schema.
func decodeClaims(tokenString string) (*Claims, error) {
	if parts := strings.Split(tokenString, "."); len(parts) != tokenSegments {
		return nil, fmt.Errorf("%w: expected %d segments, got %d",
			ErrUnableToDecodeToken, tokenSegments, len(parts))
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToDecodeToken, err)
	}

	if err := claims.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToMapClaims, err)
	}

	return claims, nil
}
