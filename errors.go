package dulceria

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// ErrNoSession is the error when the store holds no usable session
var ErrNoSession = errors.New("no session available")

// ErrUnableToDecodeToken decode or parse failure for a stored token
var ErrUnableToDecodeToken = errors.New("unable to decode token")

// ErrUnableToMapClaims unable to get claims from a decoded payload
var ErrUnableToMapClaims = errors.New("unable to map claims")

const (
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeSessionExpired     = "SESSION_EXPIRED"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeForbidden          = "FORBIDDEN"
	TextCodeNotFound           = "NOT_FOUND"
	TextCodeConflict           = "CONFLICT"
	TextCodeServerError        = "SERVER_ERROR"
)

// User-facing messages kept verbatim from the upstream service, which speaks
// Spanish to its operators.
const (
	MsgInvalidCredentials = "Credenciales inválidas. Verifica tu email y contraseña."
	MsgEmailTaken         = "Este email ya está registrado. Intenta con otro email."
	MsgForbidden          = "No tienes permisos para realizar esta acción."
	MsgNotFound           = "El recurso solicitado no fue encontrado."
	MsgUserExists         = "El usuario ya existe en el sistema."
	MsgServerError        = "Error interno del servidor. Intenta nuevamente más tarde."
	MsgSessionExpired     = "Tu sesión ha expirado. Inicia sesión nuevamente."
	MsgLoginFailed        = "Error al iniciar sesión. Intenta nuevamente."
	MsgInvalidToken       = "Token inválido"
)

// ErrTokenMalformed is returned when a token cannot be decoded into claims.
var ErrTokenMalformed = goerrors.New(MsgInvalidToken, goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionExpired is returned when the stored token is past its expiry.
var ErrSessionExpired = goerrors.New(MsgSessionExpired, goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is returned for rejected login attempts.
var ErrInvalidCredentials = goerrors.New(MsgInvalidCredentials, goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// mapStatusError translates a non-2xx response into the error taxonomy.
// serverMsg is the message/detail field extracted from the response body and
// wins over the canned text where upstream honors it (400 and the default
// branch).
func mapStatusError(status int, statusText, serverMsg string) error {
	switch status {
	case http.StatusBadRequest:
		msg := serverMsg
		if msg == "" {
			msg = MsgEmailTaken
		}
		return goerrors.New(msg, goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"status": status})
	case http.StatusUnauthorized:
		return ErrInvalidCredentials
	case http.StatusForbidden:
		return goerrors.New(MsgForbidden, goerrors.CategoryAuthz).
			WithTextCode(TextCodeForbidden).
			WithCode(goerrors.CodeForbidden)
	case http.StatusNotFound:
		return goerrors.New(MsgNotFound, goerrors.CategoryNotFound).
			WithTextCode(TextCodeNotFound).
			WithCode(goerrors.CodeNotFound)
	case http.StatusConflict:
		return goerrors.New(MsgUserExists, goerrors.CategoryConflict).
			WithTextCode(TextCodeConflict).
			WithCode(goerrors.CodeConflict)
	case http.StatusInternalServerError:
		return goerrors.New(MsgServerError, goerrors.CategoryInternal).
			WithTextCode(TextCodeServerError).
			WithCode(goerrors.CodeInternal)
	default:
		msg := serverMsg
		if msg == "" {
			msg = fmt.Sprintf("Error %d: %s", status, statusText)
		}
		return goerrors.New(msg, goerrors.CategoryOperation).
			WithCode(goerrors.CodeInternal).
			WithMetadata(map[string]any{"status": status})
	}
}

func hasTextCode(err error, textCode string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

// IsTokenDecodeError will check for undecodable tokens
func IsTokenDecodeError(err error) bool {
	return hasTextCode(err, TextCodeTokenMalformed)
}

// IsSessionExpiredError will check for expired sessions
func IsSessionExpiredError(err error) bool {
	return hasTextCode(err, TextCodeSessionExpired)
}

// IsInvalidCredentialsError will check for rejected logins
func IsInvalidCredentialsError(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials)
}

// IsForbiddenError will check for authorization rejections
func IsForbiddenError(err error) bool {
	return hasTextCode(err, TextCodeForbidden)
}

// IsConflictError will check for duplicate-registration conflicts
func IsConflictError(err error) bool {
	return hasTextCode(err, TextCodeConflict)
}

// IsServerError will check for upstream 5xx failures
func IsServerError(err error) bool {
	return hasTextCode(err, TextCodeServerError)
}
