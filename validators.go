package dulceria

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Client-side field checks. These run before any network call and mirror the
// backend's own rules so rejected input never leaves the process.

var (
	emailPattern       = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	uppercasePattern   = regexp.MustCompile(`[A-Z]`)
	digitPattern       = regexp.MustCompile(`\d`)
	specialCharPattern = regexp.MustCompile(`[@$!%*?&]`)
)

const (
	passwordMinLength = 8
	passwordMaxLength = 64
)

// Credential is an ephemeral login submission. It is sent once and never
// persisted.
type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credential) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email,
			validation.Required.Error("El email es requerido"),
			validation.Match(emailPattern).Error("El formato del email no es válido"),
		),
		validation.Field(&c.Password,
			validation.Required.Error("La contraseña es requerida"),
		),
	)
}

// ValidateEmail checks the email format the backend accepts.
func ValidateEmail(email string) error {
	return validation.Validate(email,
		validation.Required.Error("El email es requerido"),
		validation.Match(emailPattern).Error("El formato del email no es válido"),
	)
}

// ValidatePassword enforces the backend password policy: 8 to 64 characters
// with at least one uppercase letter, one digit, and one special character.
func ValidatePassword(password string) error {
	return validation.Validate(password,
		validation.Required.Error("La contraseña es requerida"),
		validation.Length(passwordMinLength, passwordMaxLength).
			Error("La contraseña debe tener entre 8 y 64 caracteres"),
		validation.Match(uppercasePattern).
			Error("La contraseña debe contener al menos una letra mayúscula"),
		validation.Match(digitPattern).
			Error("La contraseña debe contener al menos un número"),
		validation.Match(specialCharPattern).
			Error("La contraseña debe contener al menos un carácter especial (@$!%*?&)"),
	)
}

// PasswordStrength breaks the policy into per-criterion indicators for
// progressive feedback while the user types.
type PasswordStrength struct {
	HasMinLength   bool
	HasMaxLength   bool
	HasUppercase   bool
	HasNumber      bool
	HasSpecialChar bool
}

// Valid reports whether every criterion holds.
func (s PasswordStrength) Valid() bool {
	return s.HasMinLength && s.HasMaxLength && s.HasUppercase && s.HasNumber && s.HasSpecialChar
}

// CheckPasswordStrength evaluates each policy criterion independently.
func CheckPasswordStrength(password string) PasswordStrength {
	return PasswordStrength{
		HasMinLength:   len(password) >= passwordMinLength,
		HasMaxLength:   len(password) <= passwordMaxLength,
		HasUppercase:   uppercasePattern.MatchString(password),
		HasNumber:      digitPattern.MatchString(password),
		HasSpecialChar: specialCharPattern.MatchString(password),
	}
}
