package security

import (
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const (
	MinPasswordLength = 8
	specialCharacters = `!@#$%^&*(),.?":{}|<>`
)

const (
	msgPasswordTooShort  = "Password must be at least 8 characters long."
	msgPasswordClasses   = "Password must contain an uppercase letter, a lowercase letter, and a number."
	msgPasswordSpecial   = "Password must include at least one special character."
	msgPasswordsMismatch = "Passwords do not match."
)

// ValidateSignupPassword enforces the registration policy: length plus
// upper, lower and digit classes.
func ValidateSignupPassword(password string) error {
	if len(password) < MinPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, msgPasswordTooShort)
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return pkgerrors.New(pkgerrors.CodeValidation, msgPasswordClasses)
	}
	return nil
}

// ValidateResetPassword applies the stricter reset policy. The confirmation
// is checked first.
func ValidateResetPassword(password, confirm string) error {
	if password != confirm {
		return pkgerrors.New(pkgerrors.CodeValidation, msgPasswordsMismatch)
	}
	if err := ValidateSignupPassword(password); err != nil {
		return err
	}
	if !strings.ContainsAny(password, specialCharacters) {
		return pkgerrors.New(pkgerrors.CodeValidation, msgPasswordSpecial)
	}
	return nil
}
