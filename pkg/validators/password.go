package validators

import (
	"errors"
	"strings"
	"unicode"
)

const passwordSpecials = "!@#$%^&*()_+."

var (
	ErrPasswordEmpty    = errors.New("no password provided")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordInvalid  = errors.New("password must contain at least 8 characters, 1 number, 1 uppercase & 1 lowercase letter and one of these special characters (!@#$%^&*()_+.)")
)

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < 8 {
		return ErrPasswordTooShort
	}

	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	var lower, upper, digit, special bool
	for _, r := range p {
		switch {
		case r > unicode.MaxASCII:
			return ErrPasswordInvalid
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return ErrPasswordInvalid
		}
	}

	if !lower || !upper || !digit || !special {
		return ErrPasswordInvalid
	}

	return nil
}
