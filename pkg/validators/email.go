// Package validators contains the request body rules shared by every
// endpoint
package validators

import (
	"errors"
	"net/mail"
)

// maxEmailLength is the longest address SMTP accepts in a path
const maxEmailLength = 254

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailTooLong = errors.New("email address is too long")
	ErrEmailInvalid = errors.New("invalid email address provided")
)

// EmailValidator accepts a bare address only. Display names such as
// "Jane <jane@example.com>" are rejected.
func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	if len(e) > maxEmailLength {
		return ErrEmailTooLong
	}

	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return ErrEmailInvalid
	}

	return nil
}
