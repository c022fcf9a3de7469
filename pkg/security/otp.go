package security

import (
	"crypto/rand"
	"math/big"
	"strconv"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	otpMin   = 100000
	otpRange = 900000

	placeholderCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewOTP returns a 6 digit code drawn uniformly from [100000, 999999]
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// NewPlaceholderPassword returns a random password for accounts that never
// log in with one, such as accounts created through Google
func NewPlaceholderPassword() (string, error) {
	return gonanoid.Generate(placeholderCharset, 10)
}
