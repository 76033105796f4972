package authn

import (
	"crypto/subtle"
	"errors"
)

// PINAuthorizer authorizes callers presenting a static shared PIN.
// There is no hashing, rate limiting or lockout.
type PINAuthorizer struct {
	pin []byte
}

// Authorize returns ErrIncorrectPIN unless secret equals the configured PIN exactly.
func (a *PINAuthorizer) Authorize(secret string) error {
	if subtle.ConstantTimeCompare([]byte(secret), a.pin) != 1 {
		return ErrIncorrectPIN
	}

	return nil
}

// NewPINAuthorizer creates an Authorizer for pin. An empty pin is rejected.
func NewPINAuthorizer(pin string) (Authorizer, error) {
	if pin == "" {
		return nil, errors.New("delete PIN must not be empty")
	}

	return &PINAuthorizer{pin: []byte(pin)}, nil
}
