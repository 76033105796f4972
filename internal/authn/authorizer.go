package authn

import "errors"

// ErrIncorrectPIN is returned when the supplied PIN does not match.
var ErrIncorrectPIN = errors.New("incorrect PIN")

// Authorizer decides whether a caller-supplied secret allows a protected operation.
type Authorizer interface {
	Authorize(secret string) error
}
