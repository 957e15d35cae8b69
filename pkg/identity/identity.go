// Package identity issues and checks the ID tokens that authorize item
// requests. The API side is LocalProvider; clients use HTTPAuthenticator.
package identity

import (
	"context"
	"errors"
)

// Result is the outcome of an authentication attempt: a token on success
// or an error whose message can be shown to the user.
type Result struct {
	Token string
	Err   error
}

// OK reports whether authentication succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.Token != ""
}

// Authenticator exchanges credentials for an ID token.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) Result
}

// Failure is a rejection reported by the identity provider. Its message is
// safe to display.
type Failure struct {
	Message string
}

func (f *Failure) Error() string { return f.Message }

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = &Failure{Message: "Incorrect username or password."}

// ErrInvalidToken is returned by Verify for any token that is not accepted.
var ErrInvalidToken = errors.New("identity: invalid token")

// Claims are the verified contents of an ID token.
type Claims struct {
	Subject string
}
