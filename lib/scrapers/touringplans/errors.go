package touringplans

import "fmt"

// TransportError is a network failure or unexpected status on an
// outbound request. It is terminal for the current attempt only; the
// next trigger retries from scratch.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError is a failure anywhere in the login flow: fetching the login
// page, locating the form, or submitting credentials.
type AuthError struct {
	Stage string
	Err   error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login %s: %v", e.Stage, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

var errNoSessionCookie = fmt.Errorf("server did not grant a session cookie")
var errLoginFormMissing = fmt.Errorf("could not find login form")
