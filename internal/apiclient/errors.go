package apiclient

import (
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is a non-2xx answer from the registration API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// AuthorizationError is a 401 from an admin endpoint: the secret was rejected.
type AuthorizationError struct {
	HTTPError
}

func (e *AuthorizationError) Error() string {
	return "access denied: " + e.HTTPError.Error()
}

func (e *AuthorizationError) Unwrap() error { return &e.HTTPError }

// NetworkError means the API could not be reached or the exchange was cut short.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// statusError builds the error for a non-2xx answer. The message is the
// response text, or the status text when the body is empty.
func statusError(code int, body []byte, admin bool) error {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(code)
	}
	he := HTTPError{StatusCode: code, Message: msg}
	if admin && code == http.StatusUnauthorized {
		return &AuthorizationError{HTTPError: he}
	}
	return &he
}
