package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrRateLimited   = errors.New("rate limited")
	ErrTooManyPages  = errors.New("pagination limit reached")
	ErrInvalidTarget = errors.New("invalid target login")
)

// GatewayError is the typed failure of every remote call. StatusCode is zero
// when the request never produced a response.
type GatewayError struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("github %s: %s %s: %v", e.Op, e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("github %s: %s %s: status %d: %s", e.Op, e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github %s: %s %s: status %d", e.Op, e.Method, e.Path, e.StatusCode)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// classify maps a failed response onto one of the sentinel errors.
func classify(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return ErrRateLimited
		}
		return ErrUnauthorized
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

// StatusCode extracts the HTTP status of a gateway failure, or 0.
func StatusCode(err error) int {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.StatusCode
	}
	return 0
}
