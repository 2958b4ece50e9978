package csm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error kinds. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	// ErrConfiguration is matched by *ConfigurationError.
	ErrConfiguration = errors.New("csm: configuration error")

	// ErrValidation is matched by *ValidationError.
	ErrValidation = errors.New("csm: invalid request")

	// ErrSigning is matched by *SigningError.
	ErrSigning = errors.New("csm: request signing failed")

	// ErrHTTPStatus is matched by *HTTPStatusError.
	ErrHTTPStatus = errors.New("csm: unexpected http status")

	// ErrTransport is matched by *TransportError.
	ErrTransport = errors.New("csm: transport failure")

	// ErrResponseShape is matched by *ResponseShapeError.
	ErrResponseShape = errors.New("csm: unexpected response shape")
)

// Status sentinels, matched by *HTTPStatusError in addition to
// ErrHTTPStatus.
var (
	// ErrUnauthorized is matched by 401 and 403 responses, which the API
	// returns for bad keys and bad signatures.
	ErrUnauthorized = errors.New("csm: unauthorized")

	// ErrNotFound is matched by 404 responses.
	ErrNotFound = errors.New("csm: not found")

	// ErrRateLimited is matched by 429 responses.
	ErrRateLimited = errors.New("csm: rate limit exceeded")
)

// ConfigurationError reports missing or invalid client configuration. It is
// returned by New before any request is made.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("csm: configuration: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ValidationError reports a request rejected before signing or any network
// activity.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("csm: invalid %s: %s", e.Field, e.Reason)
}

// Is implements errors.Is for sentinel error matching.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SigningError reports a failure to compute authentication headers. Err is
// one of the imsig errors.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("csm: sign request: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *SigningError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *SigningError) Is(target error) bool {
	return target == ErrSigning
}

// HTTPStatusError reports a non-2xx response. Body holds the raw response
// body; Message is the "message" or "error" field of a JSON body, if any.
type HTTPStatusError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Body       []byte
}

func newHTTPStatusError(method, url string, statusCode int, body []byte) *HTTPStatusError {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	e := &HTTPStatusError{
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Body:       body,
	}

	if err := json.Unmarshal(body, &errResp); err == nil {
		e.Message = errResp.Message
		if e.Message == "" {
			e.Message = errResp.Error
		}
	}

	return e
}

func (e *HTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("csm: %s %s: http %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("csm: %s %s: http %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is implements errors.Is for sentinel error matching.
func (e *HTTPStatusError) Is(target error) bool {
	switch target {
	case ErrHTTPStatus:
		return true
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}

	return false
}

// TransportError reports a request that produced no HTTP response:
// connection failures, timeouts and cancellation.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("csm: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Timeout reports whether the failure was a deadline or network timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// ResponseShapeError reports a 2xx response whose body does not match the
// expected record.
type ResponseShapeError struct {
	Operation string
	Body      []byte
	Err       error
}

func (e *ResponseShapeError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("csm: %s: decode response: %v", e.Operation, e.Err)
	}

	return fmt.Sprintf("csm: decode response: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ResponseShapeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *ResponseShapeError) Is(target error) bool {
	return target == ErrResponseShape
}
