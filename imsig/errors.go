package imsig

import "errors"

// Signing errors.
var (
	// ErrMissingKeys is returned when the API key or API secret is empty.
	// It is checked before any encoding work is done.
	ErrMissingKeys = errors.New("imsig: api key and api secret are required")

	// ErrInvalidEncoding is returned when a key, secret, parameter or body
	// is not valid UTF-8.
	ErrInvalidEncoding = errors.New("imsig: input is not valid UTF-8")

	// ErrBodyEncoding is returned when a request body cannot be serialized
	// to JSON.
	ErrBodyEncoding = errors.New("imsig: body cannot be encoded as JSON")

	// ErrRepeatedParam is returned when a query string carries the same
	// parameter more than once. The signing scheme has no encoding for
	// multi-valued parameters.
	ErrRepeatedParam = errors.New("imsig: repeated query parameter")
)

// Verification errors.
var (
	// ErrNoResolver is returned when VerifyConfig has no SecretResolver.
	ErrNoResolver = errors.New("imsig: secret resolver must not be nil")

	// ErrAuthorizationNotFound is returned when the Authorization header is
	// absent.
	ErrAuthorizationNotFound = errors.New("imsig: authorization header not found")

	// ErrDateNotFound is returned when the Date header is absent.
	ErrDateNotFound = errors.New("imsig: date header not found")

	// ErrMalformedHeader is returned when the Authorization or Date header
	// cannot be parsed.
	ErrMalformedHeader = errors.New("imsig: malformed authentication header")

	// ErrUnknownKey is returned by resolvers for API keys they do not know.
	ErrUnknownKey = errors.New("imsig: unknown api key")

	// ErrSignatureInvalid is returned when the recomputed signature does not
	// match the one carried by the request.
	ErrSignatureInvalid = errors.New("imsig: signature verification failed")

	// ErrSignatureExpired is returned when the Date header is further from
	// the verifier's clock than VerifyConfig.MaxSkew.
	ErrSignatureExpired = errors.New("imsig: request date outside allowed skew")
)
