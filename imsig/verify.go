package imsig

import (
	"bytes"
	"crypto/hmac"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SecretResolver returns the API secret for apiKey. It is called during
// request verification. Resolvers should return ErrUnknownKey for keys they
// do not know.
type SecretResolver func(r *http.Request, apiKey string) (string, error)

// VerifyConfig configures IM signature verification.
type VerifyConfig struct {
	// Resolver looks up the secret for the API key named in the
	// Authorization header. Required.
	Resolver SecretResolver

	// MaxSkew is the largest accepted distance between the Date header and
	// the verifier's clock. Zero disables the check.
	MaxSkew time.Duration

	// Clock supplies the current time for the skew check. Defaults to
	// SystemClock.
	Clock Clock
}

// ParseAuthorization splits an "IM <key>:<signature>" header value.
func ParseAuthorization(header string) (string, string, error) {
	scheme, creds, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || scheme != Scheme {
		return "", "", fmt.Errorf("%w: expected %s scheme", ErrMalformedHeader, Scheme)
	}

	apiKey, sig, ok := strings.Cut(creds, ":")
	if !ok || apiKey == "" || sig == "" {
		return "", "", fmt.Errorf("%w: expected <key>:<signature>", ErrMalformedHeader)
	}

	return apiKey, sig, nil
}

// VerifyRequest checks the IM signature of an incoming request. The body is
// read and restored so handlers can still consume it.
func VerifyRequest(r *http.Request, cfg VerifyConfig) error {
	if cfg.Resolver == nil {
		return ErrNoResolver
	}

	authHeader := r.Header.Get(HeaderAuthorization)
	if authHeader == "" {
		return ErrAuthorizationNotFound
	}

	apiKey, sig, err := ParseAuthorization(authHeader)
	if err != nil {
		return err
	}

	date := r.Header.Get(HeaderDate)
	if date == "" {
		return ErrDateNotFound
	}

	if cfg.MaxSkew > 0 {
		if err := checkSkew(date, cfg); err != nil {
			return err
		}
	}

	secret, err := cfg.Resolver(r, apiKey)
	if err != nil {
		return err
	}

	params, err := ParamsFromQuery(r.URL.Query())
	if err != nil {
		return err
	}

	body, err := restoreBody(r)
	if err != nil {
		return err
	}

	got, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return fmt.Errorf("%w: invalid base64 in signature", ErrMalformedHeader)
	}

	expected := computeHMAC([]byte(secret), []byte(CanonicalString(apiKey, date, params, body)))
	if !hmac.Equal(expected, got) {
		return ErrSignatureInvalid
	}

	return nil
}

func checkSkew(date string, cfg VerifyConfig) error {
	signedAt, err := http.ParseTime(date)
	if err != nil {
		return fmt.Errorf("%w: invalid date", ErrMalformedHeader)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	skew := clock.Now().Sub(signedAt)
	if skew < 0 {
		skew = -skew
	}

	if skew > cfg.MaxSkew {
		return ErrSignatureExpired
	}

	return nil
}

func restoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))

	if len(data) == 0 {
		return nil, nil
	}

	return data, nil
}
