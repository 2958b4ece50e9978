package imsig

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is mandated by the IM authentication scheme.
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"
)

// Scheme is the authorization scheme name carried in the Authorization
// header.
const Scheme = "IM"

// Header names written by Headers.Apply.
const (
	HeaderDate          = "Date"
	HeaderAuthorization = "Authorization"
)

// Headers holds the authentication headers for one request. The signature
// embeds Date, so a Headers value is only valid for the request it was
// computed for.
type Headers struct {
	Date          string
	Authorization string
}

// Apply sets the Date and Authorization headers on h.
func (a Headers) Apply(h http.Header) {
	h.Set(HeaderDate, a.Date)
	h.Set(HeaderAuthorization, a.Authorization)
}

// Signer computes IM authentication headers for a key pair.
//
// A Signer holds no mutable state and is safe for concurrent use.
type Signer struct {
	apiKey    string
	apiSecret string
	clock     Clock
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithClock sets the clock used by Sign. Defaults to SystemClock.
func WithClock(c Clock) SignerOption {
	return func(s *Signer) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewSigner creates a Signer. Empty keys are accepted here and reported by
// Sign as ErrMissingKeys.
func NewSigner(apiKey, apiSecret string, opts ...SignerOption) *Signer {
	s := &Signer{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		clock:     SystemClock{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// APIKey returns the key the signer authenticates as.
func (s *Signer) APIKey() string {
	return s.apiKey
}

// Sign computes headers for params and body at the signer clock's current
// time. body must be the exact bytes sent on the wire (see EncodeBody); nil
// means no body.
func (s *Signer) Sign(params Params, body []byte) (Headers, error) {
	return s.SignAt(s.clock.Now(), params, body)
}

// SignAt computes headers as of t.
func (s *Signer) SignAt(t time.Time, params Params, body []byte) (Headers, error) {
	if s.apiKey == "" || s.apiSecret == "" {
		return Headers{}, ErrMissingKeys
	}

	if !utf8.ValidString(s.apiKey) || !utf8.ValidString(s.apiSecret) {
		return Headers{}, fmt.Errorf("%w: credentials", ErrInvalidEncoding)
	}

	if err := params.Validate(); err != nil {
		return Headers{}, err
	}

	if !utf8.Valid(body) {
		return Headers{}, fmt.Errorf("%w: body", ErrInvalidEncoding)
	}

	date := FormatDate(t)
	canonical := CanonicalString(s.apiKey, date, params, body)

	return Headers{
		Date:          date,
		Authorization: Authorization(s.apiKey, Signature(s.apiSecret, canonical)),
	}, nil
}

// FormatDate renders t as an HTTP date in UTC, for example
// "Tue, 01 Jan 2024 00:00:00 GMT".
func FormatDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// CanonicalString returns the string that is signed: the API key, the date,
// the encoded parameters and the body, concatenated without separators.
func CanonicalString(apiKey, date string, params Params, body []byte) string {
	return apiKey + date + EncodeParams(params) + string(body)
}

// Signature returns base64(HMAC-SHA1(secret, canonical)).
func Signature(secret, canonical string) string {
	return base64.StdEncoding.EncodeToString(computeHMAC([]byte(secret), []byte(canonical)))
}

// Authorization formats the Authorization header value.
func Authorization(apiKey, signature string) string {
	return Scheme + " " + apiKey + ":" + signature
}

// EncodeBody serializes v to compact JSON without HTML escaping and without
// a trailing newline. Struct fields keep their declaration order. A nil v
// encodes to nil.
func EncodeBody(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBodyEncoding, err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func computeHMAC(key, message []byte) []byte {
	h := hmac.New(sha1.New, key)
	h.Write(message)

	return h.Sum(nil)
}
