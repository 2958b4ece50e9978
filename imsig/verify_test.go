package imsig

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticResolver(key, secret string) SecretResolver {
	return func(_ *http.Request, apiKey string) (string, error) {
		if apiKey == key {
			return secret, nil
		}
		return "", ErrUnknownKey
	}
}

func signedRequest(t *testing.T, signer *Signer, method, target string, params Params, body []byte) *http.Request {
	t.Helper()

	if len(params) > 0 {
		target += "?" + params.Query()
	}

	var r io.Reader
	if body != nil {
		r = strings.NewReader(string(body))
	}

	req := httptest.NewRequest(method, target, r)

	h, err := signer.Sign(params, body)
	require.NoError(t, err)
	h.Apply(req.Header)

	return req
}

func TestParseAuthorization(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		key, sig, err := ParseAuthorization("IM my-key:abc+/=")
		require.NoError(t, err)
		assert.Equal(t, "my-key", key)
		assert.Equal(t, "abc+/=", sig)
	})

	for _, header := range []string{"Bearer token", "IM", "IM key", "IM :sig", "IM key:", "im key:sig"} {
		t.Run(header, func(t *testing.T) {
			_, _, err := ParseAuthorization(header)
			assert.ErrorIs(t, err, ErrMalformedHeader)
		})
	}
}

func TestVerifyRequest(t *testing.T) {
	signer := NewSigner("K", "S")
	cfg := VerifyConfig{Resolver: staticResolver("K", "S")}

	t.Run("nil resolver", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.ErrorIs(t, VerifyRequest(req, VerifyConfig{}), ErrNoResolver)
	})

	t.Run("valid get with params", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodGet, "/api/rest/contacts",
			Params{"query": String("Julio César"), "limit": Int(10), "monitoring": Bool(true)}, nil)

		assert.NoError(t, VerifyRequest(req, cfg))
	})

	t.Run("valid post with body keeps body readable", func(t *testing.T) {
		body := []byte(`{"msisdn":"50200000000","message":"hola mundo"}`)
		req := signedRequest(t, signer, http.MethodPost, "/api/rest/messages/send_to_contact", nil, body)

		require.NoError(t, VerifyRequest(req, cfg))

		got, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Equal(t, body, got)
	})

	t.Run("missing authorization", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.ErrorIs(t, VerifyRequest(req, cfg), ErrAuthorizationNotFound)
	})

	t.Run("missing date", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodGet, "/", nil, nil)
		req.Header.Del("Date")
		assert.ErrorIs(t, VerifyRequest(req, cfg), ErrDateNotFound)
	})

	t.Run("unknown key", func(t *testing.T) {
		req := signedRequest(t, NewSigner("other", "S"), http.MethodGet, "/", nil, nil)
		assert.ErrorIs(t, VerifyRequest(req, cfg), ErrUnknownKey)
	})

	t.Run("wrong secret", func(t *testing.T) {
		req := signedRequest(t, NewSigner("K", "wrong"), http.MethodGet, "/", nil, nil)
		assert.ErrorIs(t, VerifyRequest(req, cfg), ErrSignatureInvalid)
	})

	t.Run("tampered query", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodGet, "/api/rest/contacts", Params{"limit": Int(10)}, nil)
		req.URL.RawQuery = "limit=11"
		assert.ErrorIs(t, VerifyRequest(req, cfg), ErrSignatureInvalid)
	})

	t.Run("tampered body", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodPost, "/", nil, []byte(`{"x":1}`))
		req.Body = io.NopCloser(strings.NewReader(`{"x": 1}`))
		assert.ErrorIs(t, VerifyRequest(req, cfg), ErrSignatureInvalid)
	})

	t.Run("tampered date", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodGet, "/", nil, nil)
		req.Header.Set("Date", FormatDate(time.Now().Add(time.Second)))
		assert.ErrorIs(t, VerifyRequest(req, cfg), ErrSignatureInvalid)
	})

	t.Run("signature not base64", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodGet, "/", nil, nil)
		req.Header.Set("Authorization", "IM K:not*base64")
		assert.ErrorIs(t, VerifyRequest(req, cfg), ErrMalformedHeader)
	})

	t.Run("resolver error propagates", func(t *testing.T) {
		boom := errors.New("lookup failed")
		req := signedRequest(t, signer, http.MethodGet, "/", nil, nil)

		err := VerifyRequest(req, VerifyConfig{
			Resolver: func(*http.Request, string) (string, error) { return "", boom },
		})
		assert.ErrorIs(t, err, boom)
	})
}

func TestVerifyRequestSkew(t *testing.T) {
	now := time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

	t.Run("within skew", func(t *testing.T) {
		signer := NewSigner("K", "S", WithClock(FixedClock(now.Add(-30*time.Second))))
		req := signedRequest(t, signer, http.MethodGet, "/", nil, nil)

		err := VerifyRequest(req, VerifyConfig{
			Resolver: staticResolver("K", "S"),
			MaxSkew:  time.Minute,
			Clock:    FixedClock(now),
		})
		assert.NoError(t, err)
	})

	t.Run("too old", func(t *testing.T) {
		signer := NewSigner("K", "S", WithClock(FixedClock(now.Add(-10*time.Minute))))
		req := signedRequest(t, signer, http.MethodGet, "/", nil, nil)

		err := VerifyRequest(req, VerifyConfig{
			Resolver: staticResolver("K", "S"),
			MaxSkew:  time.Minute,
			Clock:    FixedClock(now),
		})
		assert.ErrorIs(t, err, ErrSignatureExpired)
	})

	t.Run("in the future", func(t *testing.T) {
		signer := NewSigner("K", "S", WithClock(FixedClock(now.Add(10*time.Minute))))
		req := signedRequest(t, signer, http.MethodGet, "/", nil, nil)

		err := VerifyRequest(req, VerifyConfig{
			Resolver: staticResolver("K", "S"),
			MaxSkew:  time.Minute,
			Clock:    FixedClock(now),
		})
		assert.ErrorIs(t, err, ErrSignatureExpired)
	})

	t.Run("unparseable date", func(t *testing.T) {
		req := signedRequest(t, NewSigner("K", "S"), http.MethodGet, "/", nil, nil)
		req.Header.Set("Date", "yesterday")

		err := VerifyRequest(req, VerifyConfig{
			Resolver: staticResolver("K", "S"),
			MaxSkew:  time.Minute,
		})
		assert.ErrorIs(t, err, ErrMalformedHeader)
	})
}
