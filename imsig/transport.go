package imsig

import (
	"bytes"
	"io"
	"net/http"
)

// Transport is an http.RoundTripper that adds IM authentication headers to
// outgoing requests.
//
// The signed parameters are taken from the request URL query and the signed
// body is the request body as sent, so callers must send compact JSON bodies
// (see EncodeBody) for the remote side to accept the signature.
type Transport struct {
	base   http.RoundTripper
	signer *Signer
}

// NewTransport creates a signing Transport that delegates to base after
// signing each request. When base is nil, a clone of http.DefaultTransport
// is used, giving an independent connection pool with default proxy, TLS,
// and timeout settings.
//
//	base := &http.Transport{
//	    Proxy:           http.ProxyFromEnvironment,
//	    IdleConnTimeout: 90 * time.Second,
//	}
//	client := &http.Client{
//	    Transport: imsig.NewTransport(base, imsig.NewSigner(key, secret)),
//	}
func NewTransport(base *http.Transport, signer *Signer) *Transport {
	var rt http.RoundTripper
	if base != nil {
		rt = base
	} else {
		rt = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Transport{
		base:   rt,
		signer: signer,
	}
}

// RoundTrip signs the request and then delegates to the base transport.
// The original request is cloned before signing to avoid mutation. When
// GetBody is available the signed body is read from a fresh copy; otherwise
// the body is drained once and the clone is sent with an in-memory copy.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.signer == nil {
		closeBody(req)
		return nil, ErrMissingKeys
	}

	body, err := readBody(req)
	if err != nil {
		return nil, err
	}

	params, err := ParamsFromQuery(req.URL.Query())
	if err != nil {
		return nil, err
	}

	headers, err := t.signer.Sign(params, body)
	if err != nil {
		return nil, err
	}

	clone := req.Clone(req.Context())
	if body != nil {
		clone.Body = io.NopCloser(bytes.NewReader(body))
		clone.ContentLength = int64(len(body))
	}

	headers.Apply(clone.Header)

	return t.base.RoundTrip(clone)
}

// readBody returns the request body bytes. The caller's body is always
// closed, as RoundTrip requires.
func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()

	rc := req.Body

	if req.GetBody != nil {
		fresh, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		defer fresh.Close()

		rc = fresh
	}

	return io.ReadAll(rc)
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		req.Body.Close()
	}
}
