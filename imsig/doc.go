// Package imsig implements the shared-secret request signing scheme of the
// Interactúa Móvil CSM REST API.
//
// Every authenticated request carries two headers:
//
//	Date: Tue, 01 Jan 2024 00:00:00 GMT
//	Authorization: IM <api-key>:<signature>
//
// The signature is base64(HMAC-SHA1(api-secret, canonical)) where canonical
// is the concatenation, without separators, of the API key, the Date header
// value, the encoded query parameters and the JSON body:
//
//	K + "Tue, 01 Jan 2024 00:00:00 GMT" + "a=hello+world&b=1" + `{"x":1}`
//
// # Query Parameters
//
// Parameter values are a closed set of variants: String, Int and Bool.
// EncodeParams sorts names by byte order, percent-encodes values, renders
// spaces as '+' and joins the pairs with '&':
//
//	imsig.EncodeParams(imsig.Params{
//	    "b": imsig.String("1"),
//	    "a": imsig.String("hello world"),
//	})
//	// a=hello+world&b=1
//
// # Signing
//
// A Signer holds a key pair and a Clock. Sign reads the clock once per call,
// so headers are never reused across requests:
//
//	signer := imsig.NewSigner(apiKey, apiSecret)
//
//	body, err := imsig.EncodeBody(payload)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	headers, err := signer.Sign(params, body)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	headers.Apply(req.Header)
//
// The body passed to Sign must be the exact bytes sent on the wire.
// EncodeBody produces compact JSON without HTML escaping.
//
// # Client Transport
//
// NewTransport creates an http.RoundTripper that signs all outgoing
// requests from their URL query and body. Pass nil for a clone of
// http.DefaultTransport:
//
//	client := &http.Client{
//	    Transport: imsig.NewTransport(nil, imsig.NewSigner(apiKey, apiSecret)),
//	}
//
// # Verification
//
// VerifyRequest recomputes the signature of an incoming request and
// Middleware wraps it for use in an HTTP router:
//
//	mw, err := imsig.Middleware(imsig.MiddlewareConfig{
//	    Verify: imsig.VerifyConfig{
//	        Resolver: func(_ *http.Request, apiKey string) (string, error) {
//	            return secrets[apiKey], nil
//	        },
//	        MaxSkew: 5 * time.Minute,
//	    },
//	})
package imsig
