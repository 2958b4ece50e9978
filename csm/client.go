package csm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vitalvas/imcsm/config"
	"github.com/vitalvas/imcsm/imsig"
	"github.com/vitalvas/imcsm/logging"
)

const (
	// PathPrefix is prepended to every endpoint.
	PathPrefix = "/api/rest"

	// DefaultTimeout is the timeout of the default HTTP client.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "imcsm-go"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a CSM API client. It is safe for concurrent use.
type Client struct {
	creds     config.Credentials
	baseURL   *url.URL
	signer    *imsig.Signer
	doer      Doer
	logger    logrus.FieldLogger
	userAgent string
}

type options struct {
	doer      Doer
	logger    logrus.FieldLogger
	clock     imsig.Clock
	userAgent string
	timeout   time.Duration
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sets the HTTP client used to send requests.
func WithHTTPClient(d Doer) Option {
	return func(o *options) {
		o.doer = d
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock sets the clock used for the Date header.
func WithClock(c imsig.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithTimeout sets the timeout of the default HTTP client. It has no effect
// together with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// New creates a client. The credentials are validated eagerly; every missing
// field is reported in one *ConfigurationError.
func New(creds config.Credentials, opts ...Option) (*Client, error) {
	o := options{
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if err := creds.Validate(); err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	baseURL, err := config.ParseBaseURL(creds.BaseURL)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	if o.doer == nil {
		o.doer = &http.Client{Timeout: o.timeout}
	}

	if o.logger == nil {
		o.logger = logging.Discard()
	}

	if o.clock == nil {
		o.clock = imsig.SystemClock{}
	}

	return &Client{
		creds:     creds,
		baseURL:   baseURL,
		signer:    imsig.NewSigner(creds.APIKey, creds.APISecret, imsig.WithClock(o.clock)),
		doer:      o.doer,
		logger:    o.logger,
		userAgent: o.userAgent,
	}, nil
}

// BaseURL returns a copy of the normalised base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Request describes one API call.
type Request struct {
	// Method is one of GET, POST, PUT or DELETE.
	Method string

	// Endpoint is the path below PathPrefix, e.g. "contacts". A leading
	// slash is added when missing. Path segments must already be escaped.
	Endpoint string

	// Params are sent as the query string and signed.
	Params imsig.Params

	// Body is encoded as compact JSON, signed and sent. Nil means no body.
	Body any
}

func (r Request) normalize() (Request, error) {
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))

	switch r.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	case "":
		return r, &ValidationError{Field: "method", Reason: "is required"}
	default:
		return r, &ValidationError{Field: "method", Reason: fmt.Sprintf("%q is not supported", r.Method)}
	}

	r.Endpoint = strings.TrimSpace(r.Endpoint)
	if r.Endpoint == "" {
		return r, &ValidationError{Field: "endpoint", Reason: "is required"}
	}

	if strings.ContainsAny(r.Endpoint, "?#") {
		return r, &ValidationError{Field: "endpoint", Reason: "must not contain a query or fragment"}
	}

	if !strings.HasPrefix(r.Endpoint, "/") {
		r.Endpoint = "/" + r.Endpoint
	}

	return r, nil
}

// Response is a successful API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &ResponseShapeError{Body: r.Body, Err: err}
	}

	return nil
}

// Send signs and sends req. Non-2xx responses are returned as
// *HTTPStatusError; nothing is retried.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}

	log := c.logger.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"method":     req.Method,
		"endpoint":   req.Endpoint,
	})

	reqURL, err := c.endpointURL(req)
	if err != nil {
		log.WithError(err).Error("build request url")
		return nil, err
	}

	body, err := imsig.EncodeBody(req.Body)
	if err != nil {
		log.WithError(err).Error("encode request body")
		return nil, &SigningError{Err: err}
	}

	log.Info("sign request")

	headers, err := c.signer.Sign(req.Params, body)
	if err != nil {
		log.WithError(err).Error("sign request")
		return nil, &SigningError{Err: err}
	}

	log.WithField("canonical", imsig.CanonicalString(c.creds.APIKey, headers.Date, req.Params, body)).Trace("canonical string")

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Error("build request")
		return nil, &ValidationError{Field: "request", Reason: err.Error()}
	}

	headers.Apply(httpReq.Header)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if len(body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	log.Info("send request")

	start := time.Now()

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		log.WithError(err).Error("send request")
		return nil, &TransportError{Method: req.Method, URL: reqURL.String(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Error("read response")
		return nil, &TransportError{Method: req.Method, URL: reqURL.String(), Err: err}
	}

	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := newHTTPStatusError(req.Method, reqURL.String(), resp.StatusCode, data)
		log.WithError(statusErr).Error("request failed")

		return nil, statusErr
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// endpointURL replaces the path of the base URL with PathPrefix and the
// endpoint, and sets the query from the params.
func (c *Client) endpointURL(req Request) (*url.URL, error) {
	escaped := PathPrefix + req.Endpoint

	path, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, &ValidationError{Field: "endpoint", Reason: err.Error()}
	}

	u := *c.baseURL
	u.Path = path
	u.RawPath = escaped
	u.RawQuery = req.Params.Query()
	u.Fragment = ""
	u.RawFragment = ""

	return &u, nil
}

// NewMessageID returns a random identifier for the optional id field of
// outgoing messages.
func NewMessageID() string {
	return uuid.NewString()
}
