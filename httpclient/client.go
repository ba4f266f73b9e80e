// Package httpclient provides an HTTP client that attaches every request and response it makes
// to the timeline of a test.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/launchdarkly/go-test-timeline/checkmate"
)

// DefaultTimeout is the request timeout used unless WithTimeout is given.
const DefaultTimeout = 30 * time.Second

// Client sends requests relative to a base URL. Each completed exchange is recorded as a data
// record on the test the client was created for.
type Client struct {
	baseURL         *url.URL
	headers         http.Header
	username        string
	password        string
	basicAuth       bool
	timeout         time.Duration
	insecure        bool
	followRedirects bool
	transport       http.RoundTripper
	recorder        *checkmate.Recorder
	http            *http.Client
}

type Option func(*Client)

// WithHeader adds a header sent with every request.
func WithHeader(name, value string) Option {
	return func(c *Client) { c.headers.Add(name, value) }
}

// WithHeaders adds several headers sent with every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, vv := range h {
			for _, v := range vv {
				c.headers.Add(k, v)
			}
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify() Option {
	return func(c *Client) { c.insecure = true }
}

func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username, c.password, c.basicAuth = username, password, true
	}
}

// WithFollowRedirects makes the client follow redirects. Each hop is recorded separately. By
// default a redirect response is returned to the caller as is.
func WithFollowRedirects() Option {
	return func(c *Client) { c.followRedirects = true }
}

// WithTransport sets the transport that actually sends requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithRecorder records to r instead of the default recorder.
func WithRecorder(r *checkmate.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// New creates a client for the test t. baseURL must be absolute.
func New(t checkmate.TestingT, baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base URL %q is not absolute", baseURL)
	}
	c := &Client{
		baseURL:  u,
		headers:  make(http.Header),
		timeout:  DefaultTimeout,
		recorder: checkmate.Default(),
	}
	for _, o := range opts {
		o(c)
	}

	base := c.transport
	if base == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if c.insecure {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		base = tr
	}
	c.http = &http.Client{
		Timeout: c.timeout,
		Transport: &recordingTransport{
			base: base,
			record: func(e exchange) {
				c.recorder.AddDataReport(t, e.payload(), e.label())
			},
		},
	}
	if !c.followRedirects {
		c.http.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return c, nil
}

// HTTPClient returns the underlying recording client, for code that needs an *http.Client.
func (c *Client) HTTPClient() *http.Client { return c.http }

func (c *Client) BaseURL() string { return c.baseURL.String() }

// NewRequest builds a request for path resolved against the base URL, with the client's
// default headers and credentials.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(ref).String(), body)
	if err != nil {
		return nil, err
	}
	for k, vv := range c.headers {
		req.Header[k] = append([]string(nil), vv...)
	}
	if c.basicAuth {
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

// resolve joins ref to the base URL the way a base path is usually meant: "/users" against
// "http://host/api/" gives "http://host/api/users".
func (c *Client) resolve(ref *url.URL) *url.URL {
	if ref.IsAbs() {
		return ref
	}
	base := *c.baseURL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	rel := *ref
	rel.Path = strings.TrimPrefix(rel.Path, "/")
	return base.ResolveReference(&rel)
}

// Do sends req. The response body has already been read for recording but remains readable.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.Do(req)
}

func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.send(ctx, http.MethodGet, path, "", nil)
}

func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.send(ctx, http.MethodDelete, path, "", nil)
}

func (c *Client) Post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, path, contentType, body)
}

func (c *Client) Put(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	return c.send(ctx, http.MethodPut, path, contentType, body)
}

// PostJSON sends v encoded as JSON.
func (c *Client) PostJSON(ctx context.Context, path string, v interface{}) (*http.Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unable to encode request body: %w", err)
	}
	return c.send(ctx, http.MethodPost, path, "application/json", bytes.NewReader(data))
}
