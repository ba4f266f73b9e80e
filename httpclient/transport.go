package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/go-test-timeline/records"
)

// exchange is one completed request and response.
type exchange struct {
	method          string
	url             string
	requestHeaders  http.Header
	requestBody     []byte
	statusCode      int
	elapsed         time.Duration
	responseHeaders http.Header
	responseBody    []byte
}

func (e exchange) label() string {
	return fmt.Sprintf("HTTP request to `%s %s` [%d]", e.method, e.url, e.statusCode)
}

func (e exchange) payload() ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("method", ldvalue.String(e.method)).
		Set("url", ldvalue.String(e.url)).
		Set("request_headers", headersValue(e.requestHeaders)).
		Set("request_body", bodyValue(e.requestBody)).
		Set("status_code", ldvalue.Int(e.statusCode)).
		Set("response_time", ldvalue.String(formatResponseTime(e.elapsed))).
		Set("response_headers", headersValue(e.responseHeaders)).
		Set("response_body", bodyValue(e.responseBody)).
		Build()
}

func formatResponseTime(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}

// headersValue flattens headers into an object, joining repeated values with ", ".
func headersValue(h http.Header) ldvalue.Value {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b := ldvalue.ObjectBuild()
	for _, k := range keys {
		b.Set(strings.ToLower(k), ldvalue.String(strings.Join(h[k], ", ")))
	}
	return b.Build()
}

// bodyValue parses a body as JSON, keeping it as a string if it is not JSON. An empty body is
// null.
func bodyValue(data []byte) ldvalue.Value {
	if len(data) == 0 {
		return ldvalue.Null()
	}
	return records.PayloadOf(json.RawMessage(data))
}

// sentHeaders adds the headers net/http writes on the wire without putting them in
// req.Header: Host, Content-Length and the default User-Agent.
func sentHeaders(req *http.Request, bodyLen int, protoMajor int) http.Header {
	h := req.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	if host != "" {
		h.Set("Host", host)
	}
	if bodyLen > 0 {
		h.Set("Content-Length", strconv.Itoa(bodyLen))
	}
	if _, ok := req.Header["User-Agent"]; !ok {
		if protoMajor == 2 {
			h.Set("User-Agent", "Go-http-client/2.0")
		} else {
			h.Set("User-Agent", "Go-http-client/1.1")
		}
	}
	return h
}

type recordingTransport struct {
	base   http.RoundTripper
	record func(exchange)
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var reqBody []byte
	if req.Body != nil && req.Body != http.NoBody {
		data, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("unable to read request body: %w", err)
		}
		reqBody = data
		req = req.Clone(req.Context())
		req.Body = io.NopCloser(bytes.NewReader(data))
	}

	start := time.Now()
	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	var respBody []byte
	if resp.Body != nil {
		respBody, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("unable to read response body: %w", err)
		}
		resp.Body = io.NopCloser(bytes.NewReader(respBody))
	}
	elapsed := time.Since(start)

	rt.record(exchange{
		method:          req.Method,
		url:             req.URL.String(),
		requestHeaders:  sentHeaders(req, len(reqBody), resp.ProtoMajor),
		requestBody:     reqBody,
		statusCode:      resp.StatusCode,
		elapsed:         elapsed,
		responseHeaders: resp.Header,
		responseBody:    respBody,
	})
	return resp, nil
}
