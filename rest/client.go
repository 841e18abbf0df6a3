// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package rest dispatches typed requests to one remote endpoint. It
// encodes the request, performs the network call, decodes the response
// and maps every failure onto a closed taxonomy. It never retries;
// retry policy belongs to the caller.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/athena-ai/servicebridge/core/service"
)

var logger = loggo.GetLogger("servicebridge.rest")

// MIME represents a MIME type for identifying request and response
// bodies.
type MIME = string

const (
	// JSON represents the MIME type for JSON request and response
	// types.
	JSON MIME = "application/json"
)

// Transport defines a type for making the actual request.
type Transport interface {
	// Do performs the *http.Request and returns a *http.Response or
	// an error if the transport itself fails.
	Do(*http.Request) (*http.Response, error)
}

// DefaultTransport returns a transport enforcing the given hard
// timeout on every request.
func DefaultTransport(timeout time.Duration) Transport {
	return &http.Client{Timeout: timeout}
}

// Client dispatches requests against a single endpoint.
type Client struct {
	endpoint  service.Endpoint
	base      *url.URL
	transport Transport
	headers   http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithTransport substitutes the transport used for requests.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithHeaders supplies headers attached to every request.
func WithHeaders(headers http.Header) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// NewClient returns a client bound to the given endpoint, or an
// ErrInvalidAddress if its base URL does not parse.
func NewClient(endpoint service.Endpoint, options ...Option) (*Client, error) {
	base, err := url.Parse(endpoint.BaseURL)
	if err != nil || !base.IsAbs() || base.Host == "" {
		return nil, newFailure(ErrInvalidAddress, errors.Errorf("base URL %q", endpoint.BaseURL))
	}

	c := &Client{
		endpoint:  endpoint,
		base:      base,
		transport: http.DefaultClient,
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

// Endpoint returns the endpoint this client is bound to.
func (c *Client) Endpoint() service.Endpoint {
	return c.endpoint
}

// URL resolves the request path against the endpoint base URL.
func (c *Client) URL(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() {
		return "", newFailure(ErrInvalidAddress, errors.Errorf("request path %q", path))
	}
	u := c.base.JoinPath(ref.Path)
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

// Get dispatches a GET request and decodes the response into result,
// which may be nil when no payload is expected.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.Call(ctx, "GET", path, nil, result)
}

// Post dispatches a POST request with the given body.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.Call(ctx, "POST", path, body, result)
}

// Put dispatches a PUT request with the given body.
func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.Call(ctx, "PUT", path, body, result)
}

// Patch dispatches a PATCH request with the given body.
func (c *Client) Patch(ctx context.Context, path string, body, result interface{}) error {
	return c.Call(ctx, "PATCH", path, body, result)
}

// Delete dispatches a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, result interface{}) error {
	return c.Call(ctx, "DELETE", path, nil, result)
}

// Call dispatches one request and decodes the 2xx payload into result.
// Every failure is one of the taxonomy kinds; nothing is swallowed and
// nothing is retried.
func (c *Client) Call(ctx context.Context, method, path string, body, result interface{}) error {
	payload, err := c.Do(ctx, method, path, body)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(Unmarshal(payload, result))
}

// Do dispatches one request and returns the raw 2xx payload. The cache
// layer builds on this to store responses byte for byte.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	data, err := Marshal(body)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return c.DoBytes(ctx, method, path, data)
}

// DoBytes is Do with a pre-encoded request body.
func (c *Client) DoBytes(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	address, err := c.URL(path)
	if err != nil {
		return nil, errors.Trace(err)
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, address, reader)
	if err != nil {
		return nil, newFailure(ErrInvalidAddress, err)
	}
	req.Header = c.composeHeaders()

	if logger.IsTraceEnabled() {
		if dump, err := httputil.DumpRequestOut(req, true); err == nil {
			logger.Tracef("%s %s request %s", c.endpoint.Name, method, dump)
		}
	}

	resp, err := c.transport.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newFailure(ErrCancelled, ctxErr)
		}
		return nil, newFailure(ErrNetworkFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newFailure(ErrCancelled, ctxErr)
		}
		return nil, newFailure(ErrNetworkFailure, errors.Annotate(err, "reading response body"))
	}

	if logger.IsTraceEnabled() {
		logger.Tracef("%s %s response %d %s", c.endpoint.Name, method, resp.StatusCode, payload)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       string(payload),
		}
	}
	return payload, nil
}

// Marshal encodes a request body to the wire format, reporting an
// ErrEncodingFailure when it cannot be serialized. A nil body encodes
// to an empty payload.
func Marshal(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, newFailure(ErrEncodingFailure, err)
	}
	return data, nil
}

// Unmarshal decodes a response payload into result, reporting an
// ErrDecodingFailure when the payload does not match the expected
// shape. A nil result discards the payload.
func Unmarshal(payload []byte, result interface{}) error {
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(payload, result); err != nil {
		return &DecodeError{Cause: err, Body: payload}
	}
	return nil
}

// composeHeaders builds the request headers from scratch: content
// negotiation first, then the client's standing headers.
func (c *Client) composeHeaders() http.Header {
	result := make(http.Header)
	result.Set("Accept", JSON)
	result.Set("Content-Type", JSON)
	for k, vs := range c.headers {
		for _, v := range vs {
			result.Add(k, v)
		}
	}
	return result
}
