// Package gateway wraps outgoing HTTP calls with uniform failure handling.
//
// Non-2xx responses become *HTTPError, network failures *TransportError.
// Successful bodies are returned leniently: empty, JSON, or plain text.
// Every failure is logged with the request that caused it and then
// returned; nothing is retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

// MaxResponseSize caps how much of a response body is read.
const MaxResponseSize = 8 << 20

// Options configure a single request.
type Options struct {
	Headers map[string]string
	// JSON, when non-nil, is marshalled as the request body.
	JSON any
}

// Client performs requests. The zero value is not usable; call New.
type Client struct {
	httpClient *http.Client
	log        *zap.Logger
}

// New creates a Client. A zero timeout leaves timing to the transport.
func New(timeout time.Duration, log *zap.Logger) *Client {
	return NewWithHTTPClient(&http.Client{Timeout: timeout}, log)
}

// NewWithHTTPClient creates a Client over an existing http.Client.
func NewWithHTTPClient(hc *http.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{httpClient: hc, log: log.Named("gateway")}
}

// Logger is where the client reports failures.
func (c *Client) Logger() *zap.Logger { return c.log }

// Do issues method url with opts and returns the parsed body.
func (c *Client) Do(ctx context.Context, method, url string, opts *Options) (Body, error) {
	if opts == nil {
		opts = &Options{}
	}
	req, err := c.newRequest(ctx, method, url, opts)
	if err != nil {
		c.logFailure(method, url, opts, err)
		return Body{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		terr := &TransportError{Method: method, URL: url, Err: err}
		c.logFailure(method, url, opts, terr)
		return Body{}, terr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		terr := &TransportError{Method: method, URL: url, Err: fmt.Errorf("reading response body: %w", err)}
		c.logFailure(method, url, opts, terr)
		return Body{}, terr
	}
	body := ParseBody(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		herr := &HTTPError{Method: method, URL: url, Status: resp.StatusCode, Body: body}
		c.logFailure(method, url, opts, herr, zap.Int("status", resp.StatusCode))
		return body, herr
	}
	return body, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, opts *Options) (*http.Request, error) {
	var rd io.Reader
	if opts.JSON != nil {
		b, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if opts.JSON != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (c *Client) logFailure(method, url string, opts *Options, err error, extra ...zap.Field) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", url),
		zap.Strings("headers", headerNames(opts.Headers)),
		zap.Bool("has_body", opts.JSON != nil),
		zap.Error(err),
	}
	c.log.Warn("request failed", append(fields, extra...)...)
}

// headerNames lists header keys only; values may carry secrets.
func headerNames(h map[string]string) []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
