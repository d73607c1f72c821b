package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 8 << 20
	userAgent        = "portfolio-frontend"
)

const (
	OutcomeOK           = "ok"
	OutcomeStatusError  = "status_error"
	OutcomeNetworkError = "network_error"
)

type Recorder interface {
	ObserveUpstream(method string, outcome string, duration time.Duration)
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
	Metrics   Recorder
}

// Client talks to a single upstream base URL. It is safe for concurrent use
// and is never mutated after New returns.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    Recorder
}

type Response struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q must be http or https", opts.BaseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("api base url %q has no host", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		metrics: opts.Metrics,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) Post(ctx context.Context, path string, payload any) (Response, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return Response{}, &RemoteCallError{
			Method: http.MethodPost,
			Path:   path,
			Kind:   KindEncode,
			Err:    err,
		}
	}
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body []byte,
) (Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return Response{}, &RemoteCallError{Method: method, Path: path, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, OutcomeNetworkError, started)
		return Response{}, &RemoteCallError{Method: method, Path: path, Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.observe(method, OutcomeNetworkError, started)
		return Response{}, &RemoteCallError{
			Method:     method,
			Path:       path,
			Kind:       KindNetwork,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("read response body: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(method, OutcomeStatusError, started)
		return Response{}, &RemoteCallError{
			Method:     method,
			Path:       path,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Body:       payload,
		}
	}

	c.observe(method, OutcomeOK, started)
	return Response{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Body:       payload,
	}, nil
}

func (c *Client) observe(method string, outcome string, started time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveUpstream(method, outcome, time.Since(started))
}

// CloseIdleConnections releases pooled upstream connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// AsRemoteCallError reports whether err wraps a *RemoteCallError.
func AsRemoteCallError(err error) (*RemoteCallError, bool) {
	var remoteErr *RemoteCallError
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}
	return nil, false
}
