// Package client is a Go client for the ResolveIt REST API.
//
// The bearer token is passed on every call rather than stored, so one
// Client can act for many users. Failures come back as the same typed
// errors the server raised (see package apperr); network failures,
// timeouts and 5xx responses are TransientError and may be retried with
// Retry.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"resolveit/backend/internal/apperr"
)

// DefaultTimeout bounds every request unless the caller's context is
// shorter.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 64 << 10

// Client talks to one API base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response. It unwraps to the typed error matching
// its kind, so errors.As against apperr types works on it.
type APIError struct {
	Status  int
	Kind    apperr.Kind
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	if e.Status >= http.StatusInternalServerError {
		return apperr.NewTransientError(e.Message, nil)
	}
	return apperr.FromKind(e.Kind, e.Message)
}

type errorEnvelope struct {
	Error struct {
		Kind    apperr.Kind `json:"kind"`
		Message string      `json:"message"`
	} `json:"error"`
}

type request struct {
	method      string
	path        string
	query       url.Values
	token       string
	body        io.Reader
	contentType string
}

func jsonRequest(method, path, token string, payload any) (request, error) {
	r := request{method: method, path: path, token: token}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return r, goerr.Wrap(err, "failed to encode request body", goerr.V("path", path))
		}
		r.body = bytes.NewReader(data)
		r.contentType = "application/json"
	}
	return r, nil
}

// do sends r and decodes a 2xx JSON body into out (when non-nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + "/api" + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return goerr.Wrap(err, "failed to build request", goerr.V("method", r.method), goerr.V("path", r.path))
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.NewTransientError(fmt.Sprintf("%s %s failed", r.method, r.path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperr.NewTransientError("response timed out", err)
		}
		return goerr.Wrap(err, "failed to decode response", goerr.V("path", r.path), goerr.V("status", resp.StatusCode))
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{Status: resp.StatusCode}
	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error.Kind != "" {
		apiErr.Kind = env.Error.Kind
		apiErr.Message = env.Error.Message
		return apiErr
	}

	apiErr.Kind = kindForStatus(resp.StatusCode)
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// kindForStatus covers responses without a structured body, such as a
// proxy's 502.
func kindForStatus(status int) apperr.Kind {
	switch {
	case status == http.StatusBadRequest:
		return apperr.KindValidation
	case status == http.StatusUnauthorized:
		return apperr.KindUnauthenticated
	case status == http.StatusForbidden:
		return apperr.KindAuthorization
	case status == http.StatusNotFound:
		return apperr.KindNotFound
	case status == http.StatusConflict:
		return apperr.KindConflict
	case status >= http.StatusInternalServerError:
		return apperr.KindTransient
	default:
		return apperr.KindInternal
	}
}
