// Package client implements the authenticated HTTP client for the Career
// Compass API: bearer attachment, one-shot refresh recovery on 401, and
// typed endpoint methods for every API resource.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/careercompass/compass-client/api"
	"github.com/careercompass/compass-client/tokens"
)

const defaultTimeout = 30 * time.Second

// Client performs authenticated requests against the Career Compass API.
// Token persistence is delegated to the store; the client itself holds no
// mutable session state and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     tokens.Store
	log        zerolog.Logger
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing
// and for callers that need custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger for request/stream diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New initializes a Client with required dependencies. Optional
// configuration can be provided via options.
func New(baseURL string, store tokens.Store, options ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[client.New] base URL is required")
	}
	if store == nil {
		return nil, errors.New("[client.New] token store is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     store,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// TokenSource returns an x/oauth2 TokenSource backed by this client's store
// and refresh endpoint.
func (c *Client) TokenSource(ctx context.Context) (*tokens.Source, error) {
	return tokens.NewSource(ctx, c.tokens, c.Refresh)
}

// requestSpec describes one logical API request.
type requestSpec struct {
	method      string
	path        string
	query       url.Values
	body        any
	requireAuth bool
}

// do performs one logical request with authentication and one-shot silent
// recovery, decoding the JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, spec requestSpec, out any) error {
	token := c.tokens.Get(tokens.KindAccess)
	if token == "" && spec.requireAuth {
		// Fail fast: no network call is made without a token.
		return newAuthRequiredErr()
	}

	resp, err := c.send(ctx, spec, token)
	if err != nil {
		return newTransportErr(err)
	}

	if ShouldAttemptRefresh(resp.StatusCode, token != "") {
		drain(resp.Body)
		refreshed, refreshErr := c.Refresh(ctx)

		switch DecideRecovery(resp.StatusCode, token != "", refreshErr) {
		case RecoveryRetryWithToken:
			resp, err = c.send(ctx, spec, refreshed.AccessToken)
			if err != nil {
				return newTransportErr(err)
			}
			// The replay's outcome is final; fall through to normal handling.
		case RecoverySessionExpired:
			if clearErr := c.tokens.Clear(); clearErr != nil {
				c.log.Err(clearErr).Msg("failed to clear tokens after refresh failure")
			}
			return newSessionExpiredErr()
		}
	}

	return c.handleResponse(resp, out)
}

// send issues one HTTP request, attaching the bearer token when present.
func (c *Client) send(ctx context.Context, spec requestSpec, token string) (*http.Response, error) {
	var body io.Reader
	if spec.body != nil {
		raw, err := json.Marshal(spec.body)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.send] marshal request body")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, spec.method, c.requestURL(spec.path, spec.query), body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.send] build request")
	}
	if spec.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	c.log.Debug().
		Str("method", spec.method).
		Str("path", spec.path).
		Str("request_id", requestID).
		Msg("api request")

	return c.httpClient.Do(req)
}

// handleResponse maps the response to the error taxonomy or decodes the body.
func (c *Client) handleResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return newTransportErr(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPErr(resp.StatusCode, serverMessage(raw), errorKindFor(resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return newTransportErr(err)
	}
	return nil
}

// serverMessage extracts the FastAPI "detail" field; an unparseable body
// yields "" so callers fall back to a generic message.
func serverMessage(raw []byte) string {
	var body api.ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Detail
}

func (c *Client) requestURL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
