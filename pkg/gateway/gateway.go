// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

// Package gateway issues authenticated requests to the Systembolaget
// e-commerce API and maps transport outcomes to a small error taxonomy.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nordkatt/bolaget-mcp/pkg/observability"
)

// subscriptionHeader carries the API key on every vendor request.
const subscriptionHeader = "Ocp-Apim-Subscription-Key"

// Kind classifies an API failure.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindAuth        Kind = "authorization"
	KindRateLimited Kind = "rate_limited"
	KindUpstream    Kind = "upstream_unavailable"
	KindTimeout     Kind = "timeout"
	KindNetwork     Kind = "network"
	KindGeneric     Kind = "generic"
)

// APIError is the gateway's error type. RetryAdvised is set on an
// authorization failure after the cached key has been invalidated: the caller
// should acquire a fresh key and re-issue the request exactly once.
type APIError struct {
	Kind         Kind
	Status       int
	RetryAdvised bool
	msg          string
}

func (e *APIError) Error() string { return e.msg }

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KeySource supplies the API key and supports invalidation after a 403.
type KeySource interface {
	Get(ctx context.Context) (string, error)
	Invalidate()
}

// Client is the authenticated HTTP gateway to the vendor API.
type Client struct {
	http    *resty.Client
	keys    KeySource
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Options configures a Client.
type Options struct {
	Timeout time.Duration
	Keys    KeySource
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// New creates a gateway client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics()
	}
	return &Client{
		http:    resty.New().SetTimeout(opts.Timeout),
		keys:    opts.Keys,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// GetJSON performs an authenticated GET against the vendor API and returns
// the raw JSON body of a 200 response. No schema validation is applied.
//
// When retryOnAuth is true a 403 invalidates the key source and the returned
// APIError carries RetryAdvised=true. The gateway never retries on its own;
// the single bounded retry is owned by the caller so persistent authorization
// problems stay visible.
func (c *Client) GetJSON(ctx context.Context, url string, query map[string]string, headers map[string]string, retryOnAuth bool) (json.RawMessage, error) {
	key, err := c.keys.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire API key: %w", err)
	}

	c.metrics.Counter(observability.APIRequests).Inc()
	c.logger.Debug("API request", "url", url)

	req := c.http.R().
		SetContext(ctx).
		SetHeader(subscriptionHeader, key).
		SetQueryParams(query).
		SetHeaders(headers)

	resp, err := req.Get(url)
	if err != nil {
		c.metrics.Counter(observability.APIErrors).Inc()
		return nil, c.transportError(err)
	}

	if apiErr := c.statusError(resp.StatusCode(), retryOnAuth); apiErr != nil {
		c.metrics.Counter(observability.APIErrors).Inc()
		c.logger.Warn("API request failed",
			"url", url, "status", resp.StatusCode(), "kind", string(apiErr.Kind))
		return nil, apiErr
	}

	body := resp.Body()
	if !json.Valid(body) {
		c.metrics.Counter(observability.APIErrors).Inc()
		return nil, &APIError{Kind: KindGeneric, Status: resp.StatusCode(), msg: "API returned malformed JSON"}
	}
	return json.RawMessage(body), nil
}

// statusError maps a non-200 status to the error taxonomy; nil for 200.
func (c *Client) statusError(status int, retryOnAuth bool) *APIError {
	switch {
	case status == 200:
		return nil
	case status == 404:
		return &APIError{Kind: KindNotFound, Status: status, msg: "resource not found"}
	case status == 403:
		if retryOnAuth {
			c.logger.Warn("got 403, invalidating cached API key")
			c.keys.Invalidate()
			return &APIError{
				Kind: KindAuth, Status: status, RetryAdvised: true,
				msg: "access forbidden, API key may be stale",
			}
		}
		return &APIError{Kind: KindAuth, Status: status, msg: "access forbidden, check API key configuration"}
	case status == 429:
		return &APIError{Kind: KindRateLimited, Status: status, msg: "rate limit exceeded, please try again later"}
	case status >= 500:
		return &APIError{Kind: KindUpstream, Status: status, msg: "Systembolaget API is currently unavailable"}
	default:
		return &APIError{Kind: KindGeneric, Status: status, msg: fmt.Sprintf("API request failed with status %d", status)}
	}
}

// transportError maps client-side failures (timeouts, DNS, refused
// connections) to the taxonomy.
func (c *Client) transportError(err error) *APIError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &APIError{Kind: KindTimeout, msg: "request timed out, please try again"}
	}
	return &APIError{Kind: KindNetwork, msg: fmt.Sprintf("network error: %v", err)}
}
