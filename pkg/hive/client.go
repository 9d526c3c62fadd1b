// Package hive implements the ledger collaborators of the curator on top of a
// Hive API node: a JSON-RPC client, a block streamer that yields comment
// operations, and a broadcaster that signs and submits vote and comment
// transactions.
package hive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/ava-labs/hive-curator/pkg/metrics"
)

// DefaultTimeout bounds every HTTP round trip to the API node.
const DefaultTimeout = 30 * time.Second

// Client wraps the JSON-RPC client of a single Hive API node.
type Client struct {
	rpc     *rpc.Client
	http    *http.Client
	metrics *metrics.Metrics // nil if metrics disabled
}

// Option configures the Client.
type Option func(*Client)

// WithMetrics enables metrics collection for the client.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// NewClient dials the API node at url.
func NewClient(ctx context.Context, url string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("invalid api url: must not be empty")
	}
	c := &Client{http: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}

	r, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(c.http))
	if err != nil {
		return nil, fmt.Errorf("dial hive rpc: %w", err)
	}
	c.rpc = r
	return c, nil
}

// Call invokes method with positional args and decodes the result into
// result, which may be nil. Errors reported by the node satisfy rpc.Error.
func (c *Client) Call(ctx context.Context, result any, method string, args ...any) error {
	start := time.Now()
	c.metrics.IncRPCInFlight()
	defer c.metrics.DecRPCInFlight()

	// condenser_api rejects a request without a params array.
	if args == nil {
		args = []any{}
	}
	err := c.rpc.CallContext(ctx, result, method, args...)
	c.metrics.RecordRPCCall(method, err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	c.rpc.Close()
}
