package device

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/oshokin/goose-belt/internal/config"
	"github.com/oshokin/goose-belt/internal/domain/alarm"
	"github.com/oshokin/goose-belt/internal/logger"
)

// dataPath is the document every MicroGoose serves.
const dataPath = "/data.xml"

// Client polls MicroGoose devices over HTTP.
type Client struct {
	// http is the underlying resty client.
	http *resty.Client
	// callTimeout bounds a single poll.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets the timeout for a single poll.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = resty.NewWithClient(hc)
		}
	}
}

var errHostRequired = errors.New("host must be provided")

// NewClient creates a device client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		http:        resty.New(),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.http.
		SetLogger(logger.Logger()).
		SetHeader("Accept", "application/xml, text/xml").
		SetHeader("User-Agent", "gbelt-agent")

	return client
}

// Poll fetches and parses http://<host>/data.xml.
// Any failure is returned as a *PollError.
func (c *Client) Poll(ctx context.Context, host string) (*alarm.PollResult, error) {
	if host == "" {
		return nil, &PollError{Host: host, Kind: KindNetwork, Err: errHostRequired}
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.http.R().
		SetContext(callCtx).
		Get("http://" + host + dataPath)
	if err != nil {
		return nil, &PollError{Host: host, Kind: KindNetwork, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &PollError{
			Host:       host,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status()),
		}
	}

	result, err := Parse(resp.Body())
	if err != nil {
		return nil, &PollError{Host: host, Kind: KindParse, Err: err}
	}

	return result, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
