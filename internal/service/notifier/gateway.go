package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/oshokin/goose-belt/internal/config"
	"github.com/oshokin/goose-belt/internal/logger"
)

// Gateway posts messages to an SMS gateway speaking the textbelt protocol.
type Gateway struct {
	// url is the gateway endpoint.
	url string
	// key is the gateway secret.
	key string
	// phone is the destination number.
	phone string
	// http is the underlying resty client.
	http *resty.Client
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithGatewayHTTPClient replaces the transport, mostly for tests.
func WithGatewayHTTPClient(hc *http.Client) GatewayOption {
	return func(g *Gateway) {
		if hc != nil {
			g.http = resty.NewWithClient(hc)
		}
	}
}

// request is the JSON body expected by the gateway.
type request struct {
	Key     string `json:"key"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// reply is the optional JSON result. Success is a pointer so that a reply
// without the field is not mistaken for a rejection.
type reply struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

var (
	// ErrDeliveryFailed is wrapped by every gateway failure.
	ErrDeliveryFailed = errors.New("notification delivery failed")
)

// NewGateway creates a gateway client.
func NewGateway(url, key, phone string, timeout time.Duration, opts ...GatewayOption) *Gateway {
	if url == "" {
		url = config.DefaultGatewayURL
	}

	g := &Gateway{
		url:   url,
		key:   key,
		phone: phone,
		http:  resty.New(),
	}

	for _, opt := range opts {
		opt(g)
	}

	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	g.http.
		SetLogger(logger.Logger()).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return g
}

// Deliver sends one message. It never retries.
func (g *Gateway) Deliver(ctx context.Context, message string) error {
	var result reply

	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(request{
			Key:     g.key,
			Phone:   g.phone,
			Message: message,
		}).
		SetResult(&result).
		Post(g.url)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("%w: gateway returned %s: %s", ErrDeliveryFailed, resp.Status(), resp.String())
	}

	if result.Success != nil && !*result.Success {
		return fmt.Errorf("%w: gateway rejected message: %s", ErrDeliveryFailed, result.Error)
	}

	return nil
}
