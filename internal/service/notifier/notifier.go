package notifier

import (
	"context"

	"github.com/oshokin/goose-belt/internal/logger"
)

// Deliverer sends one message to an external channel.
type Deliverer interface {
	Deliver(ctx context.Context, message string) error
}

// DeliveryObserver is told about every delivery attempt.
type DeliveryObserver interface {
	NotificationSent(ok bool)
}

// Notifier dispatches messages without reporting failures to the caller.
type Notifier struct {
	// deliverer is the remote channel.
	deliverer Deliverer
	// console is optional.
	console *ConsoleSink
	// observer is optional.
	observer DeliveryObserver
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithConsole echoes every message to sink. A nil sink disables the echo.
func WithConsole(sink *ConsoleSink) Option {
	return func(n *Notifier) {
		n.console = sink
	}
}

// WithObserver registers a delivery observer.
func WithObserver(o DeliveryObserver) Option {
	return func(n *Notifier) {
		n.observer = o
	}
}

// New creates a notifier delivering through d.
func New(d Deliverer, opts ...Option) *Notifier {
	n := &Notifier{deliverer: d}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Send echoes the message and makes one delivery attempt.
// Failures are logged and discarded.
func (n *Notifier) Send(ctx context.Context, message string) {
	if n.console != nil {
		n.console.Write(message)
	}

	if n.deliverer == nil {
		return
	}

	err := n.deliverer.Deliver(ctx, message)
	if n.observer != nil {
		n.observer.NotificationSent(err == nil)
	}

	if err != nil {
		logger.ErrorKV(ctx, "Notification not delivered", "message", message, "error", err)
		return
	}

	logger.DebugKV(ctx, "Notification delivered", "message", message)
}
