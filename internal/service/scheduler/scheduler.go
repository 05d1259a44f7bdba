package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/goose-belt/internal/config"
	"github.com/oshokin/goose-belt/internal/domain/alarm"
	"github.com/oshokin/goose-belt/internal/domain/flock"
	"github.com/oshokin/goose-belt/internal/logger"
	"github.com/oshokin/goose-belt/internal/metrics"
	"github.com/oshokin/goose-belt/internal/service/correlator"
	"github.com/oshokin/goose-belt/internal/service/device"
	"github.com/oshokin/goose-belt/internal/service/tracker"
)

// ConfigSource provides the live configuration.
type ConfigSource interface {
	Current() *flock.Configuration
	Updates() <-chan *flock.Configuration
}

// Poller fetches one device.
type Poller interface {
	Poll(ctx context.Context, host string) (*alarm.PollResult, error)
}

// Notifier delivers a message on a best-effort basis.
type Notifier interface {
	Send(ctx context.Context, message string)
}

// Scheduler runs poll cycles until its context is canceled.
type Scheduler struct {
	config   ConfigSource
	poller   Poller
	tracker  *tracker.Tracker
	notifier Notifier
	metrics  *metrics.Metrics

	// maxConcurrency bounds concurrently running device pipelines.
	maxConcurrency int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMetrics records pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithMaxConcurrency bounds concurrently polled devices.
func WithMaxConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// New creates a scheduler. The tracker holds the active alarm set for the
// lifetime of the scheduler.
func New(source ConfigSource, poller Poller, t *tracker.Tracker, notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		config:         source,
		poller:         poller,
		tracker:        t,
		notifier:       notifier,
		maxConcurrency: config.DefaultMaxConcurrency,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run polls immediately, then again after every pause until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "scheduler")

	for {
		cfg := s.Cycle(ctx)

		if !s.wait(ctx, cfg.PollInterval()) {
			logger.Info(ctx, "Context canceled, stopping poll cycles")
			return nil
		}
	}
}

// Cycle runs one poll cycle over every configured device and returns the
// configuration snapshot it used.
func (s *Scheduler) Cycle(ctx context.Context) *flock.Configuration {
	cfg := s.config.Current()
	started := time.Now()

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.maxConcurrency)
	)

	for _, nickname := range cfg.Nicknames() {
		host := cfg.Devices[nickname]

		wg.Add(1)

		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			s.runDevice(ctx, nickname, host)
		}()
	}

	wg.Wait()

	elapsed := time.Since(started)

	s.metrics.SetActiveAlarms(s.tracker.Len())
	s.metrics.RecordCycle(elapsed)

	logger.DebugKV(ctx, "Poll cycle finished",
		"devices", len(cfg.Devices),
		"active_alarms", s.tracker.Active(),
		"elapsed", elapsed,
	)

	return cfg
}

// runDevice is the pipeline of one device: poll, correlate, track, notify.
func (s *Scheduler) runDevice(ctx context.Context, nickname, host string) {
	ctx = logger.WithKV(ctx, "device", nickname, "host", host)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Device pipeline panicked", "panic", r)
		}
	}()

	result, err := s.poller.Poll(ctx, host)
	if err != nil {
		kind := string(device.KindOf(err))
		if kind == "" {
			kind = "error"
		}

		s.metrics.RecordPoll(nickname, kind)
		logger.ErrorKV(ctx, "Poll failed", "kind", kind, "error", err)

		return
	}

	s.metrics.RecordPoll(nickname, metrics.PollOK)

	events, skipped := correlator.Correlate(nickname, result)

	for _, skipErr := range skipped {
		s.metrics.RecordSkip(nickname)
		logger.DebugKV(ctx, "Alarm skipped", "error", skipErr)
	}

	for _, event := range events {
		transition := s.tracker.Observe(event)

		message, ok := transition.Message(event)
		if !ok {
			continue
		}

		s.metrics.RecordTransition(transition.String())
		logger.InfoKV(ctx, "Alarm transition",
			"transition", transition.String(),
			"status", event.StatusLine,
		)

		s.notifier.Send(ctx, message)
	}
}

// wait blocks for d or until ctx is done. Reloaded configurations only get
// logged here; the next cycle picks them up. It reports false when ctx is done.
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case cfg := <-s.config.Updates():
			logger.InfoKV(ctx, "Configuration changed, applying on next cycle",
				"pollrate", cfg.PollRate,
				"devices", len(cfg.Devices),
			)
		}
	}
}
