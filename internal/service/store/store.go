package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	domain "github.com/oshokin/goose-belt/internal/domain/flock"
	"github.com/oshokin/goose-belt/internal/logger"
	repository "github.com/oshokin/goose-belt/internal/repository/flock"
)

// Repository is the persistence the store depends on.
type Repository interface {
	repository.Repository
	Ensure(ctx context.Context, def *domain.Configuration) (bool, error)
	Path() string
}

// ReloadObserver is told about every reload attempt.
type ReloadObserver interface {
	ConfigReloaded(ok bool)
}

// Store owns the flock configuration.
type Store struct {
	// repo reads and writes the file.
	repo Repository
	// current is the latest valid snapshot. Never nil after Open.
	current atomic.Pointer[domain.Configuration]
	// updates carries the latest reloaded snapshot to a subscriber.
	updates chan *domain.Configuration
	// observer is optional.
	observer ReloadObserver
}

// Option configures a Store.
type Option func(*Store)

// WithReloadObserver registers an observer for reload outcomes.
func WithReloadObserver(o ReloadObserver) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// ErrInvalidConfiguration wraps validation failures of a loaded or persisted configuration.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Open ensures the file exists (writing def if absent), loads and validates it.
// A present but unparsable file is returned as an error.
func Open(ctx context.Context, repo Repository, def *domain.Configuration, opts ...Option) (*Store, error) {
	created, err := repo.Ensure(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("ensure configuration file: %w", err)
	}

	if created {
		logger.InfoKV(ctx, "Created default configuration", "path", repo.Path())
	}

	cfg, err := load(ctx, repo)
	if err != nil {
		return nil, err
	}

	s := &Store{
		repo:    repo,
		updates: make(chan *domain.Configuration, 1),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.current.Store(cfg)

	return s, nil
}

// Current returns the latest valid snapshot. It never touches the disk.
// The returned value is shared and must be treated as read-only.
func (s *Store) Current() *domain.Configuration {
	return s.current.Load()
}

// Updates delivers snapshots installed by Reload. Only the latest
// unconsumed snapshot is kept.
func (s *Store) Updates() <-chan *domain.Configuration {
	return s.updates
}

// Persist validates cfg, writes it to disk and installs it as the current snapshot.
func (s *Store) Persist(ctx context.Context, cfg *domain.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	snapshot := cfg.Clone()

	if err := s.repo.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("persist configuration: %w", err)
	}

	s.current.Store(snapshot)

	return nil
}

// Reload re-reads the file. On failure the previous snapshot stays in effect
// and the error is logged and returned.
func (s *Store) Reload(ctx context.Context) error {
	cfg, err := load(ctx, s.repo)
	if err != nil {
		logger.ErrorKV(ctx, "Configuration reload failed, keeping previous", "path", s.repo.Path(), "error", err)
		s.observe(false)

		return err
	}

	s.current.Store(cfg)
	s.publish(cfg)
	s.observe(true)

	logger.InfoKV(ctx, "Configuration reloaded",
		"path", s.repo.Path(),
		"pollrate", cfg.PollRate,
		"devices", len(cfg.Devices),
	)

	return nil
}

// Watch reloads the configuration whenever the file changes and blocks until
// ctx is done. The parent directory is watched so that editors replacing the
// file by rename are noticed as well.
func (s *Store) Watch(ctx context.Context) error {
	ctx = logger.WithName(ctx, "config-watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() {
		_ = watcher.Close()
	}()

	path := s.repo.Path()

	if err = watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	logger.InfoKV(ctx, "Watching configuration", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != path || (!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create)) {
				continue
			}

			// Errors are logged by Reload.
			_ = s.Reload(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.WarnKV(ctx, "Configuration watcher error", "error", err)
		}
	}
}

// publish replaces any unconsumed snapshot with cfg.
func (s *Store) publish(cfg *domain.Configuration) {
	for {
		select {
		case s.updates <- cfg:
			return
		default:
		}

		select {
		case <-s.updates:
		default:
		}
	}
}

func (s *Store) observe(ok bool) {
	if s.observer != nil {
		s.observer.ConfigReloaded(ok)
	}
}

// load reads and validates the file.
func load(ctx context.Context, repo Repository) (*domain.Configuration, error) {
	cfg, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	return cfg, nil
}
