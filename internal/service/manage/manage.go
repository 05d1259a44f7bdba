package manage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/oshokin/goose-belt/internal/domain/flock"
	repository "github.com/oshokin/goose-belt/internal/repository/flock"
	"github.com/oshokin/goose-belt/internal/service/store"
)

// ErrInvalidPollRate is returned for a poll rate that is not a positive integer.
var ErrInvalidPollRate = errors.New("poll rate must be a positive number of seconds")

// Manager edits the flock configuration through the store.
type Manager struct {
	store *store.Store
}

// Open creates the file with defaults if needed and loads it.
func Open(ctx context.Context, path string) (*Manager, error) {
	st, err := store.Open(ctx, repository.NewFileRepository(path), flock.Default())
	if err != nil {
		return nil, err
	}

	return &Manager{store: st}, nil
}

// Current returns the loaded configuration.
func (m *Manager) Current() *flock.Configuration {
	return m.store.Current()
}

// List prints the poll rate followed by a nickname/host table.
func (m *Manager) List(w io.Writer) error {
	cfg := m.store.Current()

	if _, err := fmt.Fprintf(w, "HTTP polling interval: %d seconds.\n", cfg.PollRate); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(tw, "NICKNAME\tHOST")
	for _, nickname := range cfg.Nicknames() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", nickname, cfg.Devices[nickname])
	}

	return tw.Flush()
}

// SetPollRate stores a new poll rate in seconds.
func (m *Manager) SetPollRate(ctx context.Context, seconds int) error {
	if seconds <= 0 {
		return ErrInvalidPollRate
	}

	cfg := m.store.Current().Clone()
	cfg.PollRate = seconds

	return m.store.Persist(ctx, cfg)
}

// AddDevice adds or replaces a device.
func (m *Manager) AddDevice(ctx context.Context, nickname, host string) error {
	cfg := m.store.Current().Clone()
	cfg.Devices[nickname] = host

	return m.store.Persist(ctx, cfg)
}

// RemoveDevice deletes a device and reports whether it existed.
// Removing an unknown nickname leaves the file untouched.
func (m *Manager) RemoveDevice(ctx context.Context, nickname string) (bool, error) {
	cfg := m.store.Current().Clone()
	if _, ok := cfg.Devices[nickname]; !ok {
		return false, nil
	}

	delete(cfg.Devices, nickname)

	if err := m.store.Persist(ctx, cfg); err != nil {
		return false, err
	}

	return true, nil
}

// ParsePollRate parses a command-line poll rate.
func ParsePollRate(s string) (int, error) {
	seconds, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPollRate, s)
	}

	return seconds, nil
}
