package flock

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// DefaultPollRate is the poll interval in seconds written on first run.
const DefaultPollRate = 300

var (
	// ErrInvalidPollRate is returned when the poll rate is not a positive number of seconds.
	ErrInvalidPollRate = errors.New("pollrate must be a positive number of seconds")
	// ErrEmptyNickname is returned when a device is registered without a nickname.
	ErrEmptyNickname = errors.New("device nickname must not be empty")
	// ErrEmptyHost is returned when a device is registered without a host.
	ErrEmptyHost = errors.New("device host must not be empty")
)

// Configuration is the content of the flock file.
// Values handed out by the store are shared snapshots and must not be mutated;
// use Clone to derive a modified copy.
type Configuration struct {
	// PollRate is the pause between poll cycles in seconds.
	PollRate int `json:"pollrate"`
	// Devices maps a device nickname to its host (name or host:port).
	Devices map[string]string `json:"devices"`
}

// Default returns the configuration written when no file exists yet.
func Default() *Configuration {
	return &Configuration{
		PollRate: DefaultPollRate,
		Devices:  make(map[string]string),
	}
}

// Clone returns a deep copy of the configuration.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}

	devices := make(map[string]string, len(c.Devices))
	maps.Copy(devices, c.Devices)

	return &Configuration{
		PollRate: c.PollRate,
		Devices:  devices,
	}
}

// Validate checks the poll rate and every device entry.
func (c *Configuration) Validate() error {
	if c.PollRate <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPollRate, c.PollRate)
	}

	for nickname, host := range c.Devices {
		if strings.TrimSpace(nickname) == "" {
			return ErrEmptyNickname
		}

		if strings.TrimSpace(host) == "" {
			return fmt.Errorf("device %q: %w", nickname, ErrEmptyHost)
		}
	}

	return nil
}

// PollInterval returns the poll rate as a duration.
func (c *Configuration) PollInterval() time.Duration {
	return time.Duration(c.PollRate) * time.Second
}

// Nicknames returns device nicknames in a stable order.
func (c *Configuration) Nicknames() []string {
	return slices.Sorted(maps.Keys(c.Devices))
}
