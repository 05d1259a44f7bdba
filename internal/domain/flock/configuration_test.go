package flock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestDefault checks the first-run configuration.
func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.Equal(t, 300, cfg.PollRate)
	require.NotNil(t, cfg.Devices)
	require.Empty(t, cfg.Devices)
	require.NoError(t, cfg.Validate())
	require.Equal(t, 5*time.Minute, cfg.PollInterval())
}

// TestClone ensures the device map is copied, not shared.
func TestClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*Configuration)(nil).Clone())

	cfg := &Configuration{
		PollRate: 10,
		Devices:  map[string]string{"lab": "10.0.0.5"},
	}

	cloned := cfg.Clone()
	cloned.Devices["closet"] = "10.0.0.6"

	require.Len(t, cfg.Devices, 1)
	require.Equal(t, 10, cloned.PollRate)
}

// TestValidate covers poll rate and device entry checks.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, (&Configuration{PollRate: 0}).Validate(), ErrInvalidPollRate)
	require.ErrorIs(t, (&Configuration{PollRate: -5}).Validate(), ErrInvalidPollRate)

	cfg := &Configuration{PollRate: 1, Devices: map[string]string{" ": "host"}}
	require.ErrorIs(t, cfg.Validate(), ErrEmptyNickname)

	cfg = &Configuration{PollRate: 1, Devices: map[string]string{"lab": ""}}
	require.ErrorIs(t, cfg.Validate(), ErrEmptyHost)

	cfg = &Configuration{PollRate: 1}
	require.NoError(t, cfg.Validate())
}

// TestNicknames checks the order used by the scheduler and the CLI.
func TestNicknames(t *testing.T) {
	t.Parallel()

	cfg := &Configuration{
		PollRate: 1,
		Devices:  map[string]string{"zeta": "z", "alpha": "a", "mid": "m"},
	}

	require.Equal(t, []string{"alpha", "mid", "zeta"}, cfg.Nicknames())
}
