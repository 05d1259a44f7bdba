package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/goose-belt/internal/config"
	"github.com/oshokin/goose-belt/internal/domain/alarm"
	"github.com/oshokin/goose-belt/internal/service/agent"
	"github.com/oshokin/goose-belt/internal/service/manage"
)

func startAgent(t *testing.T, gw *gateway, flockPath string) func() {
	t.Helper()

	settings := config.Default()
	settings.GatewayURL = gw.srv.URL
	settings.GatewayKey = "key"
	settings.Phone = "5551234"
	settings.Timeout = time.Second
	settings.Production = true

	settingsPath := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.Save(settingsPath, settings))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- agent.Run(ctx, &agent.Options{ConfigPath: settingsPath, FlockPath: flockPath})
	}()

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

// TestAgent_AlertAndClear runs the whole agent against a device and a gateway.
func TestAgent_AlertAndClear(t *testing.T) {
	t.Parallel()

	gw := newGateway(t)
	lab := newGoose(t, "TempF", alarm.StatusTripped)

	flockPath := filepath.Join(t.TempDir(), config.DefaultFlockFilename)

	m, err := manage.Open(t.Context(), flockPath)
	require.NoError(t, err)
	require.NoError(t, m.SetPollRate(t.Context(), 1))
	require.NoError(t, m.AddDevice(t.Context(), "lab", lab.host()))

	stop := startAgent(t, gw, flockPath)
	defer stop()

	require.Eventually(t, func() bool {
		return len(gw.sent()) == 1
	}, 5*time.Second, 50*time.Millisecond)

	lab.setStatus("Normal")

	require.Eventually(t, func() bool {
		return len(gw.sent()) == 2
	}, 5*time.Second, 50*time.Millisecond)

	require.Equal(t, []string{alertLab, clearLab}, gw.sent())
}

// TestAgent_PicksUpAddedDevice polls a device added while the agent runs.
func TestAgent_PicksUpAddedDevice(t *testing.T) {
	t.Parallel()

	gw := newGateway(t)
	lab := newGoose(t, "TempF", alarm.StatusTripped)

	flockPath := filepath.Join(t.TempDir(), config.DefaultFlockFilename)

	m, err := manage.Open(t.Context(), flockPath)
	require.NoError(t, err)
	require.NoError(t, m.SetPollRate(t.Context(), 1))

	stop := startAgent(t, gw, flockPath)
	defer stop()

	// Rewrite until the watcher has been installed and the change is seen.
	require.Eventually(t, func() bool {
		assert.NoError(t, m.AddDevice(context.Background(), "lab", lab.host()))

		return len(gw.sent()) > 0
	}, 10*time.Second, 500*time.Millisecond)

	require.Equal(t, alertLab, gw.sent()[0])
}
