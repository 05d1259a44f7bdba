package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/goose-belt/internal/domain/flock"
	repository "github.com/oshokin/goose-belt/internal/repository/flock"
)

// countingObserver records reload outcomes.
type countingObserver struct {
	ok     atomic.Int32
	failed atomic.Int32
}

// ConfigReloaded increments the matching counter.
func (c *countingObserver) ConfigReloaded(ok bool) {
	if ok {
		c.ok.Add(1)
		return
	}

	c.failed.Add(1)
}

func openStore(t *testing.T, contents string, opts ...Option) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".flock.json")
	if contents != "" {
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	}

	s, err := Open(context.Background(), repository.NewFileRepository(path), domain.Default(), opts...)
	require.NoError(t, err)

	return s, path
}

// TestOpen_WritesDefault verifies a missing file is created with defaults.
func TestOpen_WritesDefault(t *testing.T) {
	t.Parallel()

	s, path := openStore(t, "")

	require.Equal(t, domain.DefaultPollRate, s.Current().PollRate)
	require.Empty(t, s.Current().Devices)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"pollrate":300,"devices":{}}`, string(contents))
}

// TestOpen_ReadsExisting verifies an existing file wins over defaults.
func TestOpen_ReadsExisting(t *testing.T) {
	t.Parallel()

	s, _ := openStore(t, `{"pollrate":15,"devices":{"lab":"10.0.0.5"}}`)

	require.Equal(t, 15, s.Current().PollRate)
	require.Equal(t, map[string]string{"lab": "10.0.0.5"}, s.Current().Devices)
}

// TestOpen_Malformed is fatal at startup.
func TestOpen_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".flock.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pollrate":`), 0o600))

	s, err := Open(context.Background(), repository.NewFileRepository(path), domain.Default())
	require.ErrorIs(t, err, repository.ErrMalformed)
	require.Nil(t, s)

	require.NoError(t, os.WriteFile(path, []byte(`{"pollrate":0}`), 0o600))

	s, err = Open(context.Background(), repository.NewFileRepository(path), domain.Default())
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	require.Nil(t, s)
}

// TestReload_KeepsPreviousOnFailure verifies a bad edit never replaces a good snapshot.
func TestReload_KeepsPreviousOnFailure(t *testing.T) {
	t.Parallel()

	observer := new(countingObserver)
	s, path := openStore(t, `{"pollrate":15,"devices":{}}`, WithReloadObserver(observer))
	before := s.Current()

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))
	require.Error(t, s.Reload(context.Background()))
	require.Same(t, before, s.Current())

	require.NoError(t, os.WriteFile(path, []byte(`{"pollrate":-1}`), 0o600))
	require.ErrorIs(t, s.Reload(context.Background()), ErrInvalidConfiguration)
	require.Same(t, before, s.Current())

	require.NoError(t, os.Remove(path))
	require.ErrorIs(t, s.Reload(context.Background()), repository.ErrNotFound)
	require.Same(t, before, s.Current())

	require.NoError(t, os.WriteFile(path, []byte(`{"pollrate":20,"devices":{"a":"b"}}`), 0o600))
	require.NoError(t, s.Reload(context.Background()))
	require.Equal(t, 20, s.Current().PollRate)

	require.EqualValues(t, 1, observer.ok.Load())
	require.EqualValues(t, 3, observer.failed.Load())

	select {
	case cfg := <-s.Updates():
		require.Equal(t, 20, cfg.PollRate)
	default:
		t.Fatal("expected a snapshot on the updates channel")
	}
}

// TestReload_UpdatesKeepLatest verifies unconsumed snapshots are replaced, not queued.
func TestReload_UpdatesKeepLatest(t *testing.T) {
	t.Parallel()

	s, path := openStore(t, `{"pollrate":1}`)

	for _, rate := range []string{"2", "3", "4"} {
		require.NoError(t, os.WriteFile(path, []byte(`{"pollrate":`+rate+`}`), 0o600))
		require.NoError(t, s.Reload(context.Background()))
	}

	cfg := <-s.Updates()
	require.Equal(t, 4, cfg.PollRate)

	select {
	case <-s.Updates():
		t.Fatal("only the latest snapshot should be buffered")
	default:
	}
}

// TestPersist writes the file and swaps the snapshot without touching the caller's value.
func TestPersist(t *testing.T) {
	t.Parallel()

	s, path := openStore(t, "")

	next := s.Current().Clone()
	next.PollRate = 42
	next.Devices["lab"] = "10.0.0.5"

	require.NoError(t, s.Persist(context.Background(), next))

	current := s.Current()
	require.Equal(t, 42, current.PollRate)
	require.NotSame(t, next, current)

	next.Devices["late"] = "edit"
	require.NotContains(t, s.Current().Devices, "late")

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"pollrate":42,"devices":{"lab":"10.0.0.5"}}`, string(contents))

	bad := current.Clone()
	bad.PollRate = 0
	require.ErrorIs(t, s.Persist(context.Background(), bad), ErrInvalidConfiguration)
	require.Equal(t, 42, s.Current().PollRate)
}

// TestWatch_ReloadsOnExternalEdit edits the file from outside and waits for the new snapshot.
func TestWatch_ReloadsOnExternalEdit(t *testing.T) {
	t.Parallel()

	s, path := openStore(t, `{"pollrate":30,"devices":{"lab":"10.0.0.5"}}`)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- s.Watch(ctx)
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(`{"pollrate":30,"devices":{"closet":"10.0.0.6"}}`), 0o600))

	require.Eventually(t, func() bool {
		_, ok := s.Current().Devices["closet"]
		return ok
	}, 3*time.Second, 20*time.Millisecond)

	// A broken edit leaves the last good snapshot in place.
	require.NoError(t, os.WriteFile(path, []byte(`{"pollrate":`), 0o600))
	time.Sleep(200 * time.Millisecond)
	require.Contains(t, s.Current().Devices, "closet")

	// Rename-over replacement is picked up too.
	require.NoError(t, s.repo.Save(ctx, &domain.Configuration{PollRate: 7, Devices: map[string]string{}}))
	require.Eventually(t, func() bool {
		return s.Current().PollRate == 7
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

// TestCurrent_ConcurrentWithReload exercises readers racing a reloader.
func TestCurrent_ConcurrentWithReload(t *testing.T) {
	t.Parallel()

	s, path := openStore(t, `{"pollrate":5,"devices":{"a":"1","b":"2"}}`)

	var wg sync.WaitGroup

	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 200 {
				cfg := s.Current()
				assert.Len(t, cfg.Devices, 2)
				assert.Positive(t, cfg.PollRate)
			}
		}()
	}

	for i := range 20 {
		contents := []byte(`{"pollrate":` + string(rune('1'+i%9)) + `,"devices":{"a":"1","b":"2"}}`)
		require.NoError(t, os.WriteFile(path, contents, 0o600))

		// A torn read may fail to parse; the snapshot stays valid either way.
		_ = s.Reload(context.Background())
	}

	wg.Wait()
}

// TestSymlinkedFile persists through a symlink and reloads edits made to its target.
func TestSymlinkedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "dotfiles", "flock.json")
	link := filepath.Join(dir, ".flock.json")

	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o700))
	require.NoError(t, os.WriteFile(target, []byte(`{"pollrate":30,"devices":{}}`), 0o600))
	require.NoError(t, os.Symlink(target, link))

	s, err := Open(context.Background(), repository.NewFileRepository(link), domain.Default())
	require.NoError(t, err)

	next := s.Current().Clone()
	next.PollRate = 99
	require.NoError(t, s.Persist(context.Background(), next))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&os.ModeSymlink)

	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	require.JSONEq(t, `{"pollrate":99,"devices":{}}`, string(contents))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- s.Watch(ctx)
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(target, []byte(`{"pollrate":31,"devices":{}}`), 0o600))

	require.Eventually(t, func() bool {
		return s.Current().PollRate == 31
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
