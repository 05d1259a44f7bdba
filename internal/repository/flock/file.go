package flock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/goose-belt/internal/config"
	domain "github.com/oshokin/goose-belt/internal/domain/flock"
)

// Repository defines persistence operations for the flock configuration.
type Repository interface {
	Load(ctx context.Context) (*domain.Configuration, error)
	Save(ctx context.Context, cfg *domain.Configuration) error
}

// FileRepository persists the configuration as JSON on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON file.
	path string
	// mu serialises writers within this process.
	mu sync.Mutex
}

// maxSymlinkHops bounds symlink chains, matching the usual kernel limit.
const maxSymlinkHops = 40

var (
	// ErrNotFound is returned when the configuration file does not exist yet.
	ErrNotFound = errors.New("configuration file not found")
	// ErrMalformed is returned when the file exists but cannot be decoded.
	ErrMalformed = errors.New("malformed configuration file")
)

// fileFormat is the on-disk shape. Pollrate is a json.Number so files
// where it was written as a quoted number still load.
type fileFormat struct {
	PollRate json.Number       `json:"pollrate"`
	Devices  map[string]string `json:"devices"`
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
// A symlinked file is resolved once so that writes and watches reach its target.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: resolveSymlink(filepath.Clean(path)),
	}
}

// resolveSymlink follows path when it is a symlink, dangling links included.
// Any other path is returned unchanged.
func resolveSymlink(path string) string {
	for range maxSymlinkHops {
		info, err := os.Lstat(path)
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			return path
		}

		target, err := os.Readlink(path)
		if err != nil {
			return path
		}

		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}

		path = filepath.Clean(target)
	}

	return path
}

// Path returns the location of the configuration file.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads and decodes the configuration. It does not validate it.
func (r *FileRepository) Load(_ context.Context) (*domain.Configuration, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read configuration file: %w", err)
	}

	return decode(contents)
}

// Ensure writes def when the file does not exist yet.
// It reports whether the file was created.
func (r *FileRepository) Ensure(ctx context.Context, def *domain.Configuration) (bool, error) {
	_, err := os.Stat(r.path)
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat configuration file: %w", err)
	}

	if err = r.Save(ctx, def); err != nil {
		return false, err
	}

	return true, nil
}

// Save writes the configuration to a temporary file in the same directory
// and renames it over the target, so readers never see a partial file.
func (r *FileRepository) Save(_ context.Context, cfg *domain.Configuration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := encode(cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)

	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create configuration directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temporary file: %w", err)
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temporary file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temporary file: %w", err)
	}

	if err = os.Chmod(tmpName, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("chmod temporary file: %w", err)
	}

	if err = os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace configuration file: %w", err)
	}

	return nil
}

// decode converts file contents into the domain configuration.
func decode(contents []byte) (*domain.Configuration, error) {
	var raw *fileFormat
	if err := json.Unmarshal(contents, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if raw == nil {
		return nil, fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}

	cfg := domain.Default()

	if raw.PollRate != "" {
		pollRate, err := parsePollRate(raw.PollRate)
		if err != nil {
			return nil, err
		}

		cfg.PollRate = pollRate
	}

	if raw.Devices != nil {
		cfg.Devices = raw.Devices
	}

	return cfg, nil
}

// parsePollRate accepts any whole number, including forms like 300.0 or 3e2.
func parsePollRate(n json.Number) (int, error) {
	if v, err := n.Int64(); err == nil {
		return int(v), nil
	}

	v, err := n.Float64()
	if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: pollrate %q is not an integer", ErrMalformed, n)
	}

	return int(v), nil
}

// encode renders the configuration the way users are expected to edit it.
func encode(cfg *domain.Configuration) ([]byte, error) {
	devices := cfg.Devices
	if devices == nil {
		devices = map[string]string{}
	}

	data, err := json.MarshalIndent(struct {
		PollRate int               `json:"pollrate"`
		Devices  map[string]string `json:"devices"`
	}{
		PollRate: cfg.PollRate,
		Devices:  devices,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode configuration: %w", err)
	}

	return append(data, '\n'), nil
}
