package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds agent settings that are not part of the user-editable flock file.
type Config struct {
	// FlockFile is the path to the JSON flock configuration.
	FlockFile string `yaml:"flock_file"`
	// GatewayURL is the SMS gateway endpoint.
	GatewayURL string `yaml:"gateway_url"`
	// GatewayKey is the secret key sent to the gateway.
	GatewayKey string `yaml:"gateway_key"`
	// Phone is the destination number for notifications.
	Phone string `yaml:"phone"`
	// Timeout bounds each device poll and each gateway request.
	Timeout time.Duration `yaml:"timeout"`
	// MaxConcurrency limits concurrently polled devices within a cycle.
	MaxConcurrency int `yaml:"max_concurrency"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// MetricsAddress enables the Prometheus endpoint when non-empty.
	MetricsAddress string `yaml:"metrics_addr"`
	// Production disables the console echo of notifications.
	Production bool `yaml:"production"`
}

const (
	// DefaultConfigFilename is the default filename for agent settings.
	DefaultConfigFilename = "gbelt-settings.yaml"

	// DefaultFlockFilename is the flock file name inside the home directory.
	DefaultFlockFilename = ".flock.json"

	// DefaultGatewayURL is the SMS gateway used when none is configured.
	DefaultGatewayURL = "https://textbelt.com/text"

	// DefaultTimeout is the default per-request bound.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxConcurrency is the default number of devices polled at once.
	DefaultMaxConcurrency = 8

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600

	// Environment variables recognised by Apply.
	EnvGatewayKey  = "smsKey"
	EnvPhone       = "smsNum"
	EnvEnvironment = "GBELT_ENV"

	productionEnvironment = "production"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidConcurrency is returned for a negative concurrency limit.
	errInvalidConcurrency = errors.New("max_concurrency must not be negative")
	// errNoHomeDirectory is returned when the flock file location cannot be derived.
	errNoHomeDirectory = errors.New("home directory is not set")
)

// Default returns settings with every default applied.
func Default() *Config {
	cfg := new(Config)

	// Defaults never fail validation.
	_ = Validate(cfg)

	return cfg
}

// Load reads settings from path. A missing file at the default location
// yields defaults; a missing file that was asked for explicitly is an error.
func Load(path string) (*Config, error) {
	explicit := path != "" && path != DefaultConfigFilename
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// The file may carry the gateway key.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
func Validate(settings *Config) error {
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.MaxConcurrency < 0 {
		return errInvalidConcurrency
	}

	if settings.MaxConcurrency == 0 {
		settings.MaxConcurrency = DefaultMaxConcurrency
	}

	if settings.LogLevel == "" {
		settings.LogLevel = "info"
	}

	if settings.GatewayURL == "" {
		settings.GatewayURL = DefaultGatewayURL
	}

	if _, err := url.ParseRequestURI(settings.GatewayURL); err != nil {
		return fmt.Errorf("invalid gateway URL: %w", err)
	}

	return nil
}

// ApplyEnv overrides credentials and the environment from process variables.
func ApplyEnv(settings *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvGatewayKey); ok && v != "" {
		settings.GatewayKey = v
	}

	if v, ok := lookup(EnvPhone); ok && v != "" {
		settings.Phone = v
	}

	if v, ok := lookup(EnvEnvironment); ok {
		settings.Production = strings.EqualFold(strings.TrimSpace(v), productionEnvironment)
	}
}

// ResolveFlockFile returns override, then settings.FlockFile, then the
// per-user default location.
func ResolveFlockFile(settings *Config, override string) (string, error) {
	switch {
	case override != "":
		return override, nil
	case settings != nil && settings.FlockFile != "":
		return settings.FlockFile, nil
	default:
		return DefaultFlockFile()
	}
}

// DefaultFlockFile returns $HOME/.flock.json (%USERPROFILE% on Windows).
func DefaultFlockFile() (string, error) {
	variable := "HOME"
	if runtime.GOOS == "windows" {
		variable = "USERPROFILE"
	}

	home := os.Getenv(variable)
	if home == "" {
		var err error

		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: %w", errNoHomeDirectory, err)
		}
	}

	return filepath.Join(home, DefaultFlockFilename), nil
}
