// Package config defines the agent settings and default file locations.
//
// Settings come from an optional YAML file with environment overrides for the
// gateway credentials. The flock file itself (devices and poll rate) lives in
// the user's home directory and is handled by the flock repository.
package config
