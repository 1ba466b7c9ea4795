// Package config provides configuration management for the skreq CLI.
//
// Values are layered, lowest priority first: built-in defaults, the config
// file (skreq.yaml), a .env file next to it, SKREQ_ environment variables and
// finally command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/sourcekit/pkg/skobject"
)

// Backend names.
const (
	BackendInMem  = "inmem"
	BackendNative = "native"
)

// Default configuration values.
const (
	DefaultBackend       = BackendInMem
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel      = "warn"
	DefaultEnv           = "dev"
	DefaultJobs          = 4
	DefaultWatchDebounce = 100 * time.Millisecond
	DefaultUIDCacheSize  = skobject.DefaultUIDCacheSize
)

// Config holds all CLI configuration options.
type Config struct {
	Backend        string         `koanf:"backend"`
	OutputFormat   string         `koanf:"output"`
	Verbose        bool           `koanf:"verbose"`
	LogLevel       string         `koanf:"log_level"`
	UIDCacheSize   int            `koanf:"uid_cache_size"`
	FailFastIntern bool           `koanf:"fail_fast_intern"`
	Environment    string         `koanf:"env"`
	Jobs           int            `koanf:"jobs"`
	Vars           map[string]any `koanf:"vars"`
	Watch          WatchConfig    `koanf:"watch"`

	// ConfigDir is the directory of the config file in use, or the working
	// directory when there is none.
	ConfigDir string `koanf:"-"`
}

// WatchConfig configures describe --watch.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		Backend:        DefaultBackend,
		OutputFormat:   DefaultOutput,
		LogLevel:       DefaultLogLevel,
		UIDCacheSize:   DefaultUIDCacheSize,
		FailFastIntern: true,
		Environment:    DefaultEnv,
		Jobs:           DefaultJobs,
		Watch:          WatchConfig{Debounce: DefaultWatchDebounce},
		ConfigDir:      ".",
	}
}
