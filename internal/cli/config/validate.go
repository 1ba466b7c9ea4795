package config

import (
	"fmt"
	"log/slog"
	"strings"
)

var validOutputs = []string{"auto", "text", "markdown", "md", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendInMem, BackendNative:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendInMem, BackendNative)
	}

	valid := false
	for _, o := range validOutputs {
		if strings.EqualFold(c.OutputFormat, o) {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown output format %q (want one of %s)", c.OutputFormat, strings.Join(validOutputs, ", "))
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	if c.UIDCacheSize < 0 {
		return fmt.Errorf("uid_cache_size must not be negative, got %d", c.UIDCacheSize)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return nil
}

// Level returns the effective log level. Verbose forces debug.
func (c *Config) Level() (slog.Level, error) {
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
