// Package cliconfig implements the layered configuration for the linetap
// CLI: defaults, then the TOML config file, then LINETAP_* environment
// variables, then explicit command-line flags. Precedence is enforced with
// a changed-flags map so a value from a lower layer never overrides an
// explicitly set flag.
package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/linetap/linetap/internal/domain"
)

// DefaultPort is the port producers and the viewer agree on out of the box.
const DefaultPort = 7007

// Config holds the configuration for both CLI modes. The listen command
// uses the receiving-side fields, ship uses the sending-side ones; shared
// fields apply to both.
type Config struct {
	// Receiving side.
	ListenPort  int
	FlushWindow time.Duration
	Plain       bool

	// Sending side.
	Host        string
	Port        int
	RetryDelay  time.Duration
	DialTimeout time.Duration
	Source      string
	Follow      string

	// Shared.
	ShutdownGrace time.Duration
	Verbose       bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ListenPort:    DefaultPort,
		FlushWindow:   500 * time.Millisecond,
		Host:          "127.0.0.1",
		Port:          DefaultPort,
		RetryDelay:    5 * time.Second,
		DialTimeout:   10 * time.Second,
		ShutdownGrace: 5 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("%w: listen port %d out of range", domain.ErrInvalidConfig, c.ListenPort)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidConfig, c.Port)
	}
	if c.Host == "" {
		return fmt.Errorf("%w: host must not be empty", domain.ErrInvalidConfig)
	}
	if c.FlushWindow <= 0 {
		return fmt.Errorf("%w: flush window must be positive", domain.ErrInvalidConfig)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("%w: retry delay must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// Logger returns the CLI's console logger.
func Logger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger().Level(level)
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
