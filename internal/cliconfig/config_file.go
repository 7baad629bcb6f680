package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ListenPort  int    `toml:"listen_port"`
	FlushWindow string `toml:"flush_window"`
	Plain       *bool  `toml:"plain"`

	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	RetryDelay  string `toml:"retry_delay"`
	DialTimeout string `toml:"dial_timeout"`
	Source      string `toml:"source"`
	Follow      string `toml:"follow"`

	ShutdownGrace string `toml:"shutdown_grace"`
	Verbose       *bool  `toml:"verbose"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.linetap/config.toml if the user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".linetap", "config.toml")
	}
	return ""
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	// Both subcommands expose --port; the listen command registers its flag
	// under the "listen-port" settings key so an explicit --port in one mode
	// never suppresses the file/env value for the other mode's field.
	s.setInt("listen-port", fc.ListenPort, &cfg.ListenPort)
	s.setInt("port", fc.Port, &cfg.Port)
	s.setString("host", fc.Host, &cfg.Host)
	s.setString("source", fc.Source, &cfg.Source)
	s.setString("follow", fc.Follow, &cfg.Follow)

	if err := s.setDuration("flush-window", fc.FlushWindow, &cfg.FlushWindow); err != nil {
		return err
	}
	if err := s.setDuration("retry-delay", fc.RetryDelay, &cfg.RetryDelay); err != nil {
		return err
	}
	if err := s.setDuration("dial-timeout", fc.DialTimeout, &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-grace", fc.ShutdownGrace, &cfg.ShutdownGrace); err != nil {
		return err
	}

	s.setBool("plain", fc.Plain, &cfg.Plain)
	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	return nil
}
