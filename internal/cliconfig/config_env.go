package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (LINETAP_*).
// It respects flags that have been explicitly set (changed map).
// Returns an error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if err := s.setIntFromString("listen-port", os.Getenv("LINETAP_LISTEN_PORT"), &cfg.ListenPort); err != nil {
		return err
	}
	if err := s.setIntFromString("port", os.Getenv("LINETAP_PORT"), &cfg.Port); err != nil {
		return err
	}

	s.setString("host", os.Getenv("LINETAP_HOST"), &cfg.Host)
	s.setString("source", os.Getenv("LINETAP_SOURCE"), &cfg.Source)
	s.setString("follow", os.Getenv("LINETAP_FOLLOW"), &cfg.Follow)

	if err := s.setDuration("flush-window", os.Getenv("LINETAP_FLUSH_WINDOW"), &cfg.FlushWindow); err != nil {
		return err
	}
	if err := s.setDuration("retry-delay", os.Getenv("LINETAP_RETRY_DELAY"), &cfg.RetryDelay); err != nil {
		return err
	}
	if err := s.setDuration("dial-timeout", os.Getenv("LINETAP_DIAL_TIMEOUT"), &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-grace", os.Getenv("LINETAP_SHUTDOWN_GRACE"), &cfg.ShutdownGrace); err != nil {
		return err
	}

	s.setBoolFromString("plain", os.Getenv("LINETAP_PLAIN"), &cfg.Plain)
	s.setBoolFromString("verbose", os.Getenv("LINETAP_VERBOSE"), &cfg.Verbose)

	return nil
}
