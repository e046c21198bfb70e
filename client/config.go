package client

import (
	"fmt"
	"os"
	"strconv"
)

// Config configures a Cxn or Pool. Unlike the source structure this was
// ported from, which read WSTFDB_HOSTNAME/WSTFDB_PORT/QUEUE_CAPACITY from
// the environment at connection time and panicked if QUEUE_CAPACITY
// didn't parse, Config is just a plain struct: callers that want
// environment-driven configuration read it themselves (see
// ConfigFromEnv) and construction never panics.
type Config struct {
	Host          string
	Port          string
	QueueCapacity int
}

// DefaultConfig matches the defaults the source environment reader fell
// back to.
func DefaultConfig() Config {
	return Config{
		Host:          "localhost",
		Port:          "9001",
		QueueCapacity: 70_000_000,
	}
}

// ConfigFromEnv reads WSTFDB_HOSTNAME, WSTFDB_PORT, and QUEUE_CAPACITY,
// falling back to DefaultConfig's values for any that are unset. An
// unparseable QUEUE_CAPACITY is a returned error, not a panic.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("WSTFDB_HOSTNAME"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("WSTFDB_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("QUEUE_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("client: QUEUE_CAPACITY %q: %w", v, err)
		}
		cfg.QueueCapacity = n
	}

	return cfg, nil
}
