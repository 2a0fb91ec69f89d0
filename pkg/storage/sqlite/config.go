package sqlite

import (
	"time"

	"github.com/statesynth/mealycache/pkg/logger"
)

const defaultTimeout = 5 * time.Second

// Config defines the configuration parameters for the SQLite datastore.
type Config struct {
	Logger        logger.Logger
	ExportMetrics bool

	// Timeout bounds how long New waits for the database to answer a ping.
	Timeout time.Duration

	// TargetVersion is the schema version to migrate to. Zero means the newest one.
	TargetVersion int64
}

// DatastoreOption defines a function type used for configuring a Config object.
type DatastoreOption func(*Config)

func WithLogger(l logger.Logger) DatastoreOption {
	return func(c *Config) { c.Logger = l }
}

func WithMetrics() DatastoreOption {
	return func(c *Config) { c.ExportMetrics = true }
}

func WithTimeout(d time.Duration) DatastoreOption {
	return func(c *Config) { c.Timeout = d }
}

func WithTargetVersion(v int64) DatastoreOption {
	return func(c *Config) { c.TargetVersion = v }
}

// NewConfig creates a new Config instance with default values and applies any provided DatastoreOption modifications.
func NewConfig(opts ...DatastoreOption) *Config {
	cfg := &Config{
		Logger:  logger.NewNoopLogger(),
		Timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}
