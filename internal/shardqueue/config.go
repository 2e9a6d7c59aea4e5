package shardqueue

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Config groups all tunables. Values are taken from environment variables with
// the prefix "DISASTERWATCH_QUEUE_". Example: DISASTERWATCH_QUEUE_SHARDS=8.
type Config struct {
	Shards         int           `envconfig:"SHARDS"          default:"8"`
	QueueSize      int           `envconfig:"QUEUE_SIZE"      default:"128"`
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`

	// ErrorHandler is called synchronously after a Job's final attempt fails.
	// Leave nil if you do not care.
	ErrorHandler func(error) `ignored:"true"`

	MaxAttempts int           `envconfig:"MAX_ATTEMPTS"   default:"3"`
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF"   default:"250ms"`
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL"   default:"10s"`

	Logger zerolog.Logger `ignored:"true"`
}

// LoadConfig populates Config from environment variables (prefix DISASTERWATCH_QUEUE_).
func LoadConfig() (Config, error) {
	var c Config
	return c, envconfig.Process("DISASTERWATCH_QUEUE", &c)
}

// withDefaults applies zero-value defaults.
func (c Config) withDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = 8
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 128
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 250 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 10 * time.Second
	}
	return c
}
