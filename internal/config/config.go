// Package config loads client settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/disasterwatch/client/internal/shardqueue"
	"github.com/disasterwatch/client/internal/types"
)

// Push transports.
const (
	TransportSocketIO = "socketio"
	TransportMQTT     = "mqtt"
)

// Config holds the client configuration.
// Environment variables are parsed from the DISASTERWATCH_ prefix, e.g.
// DISASTERWATCH_API_BASE_URL, DISASTERWATCH_QUEUE_SHARDS.
type Config struct {
	APIBaseURL string `envconfig:"API_BASE_URL" default:"http://localhost:8000/api"`

	// Push channel
	PushTransport   string `envconfig:"PUSH_TRANSPORT" default:"socketio"`
	PushURL         string `envconfig:"PUSH_URL" default:"ws://localhost:8000/socket.io/?EIO=4&transport=websocket"`
	MQTTBroker      string `envconfig:"MQTT_BROKER" default:"tcp://localhost:1883"`
	MQTTTopicPrefix string `envconfig:"MQTT_TOPIC_PREFIX" default:"disasters"`
	MQTTClientID    string `envconfig:"MQTT_CLIENT_ID" default:"disasterwatch"`

	ReconnectMin time.Duration `envconfig:"RECONNECT_MIN" default:"500ms"`
	ReconnectMax time.Duration `envconfig:"RECONNECT_MAX" default:"30s"`

	// Session
	DefaultUser string   `envconfig:"DEFAULT_USER" default:"netrunnerX"`
	Roster      []string `envconfig:"ROSTER" default:"netrunnerX,reliefAdmin,citizen1"`
	Admins      []string `envconfig:"ADMINS" default:"netrunnerX"`

	HTTPTimeout  time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`

	// Resource query used when a caller does not give one.
	DefaultLat    float64 `envconfig:"DEFAULT_LAT" default:"40.7128"`
	DefaultLon    float64 `envconfig:"DEFAULT_LON" default:"-74.0060"`
	DefaultRadius float64 `envconfig:"DEFAULT_RADIUS" default:"10000"`

	Debug bool `envconfig:"DEBUG" default:"false"`

	Queue shardqueue.Config `envconfig:"QUEUE"`
}

// New creates a Config from environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("DISASTERWATCH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("api_base_url", cfg.APIBaseURL).
		Str("push_transport", cfg.PushTransport).
		Str("default_user", cfg.DefaultUser).
		Strs("roster", cfg.Roster).
		Dur("fetch_timeout", cfg.FetchTimeout).
		Int("queue_shards", cfg.Queue.Shards).
		Msg("configuration loaded")

	return &cfg, nil
}

// Default returns the configuration with every default applied, ignoring the
// environment.
func Default() *Config {
	return &Config{
		APIBaseURL:      "http://localhost:8000/api",
		PushTransport:   TransportSocketIO,
		PushURL:         "ws://localhost:8000/socket.io/?EIO=4&transport=websocket",
		MQTTBroker:      "tcp://localhost:1883",
		MQTTTopicPrefix: "disasters",
		MQTTClientID:    "disasterwatch",
		ReconnectMin:    500 * time.Millisecond,
		ReconnectMax:    30 * time.Second,
		DefaultUser:     "netrunnerX",
		Roster:          []string{"netrunnerX", "reliefAdmin", "citizen1"},
		Admins:          []string{"netrunnerX"},
		HTTPTimeout:     30 * time.Second,
		FetchTimeout:    10 * time.Second,
		DefaultLat:      40.7128,
		DefaultLon:      -74.0060,
		DefaultRadius:   10000,
	}
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	switch c.PushTransport {
	case TransportSocketIO, TransportMQTT:
	default:
		return fmt.Errorf("unsupported PUSH_TRANSPORT: %s", c.PushTransport)
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if err := types.ValidateResourceQuery(c.DefaultResourceQuery()); err != nil {
		return fmt.Errorf("default resource query: %w", err)
	}
	return nil
}

// DefaultResourceQuery is the centre and radius used for resource lookups
// without an explicit query.
func (c *Config) DefaultResourceQuery() types.ResourceQuery {
	return types.ResourceQuery{Lat: c.DefaultLat, Lon: c.DefaultLon, Radius: c.DefaultRadius}
}
