package client

import (
	"github.com/disasterwatch/client/internal/cache"
	"github.com/disasterwatch/client/internal/config"
	"github.com/disasterwatch/client/internal/notify"
	"github.com/disasterwatch/client/internal/projector"
	"github.com/disasterwatch/client/internal/reconcile"
	"github.com/disasterwatch/client/internal/shardqueue"
	"github.com/disasterwatch/client/internal/types"
)

// Public type aliases so SDK consumers can import only the client package.
type (
	// Requests
	CreateDisasterRequest = types.CreateDisasterRequest
	ReportRequest         = types.ReportRequest
	ResourceQuery         = types.ResourceQuery

	// Domain entities
	Disaster          = types.Disaster
	SocialMediaPost   = types.SocialMediaPost
	Resource          = types.Resource
	OfficialUpdate    = types.OfficialUpdate
	GeocodeResult     = types.GeocodeResult
	Coordinates       = types.Coordinates
	ImageVerification = types.ImageVerification

	// Synchronization
	PartitionKey   = cache.Key
	PartitionState = reconcile.State
	PushTransport  = notify.Transport

	// Rendering
	View = projector.View

	Config         = config.Config
	ExecutorConfig = shardqueue.Config
)

// Partition keys.
var (
	DisastersKey       = cache.DisastersKey
	SocialMediaKey     = cache.SocialMediaKey
	ResourcesKey       = cache.ResourcesKey
	OfficialUpdatesKey = cache.OfficialUpdatesKey
)

// Partition states.
const (
	StateStale      = reconcile.Stale
	StateRefreshing = reconcile.Refreshing
	StateFresh      = reconcile.Fresh
)

// LoadConfig reads the configuration from DISASTERWATCH_* variables.
func LoadConfig() (*Config, error) { return config.New() }

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config { return config.Default() }
