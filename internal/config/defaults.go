package config

import "time"

// EnvPrefix prefixes environment overrides, e.g. RIDECHAT_SERVER_ADDR.
const EnvPrefix = "RIDECHAT"

// DefaultConfigDir is the default location for ridechat configuration.
const DefaultConfigDir = "~/.config/ridechat"

// DefaultDBName is the filename for the ride history database.
const DefaultDBName = "history.db"

const (
	DefaultUnits          = "imperial"
	DefaultClimbThreshold = 2.5

	DefaultServerAddr      = ":8080"
	DefaultMaxUploadMB     = 32
	DefaultShutdownTimeout = 10 * time.Second

	DefaultSessionTTL    = 2 * time.Hour
	DefaultSweepInterval = 5 * time.Minute

	DefaultNarrativeEndpoint = "https://api-inference.huggingface.co/models"
	DefaultNarrativeModel    = "openai/gpt-oss-20b"
	DefaultNarrativeTimeout  = 30 * time.Second
	DefaultNarrativeRetries  = 3
)
