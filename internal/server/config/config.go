// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Engine selection values for Config.Engine.
const (
	EngineLocal = "local"
	EngineEdge  = "edge"
)

// Config holds runtime settings for the alias server.
//
// Fields:
//   - Engine: which storage engine to bind ("local" or "edge").
//   - LocalDBPath: on-disk path of the embedded database (local engine).
//   - EdgePrimaryURL / EdgeAuthToken / EdgeReplicaPath: libSQL primary URL,
//     its auth token, and the embedded-replica path (edge engine).
//   - SecretKey: service-wide secret; wraps master keys and signs device
//     tokens (HS256). Do not use test defaults in prod.
//   - DeviceTokenValidityDuration: sync-channel token lifetime.
//   - AliasDomain: domain appended to generated alias local parts.
type Config struct {
	Engine                      string
	LocalDBPath                 string
	EdgePrimaryURL              string
	EdgeAuthToken               string
	EdgeReplicaPath             string
	SecretKey                   string
	DeviceTokenValidityDuration time.Duration
	AliasDomain                 string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Engine = EngineLocal
	c.LocalDBPath = "data/aliases.db"
	c.EdgeReplicaPath = "data/replica.db"
	c.SecretKey = "secretKey"
	c.DeviceTokenValidityDuration = 24 * time.Hour
	c.AliasDomain = "mail.example"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
