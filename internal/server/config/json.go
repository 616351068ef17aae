package config

import (
	"encoding/json"
	"os"

	"github.com/MoCipher/EmailAlies/internal/flagx"
	"github.com/MoCipher/EmailAlies/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "24h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	Engine                      string         `json:"engine"`
	LocalDBPath                 string         `json:"local_db_path"`
	EdgePrimaryURL              string         `json:"edge_primary_url"`
	EdgeAuthToken               string         `json:"edge_auth_token"`
	EdgeReplicaPath             string         `json:"edge_replica_path"`
	SecretKey                   string         `json:"secret_key"`
	DeviceTokenValidityDuration timex.Duration `json:"device_token_validity_duration"`
	AliasDomain                 string         `json:"alias_domain"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. Empty fields in the
// file leave the corresponding Config values untouched.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	if c.Engine != "" {
		config.Engine = c.Engine
	}
	if c.LocalDBPath != "" {
		config.LocalDBPath = c.LocalDBPath
	}
	if c.EdgePrimaryURL != "" {
		config.EdgePrimaryURL = c.EdgePrimaryURL
	}
	if c.EdgeAuthToken != "" {
		config.EdgeAuthToken = c.EdgeAuthToken
	}
	if c.EdgeReplicaPath != "" {
		config.EdgeReplicaPath = c.EdgeReplicaPath
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.DeviceTokenValidityDuration.Duration != 0 {
		config.DeviceTokenValidityDuration = c.DeviceTokenValidityDuration.Duration
	}
	if c.AliasDomain != "" {
		config.AliasDomain = c.AliasDomain
	}
}
