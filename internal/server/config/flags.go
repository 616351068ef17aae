package config

import (
	"flag"
	"os"
	"time"

	"github.com/MoCipher/EmailAlies/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-e string   storage engine: "local" or "edge"
//	-d string   local database path
//	-u string   edge primary URL (libsql://...)
//	-a string   edge auth token
//	-r string   edge replica path
//	-s string   service secret key
//	-t int      device token validity, minutes
//	-m string   alias domain
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-e", "-d", "-u", "-a", "-r", "-s", "-t", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Engine, "e", config.Engine, "storage engine (local or edge)")
	fs.StringVar(&config.LocalDBPath, "d", config.LocalDBPath, "local database path")
	fs.StringVar(&config.EdgePrimaryURL, "u", config.EdgePrimaryURL, "edge primary URL")
	fs.StringVar(&config.EdgeAuthToken, "a", config.EdgeAuthToken, "edge auth token")
	fs.StringVar(&config.EdgeReplicaPath, "r", config.EdgeReplicaPath, "edge replica path")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.DeviceTokenValidityDuration.Minutes()), "device_token_validity_duration (in minutes)")

	fs.StringVar(&config.AliasDomain, "m", config.AliasDomain, "alias domain")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.DeviceTokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
}
