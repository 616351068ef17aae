package models

import "time"

// Device is a registered sync endpoint for a user. DeviceKey is opaque to
// the server; it only identifies the device's sync channel. LastSyncAt is
// the watermark (Unix microseconds) returned by the device's last round.
type Device struct {
	ID         string
	UserID     string
	Name       string
	DeviceKey  string
	LastSyncAt int64
	CreatedAt  time.Time
}
