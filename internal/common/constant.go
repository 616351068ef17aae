package common

// DeviceTokenHeaderName is the metadata key used to carry the device
// sync-channel token on inbound requests.
const DeviceTokenHeaderName = "device_token"
