package constants

const AppName = "courier"

// define client->proxy protocol constants
const (
	ProtocolRequestIDKey   = "X-Request-ID"
	ProtocolCacheStatusKey = "X-Cache"

	PurgeTypeKey = "Purge-Type"
)
