package constants

const (
	AppName = "physio"

	ConfigName   = "config"
	ConfigFormat = "yaml"

	// EnvPrefix is prepended to every environment override, e.g. PHYSIO_DATABASE_HOST.
	EnvPrefix = "PHYSIO"

	// SubjectPrefix namespaces every NATS subject published by the service.
	SubjectPrefix = "physio"
)
