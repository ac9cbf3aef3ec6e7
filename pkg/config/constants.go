package config

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "checkout"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
