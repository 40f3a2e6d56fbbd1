package config

// EnvPrefix is intentionally empty: every field names its variable explicitly.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "FIELDWORKS_DB_DSN"
	EnvDBHost = "FIELDWORKS_DB_HOST"
	EnvDBUser = "FIELDWORKS_DB_USER"
	EnvDBName = "FIELDWORKS_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
