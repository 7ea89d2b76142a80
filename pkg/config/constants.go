package config

// EnvPrefix is the envconfig namespace for all storebot variables.
const EnvPrefix = "STOREBOT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvDBDSN  = "STOREBOT_DB_DSN"
	EnvDBHost = "STOREBOT_DB_HOST"
	EnvDBUser = "STOREBOT_DB_USER"
	EnvDBName = "STOREBOT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
