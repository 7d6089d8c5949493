package config

// EnvPrefix is handed to envconfig.Process; individual fields carry
// explicit BAZAAR_* names so the prefix only matters for unannotated
// fields.
const EnvPrefix = "bazaar"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv = "BAZAAR_APP_ENV"
	EnvDBDSN  = "BAZAAR_DB_DSN"
	EnvDBHost = "BAZAAR_DB_HOST"
	EnvDBUser = "BAZAAR_DB_USER"
	EnvDBName = "BAZAAR_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
