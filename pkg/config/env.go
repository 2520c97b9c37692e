package config

const (
	EnvPrefix = "LEASEDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultSQLiteDSN = "file:leasedesk-stub.db?_foreign_keys=on"
)

const (
	EnvAppEnv = "LEASEDESK_APP_ENV"
	EnvPort   = "LEASEDESK_APP_PORT"

	EnvRedisURL = "LEASEDESK_REDIS_URL"

	EnvUpstreamBaseURL     = "LEASEDESK_UPSTREAM_BASE_URL"
	EnvUpstreamTimeout     = "LEASEDESK_UPSTREAM_TIMEOUT"
	EnvUpstreamMaxAttempts = "LEASEDESK_UPSTREAM_MAX_ATTEMPTS"

	EnvJWTSecret = "LEASEDESK_JWT_SECRET"

	EnvUseSQLite = "LEASEDESK_USE_SQLITE"
	EnvDBDSN     = "LEASEDESK_DB_DSN"
	EnvDBHost    = "LEASEDESK_DB_HOST"
	EnvDBUser    = "LEASEDESK_DB_USER"
	EnvDBName    = "LEASEDESK_DB_NAME"
)

var postgresDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
