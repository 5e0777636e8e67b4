package config

const EnvPrefix = "BACKOFFICE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:backoffice.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv   = "BACKOFFICE_APP_ENV"
	EnvPort     = "BACKOFFICE_APP_PORT"
	EnvLogLevel = "BACKOFFICE_LOG_LEVEL"

	EnvDBDSN     = "BACKOFFICE_DB_DSN"
	EnvDBDriver  = "BACKOFFICE_DB_DRIVER"
	EnvDBHost    = "BACKOFFICE_DB_HOST"
	EnvDBUser    = "BACKOFFICE_DB_USER"
	EnvDBName    = "BACKOFFICE_DB_NAME"
	EnvUseSQLite = "BACKOFFICE_USE_SQLITE"

	EnvRedisURL = "BACKOFFICE_REDIS_URL"

	EnvJWTSecret  = "BACKOFFICE_JWT_SECRET"
	EnvJWTIssuer  = "BACKOFFICE_JWT_ISSUER"
	EnvJWTExpMins = "BACKOFFICE_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "BACKOFFICE_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic    = "BACKOFFICE_PUBSUB_ORDERS_TOPIC"
	EnvPubSubInventoryTopic = "BACKOFFICE_PUBSUB_INVENTORY_TOPIC"

	EnvPricingFreeChannels = "BACKOFFICE_PRICING_FREE_SHIPPING_CHANNELS"
	EnvAutomationMode      = "BACKOFFICE_AUTOMATION_MODE"
	EnvReconMinAge         = "BACKOFFICE_RECONCILIATION_MIN_AGE_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
