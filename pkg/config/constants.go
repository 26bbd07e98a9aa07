package config

const (
	EnvPrefix = "TRISTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvAppEnv   = "TRISTORE_APP_ENV"
	EnvPort     = "TRISTORE_APP_PORT"
	EnvLogLevel = "TRISTORE_LOG_LEVEL"

	EnvDBDSN  = "TRISTORE_DB_DSN"
	EnvDBHost = "TRISTORE_DB_HOST"
	EnvDBUser = "TRISTORE_DB_USER"
	EnvDBName = "TRISTORE_DB_NAME"

	EnvUseSQLite = "TRISTORE_USE_SQLITE"

	EnvRedisURL = "TRISTORE_REDIS_URL"

	EnvJWTSecret  = "TRISTORE_JWT_SECRET"
	EnvJWTIssuer  = "TRISTORE_JWT_ISSUER"
	EnvJWTExpMins = "TRISTORE_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID       = "TRISTORE_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "TRISTORE_PUBSUB_ORDERS_TOPIC"
	EnvOrdersDeliveryETA  = "TRISTORE_ORDERS_DELIVERY_ETA"
	EnvRealtimeKeepAlive  = "TRISTORE_REALTIME_KEEPALIVE"
	EnvCartCacheTTL       = "TRISTORE_CART_CACHE_TTL"
	EnvFeatureCartCaching = "TRISTORE_FEATURE_CART_CACHE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
