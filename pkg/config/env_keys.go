package config

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = "ADSPOT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names, kept in one place so tests and deploy tooling
// reference the same strings as the struct tags.
const (
	EnvAppEnv   = "ADSPOT_APP_ENV"
	EnvPort     = "ADSPOT_APP_PORT"
	EnvLogLevel = "ADSPOT_LOG_LEVEL"

	EnvDBDSN  = "ADSPOT_DB_DSN"
	EnvDBHost = "ADSPOT_DB_HOST"
	EnvDBUser = "ADSPOT_DB_USER"
	EnvDBName = "ADSPOT_DB_NAME"

	EnvRedisURL = "ADSPOT_REDIS_URL"

	EnvJWTSecret  = "ADSPOT_JWT_SECRET"
	EnvJWTIssuer  = "ADSPOT_JWT_ISSUER"
	EnvJWTExpMins = "ADSPOT_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "ADSPOT_GCP_PROJECT_ID"

	EnvPubSubNotificationTopic = "ADSPOT_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "ADSPOT_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvPubSubDomainTopic       = "ADSPOT_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub         = "ADSPOT_PUBSUB_DOMAIN_SUBSCRIPTION"
)

// legacyDBEnvVars are required when no DSN is provided.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
