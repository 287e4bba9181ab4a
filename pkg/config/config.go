package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ADSPOT_APP_ENV" required:"true"`
	Port         string `envconfig:"ADSPOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ADSPOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ADSPOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ADSPOT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ADSPOT_DB_DSN"`
	Driver string `envconfig:"ADSPOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ADSPOT_DB_HOST"`
	LegacyPort     int    `envconfig:"ADSPOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ADSPOT_DB_USER"`
	LegacyPassword string `envconfig:"ADSPOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"ADSPOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"ADSPOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ADSPOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ADSPOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ADSPOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ADSPOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ADSPOT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ADSPOT_REDIS_ADDR"`
	Password     string        `envconfig:"ADSPOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"ADSPOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ADSPOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ADSPOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ADSPOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ADSPOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ADSPOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ADSPOT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ADSPOT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ADSPOT_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// SessionTTL returns how long issued sessions stay valid.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ADSPOT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ADSPOT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ADSPOT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ADSPOT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ADSPOT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"ADSPOT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"15m"`
	LoginEmailLimit int           `envconfig:"ADSPOT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"ADSPOT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	BlockDuration   time.Duration `envconfig:"ADSPOT_AUTH_RATE_LIMIT_BLOCK_DURATION" default:"15m"`
	FailOpen        bool          `envconfig:"ADSPOT_AUTH_RATE_LIMIT_FAIL_OPEN" default:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ADSPOT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ADSPOT_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"ADSPOT_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ADSPOT_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"ADSPOT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ADSPOT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"ADSPOT_PUBSUB_NOTIFICATION_TOPIC" default:"adspot-notification-events"`
	NotificationSubscription string `envconfig:"ADSPOT_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
	DomainTopic              string `envconfig:"ADSPOT_PUBSUB_DOMAIN_TOPIC" default:"adspot-domain-events"`
	DomainSubscription       string `envconfig:"ADSPOT_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ADSPOT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ADSPOT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ADSPOT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
