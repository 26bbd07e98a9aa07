package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Orders       OrdersConfig
	Realtime     RealtimeConfig
	CartCache    CartCacheConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TRISTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"TRISTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRISTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRISTORE_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"TRISTORE_LOG_FORMAT" default:"json"`

	// comma separated
	CORSAllowedOrigins []string `envconfig:"TRISTORE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TRISTORE_DB_DSN"`
	Driver string `envconfig:"TRISTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRISTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"TRISTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRISTORE_DB_USER"`
	LegacyPassword string `envconfig:"TRISTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRISTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRISTORE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"TRISTORE_SQLITE_PATH" default:"tristore.db"`

	MaxOpenConns    int           `envconfig:"TRISTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRISTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRISTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRISTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the connection targets the local SQLite file.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"TRISTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRISTORE_REDIS_ADDR"`
	Password     string        `envconfig:"TRISTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRISTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRISTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRISTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRISTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRISTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRISTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TRISTORE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRISTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TRISTORE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TRISTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TRISTORE_AUTO_MIGRATE" default:"false"`
	CartCache   bool `envconfig:"TRISTORE_FEATURE_CART_CACHE" default:"true"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"TRISTORE_GCP_PROJECT_ID"`
	// empty means application default credentials
	CredentialsFile string `envconfig:"TRISTORE_GCP_CREDENTIALS_FILE"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"TRISTORE_PUBSUB_ORDERS_TOPIC"`
	Endpoint    string `envconfig:"TRISTORE_PUBSUB_ENDPOINT"`
}

// Enabled reports whether order events should also leave the box through Pub/Sub.
func (p PubSubConfig) Enabled(gcp GCPConfig) bool {
	return strings.TrimSpace(p.OrdersTopic) != "" && strings.TrimSpace(gcp.ProjectID) != ""
}

type OrdersConfig struct {
	DeliveryETA time.Duration `envconfig:"TRISTORE_ORDERS_DELIVERY_ETA" default:"1h"`
}

type RealtimeConfig struct {
	KeepAlive time.Duration `envconfig:"TRISTORE_REALTIME_KEEPALIVE" default:"25s"`
}

type CartCacheConfig struct {
	TTL time.Duration `envconfig:"TRISTORE_CART_CACHE_TTL" default:"15m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.IsSQLite() {
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
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
