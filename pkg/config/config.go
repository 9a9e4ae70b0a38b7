package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "farmgate"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FARMGATE_DB_DSN"
	EnvDBHost = "FARMGATE_DB_HOST"
	EnvDBUser = "FARMGATE_DB_USER"
	EnvDBName = "FARMGATE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Sanity        SanityConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"FARMGATE_APP_ENV" required:"true"`
	Port         string `envconfig:"FARMGATE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FARMGATE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FARMGATE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FARMGATE_DB_DSN"`
	Driver string `envconfig:"FARMGATE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FARMGATE_DB_HOST"`
	LegacyPort     int    `envconfig:"FARMGATE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FARMGATE_DB_USER"`
	LegacyPassword string `envconfig:"FARMGATE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FARMGATE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FARMGATE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FARMGATE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FARMGATE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FARMGATE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FARMGATE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FARMGATE_REDIS_URL"`
	Address      string        `envconfig:"FARMGATE_REDIS_ADDR"`
	Password     string        `envconfig:"FARMGATE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FARMGATE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FARMGATE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FARMGATE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FARMGATE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FARMGATE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FARMGATE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FARMGATE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FARMGATE_JWT_ISSUER" default:"farmgate-pos"`
	ExpirationMinutes int    `envconfig:"FARMGATE_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FARMGATE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FARMGATE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FARMGATE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FARMGATE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FARMGATE_ARGON_KEY_LEN" default:"32"`
}

// SanityConfig bounds the plausible weight of a single cage. Entries outside
// the band are rejected unless the operator overrides, which downgrades the
// check to a warning on the response.
type SanityConfig struct {
	MinWeightPerCage float64 `envconfig:"FARMGATE_SANITY_MIN_WEIGHT_PER_CAGE" default:"5"`
	MaxWeightPerCage float64 `envconfig:"FARMGATE_SANITY_MAX_WEIGHT_PER_CAGE" default:"100"`
}

// AuthRateLimitConfig throttles PIN login attempts. A four-digit PIN does not
// survive an online brute force without this.
type AuthRateLimitConfig struct {
	LoginWindow    time.Duration `envconfig:"FARMGATE_AUTH_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit   int           `envconfig:"FARMGATE_AUTH_LOGIN_IP_LIMIT" default:"30"`
	LoginNameLimit int           `envconfig:"FARMGATE_AUTH_LOGIN_NAME_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FARMGATE_AUTO_MIGRATE" default:"false"`
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
