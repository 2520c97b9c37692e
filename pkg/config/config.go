package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Upstream     UpstreamConfig
	Cache        CacheConfig
	InFlight     InFlightConfig
	JWT          JWTConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
	RecordStub   RecordStubConfig
	HTTP         HTTPConfig
}

// Load reads the API configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validateAPI(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadRecordStub reads the configuration used by the local system-of-record stand-in.
// Upstream and JWT settings are not required there.
func LoadRecordStub() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validateAPI() error {
	var err error
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		err = multierr.Append(err, fmt.Errorf("%s is required", EnvUpstreamBaseURL))
	} else if _, parseErr := url.ParseRequestURI(c.Upstream.BaseURL); parseErr != nil {
		err = multierr.Append(err, fmt.Errorf("%s is not a valid url: %w", EnvUpstreamBaseURL, parseErr))
	}
	if c.Upstream.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvUpstreamTimeout))
	}
	if c.Upstream.MaxAttempts < 1 {
		err = multierr.Append(err, fmt.Errorf("%s must be at least 1", EnvUpstreamMaxAttempts))
	}
	if c.JWT.Secret == "" {
		err = multierr.Append(err, fmt.Errorf("%s is required", EnvJWTSecret))
	}
	if c.InFlight.TTL <= 0 {
		err = multierr.Append(err, errors.New("in-flight marker ttl must be positive"))
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"LEASEDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"LEASEDESK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LEASEDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEASEDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RedisConfig is optional for the API: without a URL or address the service falls back to
// process-local markers and a local-only cache.
type RedisConfig struct {
	URL          string        `envconfig:"LEASEDESK_REDIS_URL"`
	Address      string        `envconfig:"LEASEDESK_REDIS_ADDR"`
	Password     string        `envconfig:"LEASEDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEASEDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEASEDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEASEDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEASEDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEASEDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEASEDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// UpstreamConfig points at the remote system of record.
type UpstreamConfig struct {
	BaseURL      string        `envconfig:"LEASEDESK_UPSTREAM_BASE_URL"`
	APIToken     string        `envconfig:"LEASEDESK_UPSTREAM_API_TOKEN"`
	Timeout      time.Duration `envconfig:"LEASEDESK_UPSTREAM_TIMEOUT" default:"10s"`
	MaxAttempts  int           `envconfig:"LEASEDESK_UPSTREAM_MAX_ATTEMPTS" default:"3"`
	BaseDelay    time.Duration `envconfig:"LEASEDESK_UPSTREAM_BASE_DELAY" default:"200ms"`
	MaxDelay     time.Duration `envconfig:"LEASEDESK_UPSTREAM_MAX_DELAY" default:"3s"`
	MutationWait time.Duration `envconfig:"LEASEDESK_UPSTREAM_MUTATION_WAIT" default:"30s"`
}

type CacheConfig struct {
	SnapshotTTL    time.Duration `envconfig:"LEASEDESK_CACHE_SNAPSHOT_TTL" default:"30s"`
	LocalSize      int           `envconfig:"LEASEDESK_CACHE_LOCAL_SIZE" default:"1024"`
	LocalTTL       time.Duration `envconfig:"LEASEDESK_CACHE_LOCAL_TTL" default:"10s"`
	DisableCaching bool          `envconfig:"LEASEDESK_CACHE_DISABLED" default:"false"`
}

type InFlightConfig struct {
	TTL time.Duration `envconfig:"LEASEDESK_INFLIGHT_TTL" default:"2m"`
}

type JWTConfig struct {
	Secret string `envconfig:"LEASEDESK_JWT_SECRET"`
	Issuer string `envconfig:"LEASEDESK_JWT_ISSUER" default:"leasedesk"`
	// ExpirationMinutes only matters for locally minted tokens (tests, tooling).
	ExpirationMinutes int `envconfig:"LEASEDESK_JWT_EXPIRATION_MINUTES" default:"60"`
}

type DBConfig struct {
	DSN    string `envconfig:"LEASEDESK_DB_DSN"`
	Driver string `envconfig:"LEASEDESK_DB_DRIVER" default:"sqlite"`

	Host     string `envconfig:"LEASEDESK_DB_HOST"`
	Port     int    `envconfig:"LEASEDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"LEASEDESK_DB_USER"`
	Password string `envconfig:"LEASEDESK_DB_PASSWORD"`
	Name     string `envconfig:"LEASEDESK_DB_NAME"`
	SSLMode  string `envconfig:"LEASEDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEASEDESK_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"LEASEDESK_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"LEASEDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
}

// IsSQLite reports whether the stub should open SQLite instead of Postgres.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

// HTTPConfig controls the console-facing surface. RateLimitMutations caps mutating requests per
// operator per window; zero disables it.
type HTTPConfig struct {
	CORSOrigins        []string      `envconfig:"LEASEDESK_CORS_ORIGINS" default:"http://localhost:3000"`
	RateLimitWindow    time.Duration `envconfig:"LEASEDESK_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitMutations int           `envconfig:"LEASEDESK_RATE_LIMIT_MUTATIONS" default:"60"`
	ReadTimeout        time.Duration `envconfig:"LEASEDESK_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout       time.Duration `envconfig:"LEASEDESK_HTTP_WRITE_TIMEOUT" default:"45s"`
	ShutdownTimeout    time.Duration `envconfig:"LEASEDESK_HTTP_SHUTDOWN_TIMEOUT" default:"20s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LEASEDESK_USE_SQLITE" default:"true"`
	AutoMigrate bool `envconfig:"LEASEDESK_AUTO_MIGRATE" default:"true"`
}

type RecordStubConfig struct {
	Port      string `envconfig:"LEASEDESK_STUB_PORT" default:"8090"`
	SeedCount int    `envconfig:"LEASEDESK_STUB_SEED_COUNT" default:"0"`
	SeedValue int64  `envconfig:"LEASEDESK_STUB_SEED" default:"42"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = DefaultSQLiteDSN
		}
		return nil
	}
	db.Driver = DriverPostgres
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range postgresDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}
	db.DSN = u.String()
	return nil
}
