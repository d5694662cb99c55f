package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Sardor-M/p-website-backend/errs"
)

const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

type Config struct {
	Env             string   `env:"NODE_ENV" env-default:"development"`
	Port            string   `env:"PORT" env-default:"3000"`
	StoreBackend    string   `env:"STORE_BACKEND" env-default:"postgres"`
	LogLevel        string   `env:"LOG_LEVEL" env-default:"info"`
	AcceptedOrigins []string `env:"ACCEPTED_ORIGINS" env-separator:"," env-default:"https://sardor-m.dev"`
	TrustProxy      bool     `env:"TRUST_PROXY" env-default:"false"`
	CSRFSecret      string   `env:"CSRF_SECRET"`

	Server    ServerConfig
	DB        DBConfig
	Firebase  FirebaseConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	ReadTimeoutSeconds  int `env:"READ_TIMEOUT_SECONDS" env-default:"180"`
	WriteTimeoutSeconds int `env:"WRITE_TIMEOUT_SECONDS" env-default:"180"`
	IdleTimeoutSeconds  int `env:"IDLE_TIMEOUT_SECONDS" env-default:"180"`
	ShutdownSeconds     int `env:"SHUTDOWN_TIMEOUT_SECONDS" env-default:"30"`
}

type DBConfig struct {
	URL          string   `env:"DATABASE_URL"`
	Host         string   `env:"DB_HOST" env-default:"localhost"`
	Port         uint16   `env:"DB_PORT" env-default:"5432"`
	User         string   `env:"DB_USERNAME" env-default:"postgres"`
	Password     string   `env:"DB_PASSWORD"`
	Name         string   `env:"DB_DATABASE" env-default:"blog"`
	SSLMode      string   `env:"DB_SSLMODE"`
	ReplicaURLs  []string `env:"DATABASE_REPLICA_URLS" env-separator:","`
	MaxOpenConns int      `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
}

type FirebaseConfig struct {
	ServiceAccount     string        `env:"FIREBASE_SERVICE_ACCOUNT"`
	ServiceAccountPath string        `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
	RawConfig          string        `env:"FIREBASE_CONFIG"`
	ProjectID          string        `env:"FIREBASE_PROJECT_ID"`
	ClientEmail        string        `env:"FIREBASE_CLIENT_EMAIL"`
	PrivateKey         string        `env:"FIREBASE_PRIVATE_KEY"`
	FallbackProjectID  string        `env:"FIREBASE_FALLBACK_PROJECT_ID" env-default:"demo-blog"`
	RetryAttempts      int           `env:"FIREBASE_RETRY_ATTEMPTS" env-default:"5"`
	RetryBase          time.Duration `env:"FIREBASE_RETRY_BASE" env-default:"1s"`
}

type RateLimitConfig struct {
	Points         int           `env:"RATE_LIMIT_POINTS" env-default:"10"`
	Duration       time.Duration `env:"RATE_LIMIT_DURATION" env-default:"50s"`
	GlobalPoints   int           `env:"GLOBAL_RATE_LIMIT_POINTS" env-default:"10"`
	GlobalDuration time.Duration `env:"GLOBAL_RATE_LIMIT_DURATION" env-default:"60s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, errs.NewConfigInvalidError("environment", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres, BackendFirestore, BackendMemory:
	default:
		return errs.NewConfigInvalidError("STORE_BACKEND", fmt.Errorf("unknown backend %q", c.StoreBackend))
	}
	if c.RateLimit.Points < 1 || c.RateLimit.Duration <= 0 {
		return errs.NewConfigInvalidError("RATE_LIMIT_POINTS", fmt.Errorf("rate limit must allow at least one request per positive window"))
	}
	if c.Firebase.RetryAttempts < 1 {
		return errs.NewConfigInvalidError("FIREBASE_RETRY_ATTEMPTS", fmt.Errorf("must be at least 1"))
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c Config) Address() string {
	return fmt.Sprintf("0.0.0.0:%s", c.Port)
}

// DSN returns DATABASE_URL when set, otherwise a key/value connection string
// assembled from the discrete fields. Production requires SSL unless
// DB_SSLMODE says otherwise. The session time zone is pinned to UTC.
func (c Config) DSN() string {
	if c.DB.URL != "" {
		return withUTC(c.DB.URL)
	}
	sslMode := c.DB.SSLMode
	if sslMode == "" {
		sslMode = "disable"
		if c.IsProduction() {
			sslMode = "require"
		}
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		c.DB.Host, c.DB.User, c.DB.Password, c.DB.Name, c.DB.Port, sslMode)
}

// ReplicaDSNs returns DATABASE_REPLICA_URLS with the same UTC pin as DSN.
func (c Config) ReplicaDSNs() []string {
	dsns := make([]string, 0, len(c.DB.ReplicaURLs))
	for _, dsn := range c.DB.ReplicaURLs {
		dsns = append(dsns, withUTC(dsn))
	}
	return dsns
}

// withUTC adds timezone=UTC to a connection URL or key/value string that
// does not already choose a zone.
func withUTC(dsn string) string {
	if strings.Contains(strings.ToLower(dsn), "timezone=") {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return dsn + " TimeZone=UTC"
	}
	q := u.Query()
	q.Set("timezone", "UTC")
	u.RawQuery = q.Encode()
	return u.String()
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownSeconds) * time.Second
}
