package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/agency_site/internal/logging"
)

const minSecretLen = 16

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string
	LogFormat   string

	JWTSecret    []byte
	TokenTTL     time.Duration
	CookieSecure bool

	AdminName     string
	AdminEmail    string
	AdminPassword string
	BcryptCost    int

	StorageDriver string
	DatabaseURL   string

	KafkaBrokers []string
	EventBuffer  int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	CORSOrigins        []string
	CSRFEnabled        bool
	LoginRatePerMinute int
	AuditBuffer        int
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
	return FromEnv()
}

func FromEnv() *Config {
	return &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "agency-site"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),
		LogFormat:   strings.ToLower(EnvDefault("LOG_FORMAT", "json")),

		JWTSecret:    []byte(os.Getenv("JWT_SECRET")),
		TokenTTL:     EnvDurationDefault("TOKEN_TTL", 24*time.Hour),
		CookieSecure: EnvBoolDefault("COOKIE_SECURE", true),

		AdminName:     EnvDefault("ADMIN_NAME", "Administrator"),
		AdminEmail:    EnvDefault("ADMIN_EMAIL", "admin@agency.local"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		BcryptCost:    EnvIntDefault("BCRYPT_COST", 0),

		StorageDriver: strings.ToLower(EnvDefault("STORAGE_DRIVER", "memory")),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		EventBuffer:  EnvIntDefault("EVENT_BUFFER", 1024),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "catalog"),

		CORSOrigins:        CSV(os.Getenv("CORS_ORIGINS")),
		CSRFEnabled:        EnvBoolDefault("CSRF_ENABLED", false),
		LoginRatePerMinute: EnvIntDefault("LOGIN_RATE_PER_MINUTE", 10),
		AuditBuffer:        EnvIntDefault("AUDIT_BUFFER", 256),
	}
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) == 0 {
		errs = append(errs, errors.New("missing required env JWT_SECRET"))
	} else if len(c.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen))
	}
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("missing required env ADMIN_PASSWORD"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if !logging.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat))
	}
	switch c.StorageDriver {
	case "memory":
	case "sqlite", "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for storage driver %q", c.StorageDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
