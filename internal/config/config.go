package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"eventify/internal/validation"
)

// PathEnvVar points at an optional YAML file layered between defaults and env.
const PathEnvVar = "CONFIG_PATH"

// Config keeps runtime settings for the API server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

type ServerConfig struct {
	Port       int    `koanf:"port" validate:"min=1,max=65535"`
	CORSOrigin string `koanf:"cors_origin" validate:"required"`
}

type DatabaseConfig struct {
	Driver    string `koanf:"driver" validate:"oneof=sqlite mysql"`
	URL       string `koanf:"url"` // sqlite file path or DSN
	Host      string `koanf:"host"`
	Port      int    `koanf:"port" validate:"min=1,max=65535"`
	User      string `koanf:"user"`
	Password  string `koanf:"password"`
	Name      string `koanf:"name"`
	PoolLimit int    `koanf:"pool_limit" validate:"min=1"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// RateLimitConfig enables per-IP limiting on /api when Requests > 0.
type RateLimitConfig struct {
	Requests int           `koanf:"requests" validate:"min=0"`
	Window   time.Duration `koanf:"window"`
}

// envKeys maps the recognized environment variables to koanf paths.
var envKeys = map[string]string{
	"PORT":                "server.port",
	"CORS_ORIGIN":         "server.cors_origin",
	"DB_DRIVER":           "database.driver",
	"DATABASE_URL":        "database.url",
	"DB_HOST":             "database.host",
	"DB_PORT":             "database.port",
	"DB_USER":             "database.user",
	"DB_PASSWORD":         "database.password",
	"DB_NAME":             "database.name",
	"DB_POOL_LIMIT":       "database.pool_limit",
	"LOG_LEVEL":           "log.level",
	"LOG_FORMAT":          "log.format",
	"RATE_LIMIT_REQUESTS": "rate_limit.requests",
	"RATE_LIMIT_WINDOW":   "rate_limit.window",
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:       8080,
			CORSOrigin: "*",
		},
		Database: DatabaseConfig{
			Driver:    "sqlite",
			URL:       "eventify.db",
			Host:      "localhost",
			Port:      3306,
			User:      "root",
			Name:      "eventify",
			PoolLimit: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			Window: time.Minute,
		},
	}
}

// Load layers defaults, the optional CONFIG_PATH file and environment variables.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := strings.TrimSpace(os.Getenv(PathEnvVar)); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Server.CORSOrigin = strings.TrimSpace(cfg.Server.CORSOrigin)

	if err := validation.Struct(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKey returns the koanf path for a recognized variable; others are skipped.
func envKey(name string) string {
	return envKeys[name]
}

// MySQLDSN builds a go-sql-driver DSN from the discrete DB_* settings.
func (c DatabaseConfig) MySQLDSN() string {
	q := url.Values{}
	q.Set("parseTime", "true")
	q.Set("charset", "utf8mb4")
	q.Set("loc", "Local")
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", c.User, c.Password, c.Host, c.Port, c.Name, q.Encode())
}
