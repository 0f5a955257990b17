package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Store     StoreConfig
	Dedup     DedupConfig
	Dashboard DashboardConfig
	Status    StatusConfig
	Log       LogConfig
	HTTP      HTTPConfig
}

type AppConfig struct {
	Env    string
	Port   string
	Domain string
}

// IsProduction mirrors the GO_ENV switch used for secure cookies.
func (a AppConfig) IsProduction() bool { return a.Env == "production" }

type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// StoreConfig selects the issue store.
type StoreConfig struct {
	Driver       string // mongo, memory
	PollInterval time.Duration
	WriteTimeout time.Duration
}

// DedupConfig controls the last-submission ledger.
type DedupConfig struct {
	Driver    string // redis, memory
	KeyPrefix string
	TTL       time.Duration
}

type DashboardConfig struct {
	PageSize       int
	MapRecentLimit int
}

type StatusConfig struct {
	StrictTransitions bool
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
	CORSAllowOrigins []string
}

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
	DedupDriverRedis  = "redis"
	DedupDriverMemory = "memory"
)

// envKeys maps config keys to the environment variables that set them.
var envKeys = map[string]string{
	"app.env":                    "GO_ENV",
	"app.port":                   "PORT",
	"app.domain":                 "DOMAIN",
	"mongo.uri":                  "MONGODB_URI",
	"mongo.database":             "MONGODB_DATABASE",
	"mongo.collection":           "MONGODB_COLLECTION",
	"redis.address":              "REDIS_ADDRESS",
	"redis.password":             "REDIS_PASSWORD",
	"redis.db":                   "REDIS_DB",
	"store.driver":               "STORE_DRIVER",
	"store.poll_interval":        "STORE_POLL_INTERVAL",
	"store.write_timeout":        "STORE_WRITE_TIMEOUT",
	"dedup.driver":               "DEDUP_DRIVER",
	"dedup.key_prefix":           "DEDUP_KEY_PREFIX",
	"dedup.ttl":                  "DEDUP_TTL",
	"dashboard.page_size":        "DASHBOARD_PAGE_SIZE",
	"dashboard.map_recent_limit": "MAP_RECENT_LIMIT",
	"status.strict_transitions":  "STRICT_STATUS_TRANSITIONS",
	"log.level":                  "LOG_LEVEL",
	"log.format":                 "LOG_FORMAT",
	"http.cors_allow_origins":    "CORS_ALLOW_ORIGINS",
	"http.shutdown_timeout":      "HTTP_SHUTDOWN_TIMEOUT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("mongo.database", "nairobify")
	v.SetDefault("mongo.collection", "issues")
	v.SetDefault("mongo.connect_timeout", 10*time.Second)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("store.driver", StoreDriverMongo)
	v.SetDefault("store.poll_interval", 5*time.Second)
	v.SetDefault("store.write_timeout", 10*time.Second)
	v.SetDefault("dedup.driver", DedupDriverRedis)
	v.SetDefault("dedup.key_prefix", "issue:last-fingerprint")
	v.SetDefault("dedup.ttl", 0)
	v.SetDefault("dashboard.page_size", 10)
	v.SetDefault("dashboard.map_recent_limit", 10)
	v.SetDefault("status.strict_transitions", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 0)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.cors_allow_origins", []string{"http://localhost:3000"})
}

// Load builds the configuration from the environment over built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Env:    v.GetString("app.env"),
			Port:   v.GetString("app.port"),
			Domain: v.GetString("app.domain"),
		},
		Mongo: MongoConfig{
			URI:            v.GetString("mongo.uri"),
			Database:       v.GetString("mongo.database"),
			Collection:     v.GetString("mongo.collection"),
			ConnectTimeout: v.GetDuration("mongo.connect_timeout"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Store: StoreConfig{
			Driver:       strings.ToLower(v.GetString("store.driver")),
			PollInterval: v.GetDuration("store.poll_interval"),
			WriteTimeout: v.GetDuration("store.write_timeout"),
		},
		Dedup: DedupConfig{
			Driver:    strings.ToLower(v.GetString("dedup.driver")),
			KeyPrefix: v.GetString("dedup.key_prefix"),
			TTL:       v.GetDuration("dedup.ttl"),
		},
		Dashboard: DashboardConfig{
			PageSize:       v.GetInt("dashboard.page_size"),
			MapRecentLimit: v.GetInt("dashboard.map_recent_limit"),
		},
		Status: StatusConfig{
			StrictTransitions: v.GetBool("status.strict_transitions"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			CORSAllowOrigins: splitList(v.GetStringSlice("http.cors_allow_origins")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreDriverMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required when STORE_DRIVER is mongo"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	switch c.Dedup.Driver {
	case DedupDriverRedis:
		if c.Redis.Address == "" {
			errs = append(errs, errors.New("REDIS_ADDRESS is required when DEDUP_DRIVER is redis"))
		}
	case DedupDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DEDUP_DRIVER %q", c.Dedup.Driver))
	}

	if c.Dashboard.PageSize < 1 {
		errs = append(errs, fmt.Errorf("DASHBOARD_PAGE_SIZE must be positive, got %d", c.Dashboard.PageSize))
	}
	if c.Dashboard.MapRecentLimit < 1 {
		errs = append(errs, fmt.Errorf("MAP_RECENT_LIMIT must be positive, got %d", c.Dashboard.MapRecentLimit))
	}
	if c.Store.PollInterval <= 0 {
		errs = append(errs, errors.New("STORE_POLL_INTERVAL must be positive"))
	}
	if c.Store.WriteTimeout <= 0 {
		errs = append(errs, errors.New("STORE_WRITE_TIMEOUT must be positive"))
	}
	if c.Dedup.TTL < 0 {
		errs = append(errs, errors.New("DEDUP_TTL must not be negative"))
	}

	return errors.Join(errs...)
}

// Env values arrive as one comma separated string.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
