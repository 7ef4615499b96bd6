package config

import (
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for StaySync
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Engine    EngineConfig    `yaml:"engine"`
	Mapping   MappingConfig   `yaml:"mapping"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
	JWTSecret   string `yaml:"jwt_secret"`
}

// DatabaseConfig holds warehouse connection configuration. An empty URL
// with an embedded path serves a local SQLite extract; an empty URL without
// one runs the service over empty in-memory sources.
type DatabaseConfig struct {
	URL           string   `yaml:"url"`
	EmbeddedPath  string   `yaml:"embedded_path"`
	ExcludedUnits []string `yaml:"excluded_units"`
}

// RedisConfig holds report cache configuration
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// EngineConfig holds the reconciliation rule parameters. The eligibility
// threshold is a pointer so an explicit zero ("at least one criterion")
// stays distinguishable from an unset field.
type EngineConfig struct {
	ValidationWindowDays int      `yaml:"validation_window_days"`
	CreationLookbackDays int      `yaml:"creation_lookback_days"`
	EligibilityThreshold *int     `yaml:"eligibility_threshold"`
	Boilerplate          []string `yaml:"boilerplate"`
}

// MappingConfig holds the specialty mapping file configuration
type MappingConfig struct {
	Path      string `yaml:"path"`
	Separator string `yaml:"separator"`
}

// SeparatorRune returns the mapping file field separator as a rune,
// defaulting to ';' when unset or undecodable
func (m MappingConfig) SeparatorRune() rune {
	r, _ := utf8.DecodeRuneInString(m.Separator)
	if r == utf8.RuneError {
		return ';'
	}
	return r
}

// SchedulerConfig holds the monthly report scheduler configuration
type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
	// DayOfMonth is the day the previous month's report is generated
	DayOfMonth int `yaml:"day_of_month"`
}

// NotifyConfig holds report notification configuration
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnvInt("PORT", 3010),
			Environment: getEnv("ENVIRONMENT", "development"),
			JWTSecret:   getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			URL:           getEnv("DATABASE_URL", ""),
			EmbeddedPath:  getEnv("EMBEDDED_DB_PATH", ""),
			ExcludedUnits: getEnvList("EXCLUDED_UNITS"),
		},
		Redis: RedisConfig{
			Host:    getEnv("REDIS_HOST", "localhost"),
			Port:    getEnvInt("REDIS_PORT", 6379),
			DB:      getEnvInt("REDIS_DB", 0),
			Enabled: getEnvBool("REDIS_ENABLED", false),
		},
		Engine: EngineConfig{
			ValidationWindowDays: getEnvInt("VALIDATION_WINDOW_DAYS", 3),
			CreationLookbackDays: getEnvInt("CREATION_LOOKBACK_DAYS", 5),
			EligibilityThreshold: getEnvIntPtr("ELIGIBILITY_THRESHOLD"),
		},
		Mapping: MappingConfig{
			Path:      getEnv("MAPPING_PATH", ""),
			Separator: getEnv("MAPPING_SEPARATOR", ";"),
		},
		Scheduler: SchedulerConfig{
			Enabled:    getEnvBool("SCHEDULER_ENABLED", false),
			DayOfMonth: getEnvInt("SCHEDULER_DAY_OF_MONTH", 1),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvIntPtr returns nil when the variable is unset or unparseable, so
// zero remains a usable value
func getEnvIntPtr(key string) *int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return &i
		}
	}
	return nil
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
