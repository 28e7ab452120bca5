package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	Logging    LoggingConfig
	LLM        LLMConfig
	History    HistoryConfig
	Tools      ToolsConfig
	Memory     MemoryConfig
}

type LoggingConfig struct {
	Level        string
	Encoding     string
	Development  bool
	EnableCaller bool
	ServiceName  string
}

// LLMConfig points at any OpenAI-compatible chat completion endpoint.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HistoryConfig selects and configures the Message Log backend.
type HistoryConfig struct {
	Backend    string
	SQLitePath string
	Postgres   PostgresConfig
	Mongo      MongoConfig
	Redis      RedisConfig
}

type PostgresConfig struct {
	DSN               string
	Host              string
	Port              int
	User              string
	Password          string
	Database          string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	URL       string
	KeyPrefix string
}

type ToolsConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenWeatherTimeout time.Duration
	GeoIPURL           string
	GeoIPTimeout       time.Duration
	FallbackCity       string
	GeocodeCacheSize   int
}

type MemoryConfig struct {
	ShortTermLimit      int
	SummarizeThreshold  int
	PersistToolTriggers bool
}

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendRedis    = "redis"
)

// envFiles are loaded in order; variables already present in the
// environment are never overridden.
var envFiles = []string{".env", "config/.env"}

func LoadConfig() (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	pgPort, _ := strconv.Atoi(envOrDefault("POSTGRES_PORT", "5432"))

	apiKey := strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}

	cfg := &Config{
		ServerPort: envOrDefault("PORT", "8080"),
		Logging: LoggingConfig{
			Level:        strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
			Encoding:     strings.ToLower(envOrDefault("LOG_ENCODING", "console")),
			Development:  parseBool(envOrDefault("LOG_DEVELOPMENT", "false"), false),
			EnableCaller: parseBool(envOrDefault("LOG_CALLER", "false"), false),
			ServiceName:  envOrDefault("SERVICE_NAME", "agentmate"),
		},
		LLM: LLMConfig{
			BaseURL: strings.TrimRight(envOrDefault("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"), "/"),
			APIKey:  apiKey,
			Model:   envOrDefault("LLM_MODEL", "gemini-2.0-flash-lite"),
			Timeout: parseDuration(envOrDefault("LLM_TIMEOUT", "30s"), 30*time.Second),
		},
		History: HistoryConfig{
			Backend:    strings.ToLower(envOrDefault("HISTORY_BACKEND", BackendSQLite)),
			SQLitePath: envOrDefault("SQLITE_PATH", "memory.db"),
			Postgres: PostgresConfig{
				DSN:               os.Getenv("POSTGRES_DSN"),
				Host:              envOrDefault("POSTGRES_HOST", "localhost"),
				Port:              pgPort,
				User:              envOrDefault("POSTGRES_USER", "postgres"),
				Password:          envOrDefault("POSTGRES_PASSWORD", "postgres"),
				Database:          envOrDefault("POSTGRES_DB", "postgres"),
				MaxConns:          parseInt32(envOrDefault("POSTGRES_MAX_CONNS", "8"), 8),
				MinConns:          parseInt32(envOrDefault("POSTGRES_MIN_CONNS", "1"), 1),
				MaxConnLifetime:   parseDuration(envOrDefault("POSTGRES_MAX_CONN_LIFETIME", "1h"), time.Hour),
				MaxConnIdleTime:   parseDuration(envOrDefault("POSTGRES_MAX_CONN_IDLE", "30m"), 30*time.Minute),
				HealthCheckPeriod: parseDuration(envOrDefault("POSTGRES_HEALTH_CHECK_PERIOD", "1m"), time.Minute),
				ConnectTimeout:    parseDuration(envOrDefault("POSTGRES_CONNECT_TIMEOUT", "5s"), 5*time.Second),
			},
			Mongo: MongoConfig{
				URI:            envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
				Database:       envOrDefault("MONGO_DATABASE", "agentmate"),
				ConnectTimeout: parseDuration(envOrDefault("MONGO_CONNECT_TIMEOUT", "5s"), 5*time.Second),
			},
			Redis: RedisConfig{
				URL:       envOrDefault("REDIS_URL", "redis://localhost:6379/0"),
				KeyPrefix: envOrDefault("REDIS_KEY_PREFIX", "agentmate:history:"),
			},
		},
		Tools: ToolsConfig{
			OpenWeatherAPIKey:  strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY")),
			OpenWeatherBaseURL: strings.TrimRight(envOrDefault("OPENWEATHER_BASE_URL", "http://api.openweathermap.org"), "/"),
			OpenWeatherTimeout: parseDuration(envOrDefault("OPENWEATHER_TIMEOUT", "5s"), 5*time.Second),
			GeoIPURL:           envOrDefault("GEOIP_URL", "https://ipapi.co/json/"),
			GeoIPTimeout:       parseDuration(envOrDefault("GEOIP_TIMEOUT", "3s"), 3*time.Second),
			FallbackCity:       envOrDefault("FALLBACK_CITY", "Bengaluru"),
			GeocodeCacheSize:   parsePositiveInt(envOrDefault("GEOCODE_CACHE_SIZE", "256"), 256),
		},
		Memory: MemoryConfig{
			ShortTermLimit:      parsePositiveInt(envOrDefault("SHORT_TERM_LIMIT", "10"), 10),
			SummarizeThreshold:  parsePositiveInt(envOrDefault("SUMMARIZE_THRESHOLD", "20"), 20),
			PersistToolTriggers: parseBool(envOrDefault("AGENT_PERSIST_TOOL_TRIGGERS", "false"), false),
		},
	}

	return cfg, nil
}

// Validate reports configuration the server cannot start without.
func (c *Config) Validate() error {
	missing := make([]string, 0, 1)
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		missing = append(missing, "LLM_API_KEY (or GEMINI_API_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch c.History.Backend {
	case BackendSQLite, BackendPostgres, BackendMongo, BackendRedis:
	default:
		return fmt.Errorf("unsupported HISTORY_BACKEND %q", c.History.Backend)
	}

	return nil
}

func (c PostgresConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

func loadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				// missing files are fine, variables can come from the environment
				continue
			}
			return err
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt32(value string, fallback int32) int32 {
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return int32(i)
}

func parsePositiveInt(value string, fallback int) int {
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || i <= 0 {
		return fallback
	}
	return i
}

func parseBool(value string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}
