package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Simulation storage backends.
const (
	StorageRedis  = "redis"
	StorageFile   = "file"
	StorageMemory = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream   UpstreamConfig
	Redis      RedisConfig
	Simulation SimulationConfig
	Calendar   CalendarConfig
	Catalog    CatalogConfig
	Export     ExportConfig
	CORS       CORSConfig
	Log        LogConfig
}

// UpstreamConfig points at the public course crawler dataset.
type UpstreamConfig struct {
	BaseURL string
	System  string
	Timeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SimulationConfig controls where what-if schedules are persisted.
type SimulationConfig struct {
	Storage   string
	FileDir   string
	KeyPrefix string
}

// CalendarConfig selects the campus calendar source. When ICSURL is set the
// calendar is parsed from a raw ICS feed instead of the upstream JSON.
type CalendarConfig struct {
	ICSURL string
}

// CatalogConfig tunes upstream payload caching and the background refresh.
type CatalogConfig struct {
	CacheTTL       time.Duration
	RefreshSpec    string
	WarmupSemester string
	PeriodsFile    string
}

// ExportConfig gates timetable export endpoints.
type ExportConfig struct {
	Enabled bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		BaseURL: strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/") + "/",
		System:  v.GetString("UPSTREAM_SYSTEM"),
		Timeout: parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 15*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Simulation = SimulationConfig{
		Storage:   v.GetString("SIMULATION_STORAGE"),
		FileDir:   v.GetString("SIMULATION_FILE_DIR"),
		KeyPrefix: v.GetString("SIMULATION_KEY_PREFIX"),
	}

	cfg.Calendar = CalendarConfig{
		ICSURL: v.GetString("CALENDAR_ICS_URL"),
	}

	cfg.Catalog = CatalogConfig{
		CacheTTL:       parseDuration(v.GetString("CATALOG_CACHE_TTL"), 30*time.Minute),
		RefreshSpec:    v.GetString("CATALOG_REFRESH_CRON"),
		WarmupSemester: v.GetString("CATALOG_WARMUP_SEMESTER"),
		PeriodsFile:    v.GetString("CATALOG_PERIODS_FILE"),
	}

	cfg.Export = ExportConfig{Enabled: v.GetBool("ENABLE_EXPORT")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("UPSTREAM_BASE_URL", "https://gnehs.github.io/ntut-course-crawler-node/")
	v.SetDefault("UPSTREAM_SYSTEM", "main")
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SIMULATION_STORAGE", StorageFile)
	v.SetDefault("SIMULATION_FILE_DIR", "./simulation")
	v.SetDefault("SIMULATION_KEY_PREFIX", "simulation")

	v.SetDefault("CALENDAR_ICS_URL", "")

	v.SetDefault("CATALOG_CACHE_TTL", "30m")
	v.SetDefault("CATALOG_REFRESH_CRON", "")
	v.SetDefault("CATALOG_WARMUP_SEMESTER", "")
	v.SetDefault("CATALOG_PERIODS_FILE", "")

	v.SetDefault("ENABLE_EXPORT", true)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
