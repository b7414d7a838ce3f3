package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	WOM        WOMConfig
	StatsCache StatsCacheConfig
	Claims     ClaimsConfig
	Sync       SyncConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// WOMConfig points at the character statistics service.
type WOMConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	APIKey    string
	GroupID   int
}

// StatsCacheConfig controls caching of upstream player payloads.
type StatsCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ClaimsConfig tunes claim code issuance.
type ClaimsConfig struct {
	DefaultExpiryDays int
}

// SyncConfig governs the background goal synchronizer and roster refresh.
type SyncConfig struct {
	Enabled               bool
	GoalSchedule          string
	RosterRefreshSchedule string
	Workers               int
	Retries               int
	RetryDelay            time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.WOM = WOMConfig{
		BaseURL:   strings.TrimRight(v.GetString("WOM_BASE_URL"), "/"),
		Timeout:   parseDuration(v.GetString("WOM_TIMEOUT"), 10*time.Second),
		UserAgent: v.GetString("WOM_USER_AGENT"),
		APIKey:    v.GetString("WOM_API_KEY"),
		GroupID:   v.GetInt("WOM_GROUP_ID"),
	}

	cfg.StatsCache = StatsCacheConfig{
		Enabled: v.GetBool("ENABLE_STATS_CACHE"),
		TTL:     parseDuration(v.GetString("STATS_CACHE_TTL"), 5*time.Minute),
	}

	expiry := v.GetInt("CLAIM_CODE_DEFAULT_EXPIRY_DAYS")
	if expiry < 0 {
		expiry = 0
	}
	cfg.Claims = ClaimsConfig{DefaultExpiryDays: expiry}

	cfg.Sync = SyncConfig{
		Enabled:               v.GetBool("ENABLE_GOAL_SYNC"),
		GoalSchedule:          v.GetString("GOAL_SYNC_SCHEDULE"),
		RosterRefreshSchedule: v.GetString("ROSTER_REFRESH_SCHEDULE"),
		Workers:               v.GetInt("SYNC_WORKERS"),
		Retries:               v.GetInt("SYNC_RETRIES"),
		RetryDelay:            parseDuration(v.GetString("SYNC_RETRY_DELAY"), 30*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "siege_clan")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "siege-clan-tracker")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("WOM_BASE_URL", "https://api.wiseoldman.net/v2")
	v.SetDefault("WOM_TIMEOUT", "10s")
	v.SetDefault("WOM_USER_AGENT", "siege-clan-tracker")
	v.SetDefault("WOM_API_KEY", "")
	v.SetDefault("WOM_GROUP_ID", 0)

	v.SetDefault("ENABLE_STATS_CACHE", false)
	v.SetDefault("STATS_CACHE_TTL", "5m")

	v.SetDefault("CLAIM_CODE_DEFAULT_EXPIRY_DAYS", 7)

	v.SetDefault("ENABLE_GOAL_SYNC", false)
	v.SetDefault("GOAL_SYNC_SCHEDULE", "@every 6h")
	v.SetDefault("ROSTER_REFRESH_SCHEDULE", "@daily")
	v.SetDefault("SYNC_WORKERS", 2)
	v.SetDefault("SYNC_RETRIES", 2)
	v.SetDefault("SYNC_RETRY_DELAY", "30s")
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
