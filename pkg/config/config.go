package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store drivers supported for the state repository.
const (
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
	StoreDriverNone     = "none"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Store    StoreConfig
	CORS     CORSConfig
	Log      LogConfig
	Feed     FeedConfig
	Policy   PolicyConfig
	Metrics  MetricsConfig
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

// StoreConfig selects where the app snapshot is persisted.
type StoreConfig struct {
	Driver    string
	KeyPrefix string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// FeedConfig points at the upstream attendance feed.
type FeedConfig struct {
	URL                string
	Token              string
	Timeout            time.Duration
	MinRefreshInterval time.Duration
	RefreshOnStart     bool
}

// PolicyConfig carries institution specific tuning for budgets and scheduling.
type PolicyConfig struct {
	BunksPerCredit        int
	BaseBunks             int
	LabThresholdMinutes   int
	StartToleranceMinutes int
	Timezone              string
	CreditTable           map[string]int
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

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

	cfg.Store = StoreConfig{
		Driver:    strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		KeyPrefix: v.GetString("STORE_KEY_PREFIX"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Feed = FeedConfig{
		URL:                v.GetString("FEED_URL"),
		Token:              v.GetString("FEED_TOKEN"),
		Timeout:            parseDuration(v.GetString("FEED_TIMEOUT"), 20*time.Second),
		MinRefreshInterval: parseDuration(v.GetString("FEED_MIN_REFRESH_INTERVAL"), 30*time.Second),
		RefreshOnStart:     v.GetBool("REFRESH_ON_START"),
	}

	cfg.Policy = PolicyConfig{
		BunksPerCredit:        v.GetInt("POLICY_BUNKS_PER_CREDIT"),
		BaseBunks:             v.GetInt("POLICY_BASE_BUNKS"),
		LabThresholdMinutes:   v.GetInt("POLICY_LAB_THRESHOLD_MINUTES"),
		StartToleranceMinutes: v.GetInt("POLICY_START_TOLERANCE_MINUTES"),
		Timezone:              v.GetString("POLICY_TIMEZONE"),
		CreditTable:           parseCreditTable(v.GetString("POLICY_CREDIT_TABLE")),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("ENABLE_METRICS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8787)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bunkbook")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 4)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("STORE_DRIVER", StoreDriverRedis)
	v.SetDefault("STORE_KEY_PREFIX", "bunkbook")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FEED_URL", "")
	v.SetDefault("FEED_TOKEN", "")
	v.SetDefault("FEED_TIMEOUT", "20s")
	v.SetDefault("FEED_MIN_REFRESH_INTERVAL", "30s")
	v.SetDefault("REFRESH_ON_START", false)

	v.SetDefault("POLICY_BUNKS_PER_CREDIT", 2)
	v.SetDefault("POLICY_BASE_BUNKS", 1)
	v.SetDefault("POLICY_LAB_THRESHOLD_MINUTES", 110)
	v.SetDefault("POLICY_START_TOLERANCE_MINUTES", 5)
	v.SetDefault("POLICY_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("POLICY_CREDIT_TABLE", "")

	v.SetDefault("ENABLE_METRICS", true)
}

// Location resolves the policy timezone, falling back to UTC.
func (p PolicyConfig) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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

// parseCreditTable reads "CODE=credits" pairs; malformed pairs are skipped.
func parseCreditTable(raw string) map[string]int {
	table := make(map[string]int)
	for _, pair := range splitAndTrim(raw) {
		code, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		credits, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || credits <= 0 {
			continue
		}
		code = strings.ToUpper(strings.Join(strings.Fields(code), ""))
		if code == "" {
			continue
		}
		table[code] = credits
	}
	return table
}
