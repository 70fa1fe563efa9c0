// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App           AppConfig
	Logger        LoggerConfig
	Data          DataConfig
	Server        ServerConfig
	Auth          AuthConfig
	KV            KVConfig
	Quota         QuotaConfig
	Dispatch      DispatchConfig
	Packs         PacksConfig
	Observability ObservabilityConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage configuration.
type DataConfig struct {
	// BasePath holds the SQLite database, the badger KV directory, the search index and the auth key.
	BasePath string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name               string
	Port               string        // Server port (default: 8080)
	ReadTimeout        time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout       time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout        time.Duration // HTTP idle timeout (default: 60s)
	CORSAllowedOrigins []string
}

// AuthConfig holds token lifetimes. The signing key lives in <data>/auth.key.
type AuthConfig struct {
	AccessTokenDuration  time.Duration // e.g., 15m
	RefreshTokenDuration time.Duration // e.g., 720h (30 days)
}

// KV backends.
const (
	KVBackendBadger = "badger"
	KVBackendRedis  = "redis"
	KVBackendMemory = "memory"
)

// KVConfig selects the key-value store behind quotas, recent searches and analytics events.
type KVConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// QuotaConfig holds the anonymous copy allowance.
type QuotaConfig struct {
	DailyLimit int
	// TimeZone decides where "today" starts. "Local" uses the server zone.
	TimeZone string
}

// DispatchConfig tunes retries of interaction writes.
type DispatchConfig struct {
	RetryAttempts int
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration
}

// PacksConfig holds the prompt pack import directory. Empty disables the watcher.
type PacksConfig struct {
	Path        string
	SettleDelay time.Duration
}

// ObservabilityConfig holds metrics and error reporting settings.
type ObservabilityConfig struct {
	MetricsEnabled bool
	SentryDSN      string
}

type flagValues struct {
	env, logLevel, dataPath, serverName                         string
	accessTokenDuration, refreshTokenDuration                   string
	serverPort, readTimeout, writeTimeout, idleTimeout, origins string
	kvBackend, redisAddr, quotaLimit, quotaTZ                   string
	packsPath, sentryDSN                                        string
	envFile                                                     string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	var f flagValues
	flag.StringVar(&f.env, "env", "", "Environment (development, staging, production)")
	flag.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&f.dataPath, "data-path", "", "Base path for data storage")
	flag.StringVar(&f.serverName, "server-name", "", "Name for the server")

	// Auth flags
	flag.StringVar(&f.accessTokenDuration, "access-token-duration", "", "Access token lifetime (e.g., 15m)")
	flag.StringVar(&f.refreshTokenDuration, "refresh-token-duration", "", "Refresh token lifetime (e.g., 720h)")

	// Server flags
	flag.StringVar(&f.serverPort, "port", "", "Server port (default: 8080)")
	flag.StringVar(&f.readTimeout, "read-timeout", "", "HTTP read timeout (default: 15s)")
	flag.StringVar(&f.writeTimeout, "write-timeout", "", "HTTP write timeout (default: 15s)")
	flag.StringVar(&f.idleTimeout, "idle-timeout", "", "HTTP idle timeout (default: 60s)")
	flag.StringVar(&f.origins, "cors-origins", "", "Comma separated list of allowed CORS origins")

	// Storage and quota flags
	flag.StringVar(&f.kvBackend, "kv-backend", "", "Key-value backend (badger, redis, memory)")
	flag.StringVar(&f.redisAddr, "redis-addr", "", "Redis address when kv-backend=redis")
	flag.StringVar(&f.quotaLimit, "quota-daily-limit", "", "Anonymous copies per day (default: 3)")
	flag.StringVar(&f.quotaTZ, "quota-timezone", "", "Time zone used for the daily reset (default: Local)")

	flag.StringVar(&f.packsPath, "packs-path", "", "Directory watched for prompt packs")
	flag.StringVar(&f.sentryDSN, "sentry-dsn", "", "Sentry DSN for error reporting")

	flag.StringVar(&f.envFile, "env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	return load(f)
}

// LoadFromEnv builds the configuration from the environment and an optional .env file only.
// Tools with their own flag handling (the seeder) use this.
func LoadFromEnv(envFile string) (*Config, error) {
	return load(flagValues{envFile: envFile})
}

func load(f flagValues) (*Config, error) {
	// Missing .env files are fine. godotenv never overrides variables already set.
	if f.envFile != "" {
		_ = godotenv.Load(f.envFile)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(f.env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(f.logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(f.dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Name:               getConfigValue(f.serverName, "SERVER_NAME", "HeyPrompt"),
			Port:               getConfigValue(f.serverPort, "SERVER_PORT", "8080"),
			CORSAllowedOrigins: splitList(getConfigValue(f.origins, "CORS_ALLOWED_ORIGINS", "*")),
		},
		KV: KVConfig{
			Backend:       strings.ToLower(getConfigValue(f.kvBackend, "KV_BACKEND", KVBackendBadger)),
			RedisAddr:     getConfigValue(f.redisAddr, "REDIS_ADDR", "localhost:6379"),
			RedisPassword: getConfigValue("", "REDIS_PASSWORD", ""),
			RedisDB:       getIntConfigValue("", "REDIS_DB", 0),
		},
		Quota: QuotaConfig{
			DailyLimit: getIntConfigValue(f.quotaLimit, "QUOTA_DAILY_LIMIT", 3),
			TimeZone:   getConfigValue(f.quotaTZ, "QUOTA_TIMEZONE", "Local"),
		},
		Dispatch: DispatchConfig{
			RetryAttempts: getIntConfigValue("", "DISPATCH_RETRY_ATTEMPTS", 3),
		},
		Packs: PacksConfig{
			Path: getConfigValue(f.packsPath, "PACKS_PATH", ""),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getBoolConfigValue("", "METRICS_ENABLED", true),
			SentryDSN:      getConfigValue(f.sentryDSN, "SENTRY_DSN", ""),
		},
	}

	durations := []struct {
		name              string
		flagValue, envKey string
		def               string
		dst               *time.Duration
	}{
		{"access token duration", f.accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m", &cfg.Auth.AccessTokenDuration},
		{"refresh token duration", f.refreshTokenDuration, "REFRESH_TOKEN_DURATION", "720h", &cfg.Auth.RefreshTokenDuration},
		{"read timeout", f.readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{"write timeout", f.writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{"idle timeout", f.idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"dispatch retry delay", "", "DISPATCH_RETRY_DELAY", "1s", &cfg.Dispatch.RetryDelay},
		{"dispatch retry max delay", "", "DISPATCH_RETRY_MAX_DELAY", "10s", &cfg.Dispatch.RetryMaxDelay},
		{"packs settle delay", "", "PACKS_SETTLE_DELAY", "2s", &cfg.Packs.SettleDelay},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Packs.Path != "" {
		expanded, err := expandPath(cfg.Packs.Path, "")
		if err != nil {
			return nil, fmt.Errorf("invalid packs path: %w", err)
		}
		cfg.Packs.Path = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	switch c.KV.Backend {
	case KVBackendBadger, KVBackendMemory:
	case KVBackendRedis:
		if c.KV.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when KV_BACKEND=redis")
		}
	default:
		return fmt.Errorf("invalid kv backend: %s (must be badger, redis, or memory)", c.KV.Backend)
	}

	if c.Quota.DailyLimit < 1 {
		return fmt.Errorf("invalid quota daily limit: %d (must be at least 1)", c.Quota.DailyLimit)
	}
	if _, err := c.Quota.Location(); err != nil {
		return fmt.Errorf("invalid quota timezone %q: %w", c.Quota.TimeZone, err)
	}

	if c.Dispatch.RetryAttempts < 1 {
		return fmt.Errorf("invalid dispatch retry attempts: %d (must be at least 1)", c.Dispatch.RetryAttempts)
	}

	return nil
}

// Location resolves the configured quota time zone.
func (q QuotaConfig) Location() (*time.Location, error) {
	if q.TimeZone == "" || q.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(q.TimeZone)
}

// SQLitePath returns the location of the relational database.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.Data.BasePath, "heyprompt.db")
}

// BadgerPath returns the location of the badger KV directory.
func (c *Config) BadgerPath() string {
	return filepath.Join(c.Data.BasePath, "kv")
}

// SearchPath returns the location of the search index directory.
func (c *Config) SearchPath() string {
	return filepath.Join(c.Data.BasePath, "search")
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "HeyPrompt", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
