package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	JWTSecret      string
	RequireAuth    bool
	Redis          RedisConfig
	Signaling      SignalingConfig
	Log            LogConfig
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type SignalingConfig struct {
	// MaxMessageBytes caps one inbound WebSocket frame.
	MaxMessageBytes int64
	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int
	// QueueSize bounds events waiting for the relay loop.
	QueueSize int
}

type LogConfig struct {
	Level  string
	Format string
}

// Options carries command-line overrides. Empty fields fall back to the
// environment, then to defaults.
type Options struct {
	Port        string
	Environment string
	LogLevel    string
	RequireAuth *bool
	RedisHost   string
}

// Load reads configuration from the environment with opts taking precedence.
func Load(opts Options) (*Config, error) {
	return load(os.LookupEnv, opts)
}

func load(lookup func(string) (string, bool), opts Options) (*Config, error) {
	getEnv := func(key, defaultValue string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		return defaultValue
	}

	// Parse allowed origins (comma-separated)
	originsStr := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	var origins []string
	for _, o := range strings.Split(originsStr, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	cfg := &Config{
		Port:           override(opts.Port, getEnv("PORT", "8080")),
		Environment:    override(opts.Environment, getEnv("ENVIRONMENT", "development")),
		AllowedOrigins: origins,
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		Redis: RedisConfig{
			Host:     override(opts.RedisHost, getEnv("REDIS_HOST", "localhost")),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Log: LogConfig{
			Level:  override(opts.LogLevel, getEnv("LOG_LEVEL", "info")),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	var err error
	if cfg.RequireAuth, err = parseBool(getEnv("REQUIRE_AUTH", "false")); err != nil {
		return nil, fmt.Errorf("REQUIRE_AUTH: %w", err)
	}
	if opts.RequireAuth != nil {
		cfg.RequireAuth = *opts.RequireAuth
	}
	if cfg.Redis.Enabled, err = parseBool(getEnv("REDIS_ENABLED", "false")); err != nil {
		return nil, fmt.Errorf("REDIS_ENABLED: %w", err)
	}
	if opts.RedisHost != "" {
		cfg.Redis.Enabled = true
	}
	if cfg.Redis.DB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	if cfg.Signaling.MaxMessageBytes, err = strconv.ParseInt(getEnv("MAX_MESSAGE_BYTES", "65536"), 10, 64); err != nil || cfg.Signaling.MaxMessageBytes <= 0 {
		return nil, fmt.Errorf("MAX_MESSAGE_BYTES: must be a positive integer")
	}
	if cfg.Signaling.SendBuffer, err = strconv.Atoi(getEnv("SEND_BUFFER", "256")); err != nil || cfg.Signaling.SendBuffer <= 0 {
		return nil, fmt.Errorf("SEND_BUFFER: must be a positive integer")
	}
	if cfg.Signaling.QueueSize, err = strconv.Atoi(getEnv("RELAY_QUEUE_SIZE", "1024")); err != nil || cfg.Signaling.QueueSize <= 0 {
		return nil, fmt.Errorf("RELAY_QUEUE_SIZE: must be a positive integer")
	}
	return cfg, nil
}

// Production reports whether the relay runs in production mode.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

func override(flag, value string) string {
	if flag != "" {
		return flag
	}
	return value
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
