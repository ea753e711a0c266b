package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/utils"
)

type Config struct {
	ServiceName     string
	Environment     string
	Version         string
	HTTPAddr        string
	AllowedOrigins  []string
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Webhooks        WebhookConfig
}

type WebhookConfig struct {
	QueueMode      string // "redis" or "memory"
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	QueueKey       string
	MaxAttempts    int
	InitialBackoff time.Duration
	RequestTimeout time.Duration
	DisableAfter   int
}

// fileConfig mirrors the optional YAML config file. Every field it sets can
// still be overridden by environment variables.
type fileConfig struct {
	ServiceName    string   `yaml:"service_name"`
	Environment    string   `yaml:"environment"`
	HTTPAddr       string   `yaml:"http_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Webhooks       struct {
		QueueMode    string `yaml:"queue_mode"`
		RedisAddr    string `yaml:"redis_addr"`
		QueueKey     string `yaml:"queue_key"`
		MaxAttempts  int    `yaml:"max_attempts"`
		DisableAfter int    `yaml:"disable_after"`
	} `yaml:"webhooks"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		ServiceName:     "dpp-backend",
		Environment:     "development",
		HTTPAddr:        ":8080",
		AllowedOrigins:  []string{"http://localhost:3000"},
		AccessTokenTTL:  time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		RefreshTokenTTL: time.Duration(utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)) * time.Second,
		Webhooks: WebhookConfig{
			QueueMode:      "memory",
			QueueKey:       "dpp:webhook:events",
			MaxAttempts:    3,
			InitialBackoff: 2 * time.Second,
			RequestTimeout: 10 * time.Second,
			DisableAfter:   10,
		},
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
		applyFileConfig(&cfg, fc)
		log.Info("Loaded config file", "path", path)
	}

	// Environment always wins over the file.
	cfg.ServiceName = utils.GetEnv("SERVICE_NAME", cfg.ServiceName, log)
	cfg.Environment = utils.GetEnv("ENVIRONMENT", cfg.Environment, log)
	cfg.Version = utils.GetEnv("SERVICE_VERSION", "dev", log)
	cfg.HTTPAddr = utils.GetEnv("HTTP_ADDR", cfg.HTTPAddr, log)
	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		cfg.AllowedOrigins = splitAndTrim(origins)
	}
	cfg.JWTSecretKey = utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)

	cfg.Webhooks.QueueMode = strings.ToLower(utils.GetEnv("WEBHOOK_QUEUE_MODE", cfg.Webhooks.QueueMode, log))
	cfg.Webhooks.RedisAddr = utils.GetEnv("REDIS_ADDR", cfg.Webhooks.RedisAddr, log)
	cfg.Webhooks.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.Webhooks.RedisDB = utils.GetEnvAsInt("REDIS_DB", cfg.Webhooks.RedisDB, log)
	cfg.Webhooks.QueueKey = utils.GetEnv("WEBHOOK_QUEUE_KEY", cfg.Webhooks.QueueKey, log)
	cfg.Webhooks.MaxAttempts = utils.GetEnvAsInt("WEBHOOK_MAX_ATTEMPTS", cfg.Webhooks.MaxAttempts, log)
	cfg.Webhooks.DisableAfter = utils.GetEnvAsInt("WEBHOOK_DISABLE_AFTER", cfg.Webhooks.DisableAfter, log)

	switch cfg.Webhooks.QueueMode {
	case "redis", "memory":
	default:
		return cfg, fmt.Errorf("unknown webhook queue mode %q", cfg.Webhooks.QueueMode)
	}
	return cfg, nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.ServiceName != "" {
		cfg.ServiceName = fc.ServiceName
	}
	if fc.Environment != "" {
		cfg.Environment = fc.Environment
	}
	if fc.HTTPAddr != "" {
		cfg.HTTPAddr = fc.HTTPAddr
	}
	if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.Webhooks.QueueMode != "" {
		cfg.Webhooks.QueueMode = fc.Webhooks.QueueMode
	}
	if fc.Webhooks.RedisAddr != "" {
		cfg.Webhooks.RedisAddr = fc.Webhooks.RedisAddr
	}
	if fc.Webhooks.QueueKey != "" {
		cfg.Webhooks.QueueKey = fc.Webhooks.QueueKey
	}
	if fc.Webhooks.MaxAttempts > 0 {
		cfg.Webhooks.MaxAttempts = fc.Webhooks.MaxAttempts
	}
	if fc.Webhooks.DisableAfter > 0 {
		cfg.Webhooks.DisableAfter = fc.Webhooks.DisableAfter
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
