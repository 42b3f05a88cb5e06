// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	App        AppConfig        `koanf:"app"`
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Token      TokenConfig      `koanf:"token"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	CORS       CORSConfig       `koanf:"cors"`
	Log        LogConfig        `koanf:"log"`
	Otel       OtelConfig       `koanf:"otel"`
	Pagination PaginationConfig `koanf:"pagination"`
	Advice     AdviceConfig     `koanf:"advice"`
	AdviceSlip AdviceSlipConfig `koanf:"adviceslip"`
	Completion CompletionConfig `koanf:"completion"`
	Upstream   UpstreamConfig   `koanf:"upstream"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL              string        `koanf:"url"`
	MaxOpenConns     int           `koanf:"max_open_conns"`
	MaxIdleConns     int           `koanf:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `koanf:"conn_max_idle_time"`
	StatementTimeout time.Duration `koanf:"statement_timeout"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// TokenConfig controls auth tokens. Tokens carry no expiry claim; MaxAge is
// enforced against the issued-at time when a token is verified.
type TokenConfig struct {
	SecretKey string        `koanf:"secret_key"`
	MaxAge    time.Duration `koanf:"max_age"`
	Issuer    string        `koanf:"issuer"`
}

type RateLimitConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
	// Generate is a tighter per-IP budget for POST /api/advice/, which
	// spends upstream completion calls.
	Generate int `koanf:"generate"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type PaginationConfig struct {
	PerPage    int `koanf:"per_page"`
	MaxPerPage int `koanf:"max_per_page"`
}

type AdviceConfig struct {
	DefaultPersona string        `koanf:"default_persona"`
	SlipMaxID      int           `koanf:"slip_max_id"`
	CacheTTL       time.Duration `koanf:"cache_ttl"`
}

type AdviceSlipConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type CompletionConfig struct {
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	Model       string        `koanf:"model"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`
	Stop        string        `koanf:"stop"`
	Timeout     time.Duration `koanf:"timeout"`
}

type UpstreamConfig struct {
	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
}

// Load layers defaults, the optional YAML file and the environment.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.App.Environment = NormalizeEnvironment(cfg.App.Environment)
	cfg.Database.URL = NormalizeDatabaseURL(cfg.App.Environment, cfg.Database.URL)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Persona Advice",
		"app.version":     "1.0.0",
		"app.environment": EnvDevelopment,

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "60s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.statement_timeout":  "30s",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 2,

		"token.max_age": "600s",
		"token.issuer":  "persona-advice",

		"rate_limit.enabled":  true,
		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,
		"rate_limit.generate": 10,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "persona-advice",

		"pagination.per_page":     10,
		"pagination.max_per_page": 100,

		"advice.default_persona": "Unknown",
		"advice.slip_max_id":     224,
		"advice.cache_ttl":       "5m",

		"adviceslip.base_url": "https://api.adviceslip.com",
		"adviceslip.timeout":  "10s",

		"completion.base_url":    "https://api.openai.com/v1",
		"completion.temperature": 0.2,
		"completion.max_tokens":  150,
		"completion.stop":        "END",
		"completion.timeout":     "30s",

		"upstream.max_retries":   1,
		"upstream.retry_backoff": "250ms",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_URI":                "database.url",
	"DATABASE_STATEMENT_TIMEOUT":  "database.statement_timeout",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"APP_ENVIRONMENT":             "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"SECRET_KEY":                  "token.secret_key",
	"TOKEN_MAX_AGE":               "token.max_age",
	"RATE_LIMIT_ENABLED":          "rate_limit.enabled",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_GENERATE":         "rate_limit.generate",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"PER_PAGE":                    "pagination.per_page",
	"DEFAULT_PERSONA":             "advice.default_persona",
	"ADVICE_SLIP_MAX_ID":          "advice.slip_max_id",
	"ADVICESLIP_URL":              "adviceslip.base_url",
	"OPENAI_BASE_URL":             "completion.base_url",
	"OPENAI_API_KEY":              "completion.api_key",
	"OPENAI_FINETUNED_MODEL":      "completion.model",
	"UPSTREAM_MAX_RETRIES":        "upstream.max_retries",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

// NormalizeEnvironment accepts the DEV/PROD spellings used by older
// deployments.
func NormalizeEnvironment(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "":
		return EnvDevelopment
	case "prod", "production":
		return EnvProduction
	case "test":
		return EnvTest
	default:
		return env
	}
}

// NormalizeDatabaseURL rewrites the legacy postgres:// scheme that hosted
// providers hand out in production.
func NormalizeDatabaseURL(environment, url string) string {
	if environment == EnvProduction && strings.HasPrefix(url, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(url, "postgres://")
	}
	return url
}

func validate(c *Config) error {
	switch c.App.Environment {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf(
			"APP_ENVIRONMENT should be either DEV or PROD, got %q",
			c.App.Environment,
		)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Token.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}

	if c.IsProduction() && len(c.Token.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 bytes in production")
	}

	if c.Token.MaxAge <= 0 {
		return fmt.Errorf("token.max_age must be positive")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.IsProduction() && c.Otel.Enabled && c.Otel.Insecure {
		return fmt.Errorf("OTEL_INSECURE must be false in production")
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.Pagination.PerPage < 1 || c.Pagination.PerPage > c.Pagination.MaxPerPage {
		return fmt.Errorf(
			"pagination.per_page must be between 1 and %d",
			c.Pagination.MaxPerPage,
		)
	}

	if c.Advice.SlipMaxID < 1 {
		return fmt.Errorf("advice.slip_max_id must be positive")
	}

	if c.Advice.DefaultPersona == "" {
		return fmt.Errorf("advice.default_persona is required")
	}

	if c.Upstream.MaxRetries < 0 {
		return fmt.Errorf("upstream.max_retries must not be negative")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
