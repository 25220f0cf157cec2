package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Security  SecurityConfig  `mapstructure:"security"`
	Log       LogConfig       `mapstructure:"log"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Watermark WatermarkConfig `mapstructure:"watermark"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

type GraphConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIVersion    string        `mapstructure:"api_version"`
	PostURLBase   string        `mapstructure:"post_url_base"`
	DefaultPageID string        `mapstructure:"default_page_id"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RateLimit     float64       `mapstructure:"rate_limit"`
	RateBurst     int           `mapstructure:"rate_burst"`
	VerifyRetries int           `mapstructure:"verify_retries"`
}

// Endpoint is the versioned Graph API root, e.g. https://graph.facebook.com/v23.0.
func (g GraphConfig) Endpoint() string {
	base := strings.TrimRight(g.BaseURL, "/")
	if g.APIVersion == "" {
		return base
	}
	return base + "/" + g.APIVersion
}

type StorageConfig struct {
	Driver        string        `mapstructure:"driver"`
	PostsFile     string        `mapstructure:"posts_file"`
	PagesFile     string        `mapstructure:"pages_file"`
	DSN           string        `mapstructure:"dsn"`
	Retention     time.Duration `mapstructure:"retention"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	TokenKey  string `mapstructure:"token_key"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}

type WatermarkConfig struct {
	Quality   int `mapstructure:"quality"`
	MaxPixels int `mapstructure:"max_pixels"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.max_upload_mb", 16)

	v.SetDefault("graph.base_url", "https://graph.facebook.com")
	v.SetDefault("graph.api_version", "v23.0")
	v.SetDefault("graph.post_url_base", "https://www.facebook.com")
	v.SetDefault("graph.default_page_id", "")
	v.SetDefault("graph.timeout", 30*time.Second)
	v.SetDefault("graph.rate_limit", 5.0)
	v.SetDefault("graph.rate_burst", 10)
	v.SetDefault("graph.verify_retries", 2)

	v.SetDefault("storage.driver", "json")
	v.SetDefault("storage.posts_file", "generated_posts.json")
	v.SetDefault("storage.pages_file", "")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.retention", time.Duration(0))
	v.SetDefault("storage.prune_interval", time.Hour)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", 2*time.Minute)

	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.token_key", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "social-publisher")
	v.SetDefault("tracing.insecure", true)

	v.SetDefault("watermark.quality", 95)
	v.SetDefault("watermark.max_pixels", 40_000_000)
}

// Load reads .env files, an optional config.yaml and the environment.
// Environment variables use the key path with "_" separators, e.g.
// GRAPH_DEFAULT_PAGE_ID; FB_PAGE_ID and LOG_LEVEL are honoured as well.
func Load(paths ...string) (*Config, error) {
	// godotenv.Load never overrides variables already set in the process.
	for _, f := range []string{".env", ".env.local"} {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("graph.default_page_id", "GRAPH_DEFAULT_PAGE_ID", "FB_PAGE_ID")
	_ = v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate returns warnings about settings that work but are probably not
// what an operator wants in production.
func (c *Config) Validate() []string {
	var warnings []string
	if c.Graph.DefaultPageID == "" {
		warnings = append(warnings, "graph.default_page_id not set - posts must carry a page or a single page must be connected")
	}
	if c.Security.JWTSecret == "" {
		warnings = append(warnings, "security.jwt_secret not set - API is unauthenticated")
	}
	persistsPages := c.Storage.PagesFile != "" || c.Storage.Driver != "json"
	if persistsPages && c.Security.TokenKey == "" {
		warnings = append(warnings, "security.token_key not set - page access tokens are stored unsealed")
	}
	return warnings
}
