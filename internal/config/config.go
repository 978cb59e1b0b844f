package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Deploy modes selecting the upstream base URL.
const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName          string        `mapstructure:"app_name"`
	Env              string        `mapstructure:"app_env"`
	LogLevel         string        `mapstructure:"log_level"`
	DevURL           string        `mapstructure:"dev_url"`
	ProdURL          string        `mapstructure:"prod_url"`
	EndpointsFile    string        `mapstructure:"endpoints_file"`
	AuthToken        string        `mapstructure:"auth_token"`
	SuccessCode      int           `mapstructure:"success_code"`
	RequestTimeoutMs int64         `mapstructure:"request_timeout_ms"`
	RetryCount       int           `mapstructure:"retry_count"`
	RetryDelayMs     int64         `mapstructure:"retry_delay_ms"`
	RequestTimeout   time.Duration `mapstructure:"-"`
	RetryDelay       time.Duration `mapstructure:"-"`

	ServerPort       int    `mapstructure:"server_port"`
	CORSAllowOrigins string `mapstructure:"cors_allow_origins"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "flat-request")
	v.SetDefault("app_env", ModeDev)
	v.SetDefault("log_level", "info")
	v.SetDefault("dev_url", "http://127.0.0.1:8765")
	v.SetDefault("prod_url", "")
	v.SetDefault("endpoints_file", "")
	v.SetDefault("auth_token", "")
	v.SetDefault("success_code", 20000)
	v.SetDefault("request_timeout_ms", 10000)
	v.SetDefault("retry_count", 3)
	v.SetDefault("retry_delay_ms", 2000)
	v.SetDefault("server_port", 8765)
	v.SetDefault("cors_allow_origins", "*")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	switch c.Env {
	case "development":
		c.Env = ModeDev
	case "production":
		c.Env = ModeProd
	case ModeDev, ModeProd:
	default:
		return fmt.Errorf("invalid app_env %q (expected %q or %q)", c.Env, ModeDev, ModeProd)
	}

	if c.RequestTimeoutMs <= 0 {
		return fmt.Errorf("invalid request_timeout_ms (must be positive milliseconds)")
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("invalid retry_count (must not be negative)")
	}
	if c.RetryDelayMs < 0 {
		return fmt.Errorf("invalid retry_delay_ms (must not be negative)")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server_port %d", c.ServerPort)
	}
	c.RequestTimeout = time.Duration(c.RequestTimeoutMs) * time.Millisecond
	c.RetryDelay = time.Duration(c.RetryDelayMs) * time.Millisecond
	c.DevURL = strings.TrimSpace(c.DevURL)
	c.ProdURL = strings.TrimSpace(c.ProdURL)
	c.AuthToken = strings.TrimSpace(c.AuthToken)
	return nil
}

// BaseURL returns the upstream URL configured for the current deploy mode.
func (c *Config) BaseURL() string {
	if c == nil {
		return ""
	}
	if c.Env == ModeProd {
		return c.ProdURL
	}
	return c.DevURL
}

// AllowedOrigins splits the comma separated CORS origin list.
func (c *Config) AllowedOrigins() []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, o := range strings.Split(c.CORSAllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
