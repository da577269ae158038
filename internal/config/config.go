package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/middleware"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/report"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SCORER_SERVER_PORT
const EnvPrefix = "SCORER"

// Config represents the scorer configuration
type Config struct {
	Server      ServerConfig                 `mapstructure:"server"`
	Log         LogConfig                    `mapstructure:"log"`
	Session     SessionConfig                `mapstructure:"session"`
	Cache       CacheConfig                  `mapstructure:"cache"`
	Charts      ChartsConfig                 `mapstructure:"charts"`
	Compression middleware.CompressionConfig `mapstructure:"compression"`
	Security    security.SecurityConfig      `mapstructure:"security"`
}

// ServerConfig contains the HTTP listener settings
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
	EnablePprof     bool          `mapstructure:"enable_pprof"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SessionConfig contains operator session limits
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	MaxSessions   int           `mapstructure:"max_sessions"`
}

// CacheConfig contains the report view cache settings
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ChartsConfig contains chart page settings
type ChartsConfig struct {
	AssetsHost string `mapstructure:"assets_host"`
	Width      string `mapstructure:"width"`
	Height     string `mapstructure:"height"`
}

// Options converts the chart settings for the report package
func (c ChartsConfig) Options() report.ChartOptions {
	return report.ChartOptions{AssetsHost: c.AssetsHost, Width: c.Width, Height: c.Height}
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	sec := security.DefaultSecurityConfig()
	gz := middleware.DefaultCompressionConfig()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", gin.ReleaseMode)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.enable_pprof", false)

	v.SetDefault("log.level", "info")

	v.SetDefault("session.ttl", 8*time.Hour)
	v.SetDefault("session.sweep_interval", 5*time.Minute)
	v.SetDefault("session.max_sessions", 1000)

	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("cache.cleanup_interval", 5*time.Minute)

	v.SetDefault("charts.assets_host", report.DefaultAssetsHost)
	v.SetDefault("charts.width", "900px")
	v.SetDefault("charts.height", "540px")

	v.SetDefault("compression.enabled", gz.Enabled)
	v.SetDefault("compression.min_size", gz.MinSize)
	v.SetDefault("compression.level", gz.Level)

	v.SetDefault("security.max_text_length", sec.MaxTextLength)
	v.SetDefault("security.max_body_bytes", sec.MaxBodyBytes)
	v.SetDefault("security.max_requests_per_min", sec.MaxRequestsPerMin)
	v.SetDefault("security.allowed_origins", sec.AllowedOrigins)
	v.SetDefault("security.request_timeout", sec.RequestTimeout)
	v.SetDefault("security.limiter_idle_ttl", sec.LimiterIdleTTL)
	v.SetDefault("security.enable_hsts", sec.EnableHSTS)
}

// Load reads configuration from defaults, the optional config file and
// SCORER_* environment variables, in increasing priority. An empty
// configFile searches the working directory for scorer.yaml/.yml/.json.
func Load(configFile string) (*Config, error) {
	return LoadWith(viper.New(), configFile)
}

// LoadWith is Load on a caller-owned viper instance, so command flags bound
// to v take precedence over everything else
func LoadWith(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("scorer")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", config.Server.Port)
	}

	switch config.Server.Mode {
	case gin.ReleaseMode, gin.DebugMode, gin.TestMode:
	default:
		return fmt.Errorf("invalid mode: %s. Must be 'release', 'debug', or 'test'", config.Server.Mode)
	}

	switch strings.ToLower(config.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Session.TTL < 0 || config.Session.SweepInterval < 0 {
		return fmt.Errorf("session durations must not be negative")
	}
	if config.Session.MaxSessions < 0 {
		return fmt.Errorf("max_sessions must not be negative")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	if config.Compression.MinSize < 0 {
		return fmt.Errorf("compression.min_size must not be negative")
	}

	if config.Security.MaxTextLength < 1 {
		return fmt.Errorf("security.max_text_length must be at least 1")
	}

	return nil
}
