package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Session persistence configuration
	Session SessionConfig `mapstructure:"session"`

	// Redis configuration
	Redis RedisConfig `mapstructure:"redis"`

	// Wallet provider configuration
	Wallet WalletConfig `mapstructure:"wallet"`

	// Ledger gateway configuration
	Ledger LedgerConfig `mapstructure:"ledger"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
	EntryPage    string `mapstructure:"entry_page"`
	SecureCookie bool   `mapstructure:"secure_cookie"`
	RateLimit    int    `mapstructure:"rate_limit"` // logout and session writes per profile per minute, 0 disables
}

// SessionConfig selects the session backend
type SessionConfig struct {
	Backend       string `mapstructure:"backend"`
	KeyPrefix     string `mapstructure:"key_prefix"`
	TTL           int    `mapstructure:"ttl"`
	ProfileCookie string `mapstructure:"profile_cookie"`
}

// TTLDuration returns the session lifetime
func (s SessionConfig) TTLDuration() time.Duration {
	return time.Duration(s.TTL) * time.Second
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// WalletConfig holds the wallet provider endpoint
type WalletConfig struct {
	RPCURL  string `mapstructure:"rpc_url"`
	Timeout int    `mapstructure:"timeout"`
}

// LedgerConfig holds the ledger gateway endpoint and contract coordinates
type LedgerConfig struct {
	GatewayURL string `mapstructure:"gateway_url"`
	Channel    string `mapstructure:"channel"`
	Contract   string `mapstructure:"contract"`
	Bearer     string `mapstructure:"bearer"`
	Timeout    int    `mapstructure:"timeout"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	MetricsPath    string  `mapstructure:"metrics_path"`
	TracingEnabled bool    `mapstructure:"tracing_enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
	Environment    string  `mapstructure:"environment"`
}

// Session backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Load loads configuration from environment variables and the default config file locations
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from path, or from the default locations when path is empty
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("portal")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/portal-gate")
	}

	// Set default values
	setDefaults(v)

	// Enable environment variable support
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Override with environment variables
	overrideWithEnv(&config)

	// Validate configuration
	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.entry_page", "/")
	v.SetDefault("server.secure_cookie", false)
	v.SetDefault("server.rate_limit", 30)

	// Session defaults
	v.SetDefault("session.backend", BackendMemory)
	v.SetDefault("session.key_prefix", "portal:session:")
	v.SetDefault("session.ttl", 86400) // 24 hours
	v.SetDefault("session.profile_cookie", "portal_profile")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	// Wallet defaults
	v.SetDefault("wallet.rpc_url", "http://localhost:8550")
	v.SetDefault("wallet.timeout", 60)

	// Ledger defaults
	v.SetDefault("ledger.gateway_url", "http://localhost:7545")
	v.SetDefault("ledger.channel", "healthcare")
	v.SetDefault("ledger.contract", "healthcare-roles")
	v.SetDefault("ledger.timeout", 15)

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.tracing_enabled", false)
	v.SetDefault("monitoring.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("monitoring.sampling_rate", 1.0)
	v.SetDefault("monitoring.environment", "development")

	// Logging defaults
	v.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if rpcURL := os.Getenv("WALLET_RPC_URL"); rpcURL != "" {
		config.Wallet.RPCURL = rpcURL
	}

	if gatewayURL := os.Getenv("LEDGER_GATEWAY_URL"); gatewayURL != "" {
		config.Ledger.GatewayURL = gatewayURL
	}

	if bearer := os.Getenv("LEDGER_BEARER_TOKEN"); bearer != "" {
		config.Ledger.Bearer = bearer
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if !strings.HasPrefix(config.Server.EntryPage, "/") {
		return fmt.Errorf("entry page must be an absolute path: %q", config.Server.EntryPage)
	}

	if config.Server.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	switch config.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if config.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown session backend: %q", config.Session.Backend)
	}

	if config.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}

	if config.Wallet.RPCURL == "" {
		return fmt.Errorf("wallet rpc url is required")
	}

	if config.Ledger.GatewayURL == "" {
		return fmt.Errorf("ledger gateway url is required")
	}

	return nil
}
