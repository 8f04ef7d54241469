package config

import (
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CORS      CORSConfig      `yaml:"cors"`
	Auth      AuthConfig      `yaml:"auth"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Limits    LimitsConfig    `yaml:"limits"`
	Filter    FilterConfig    `yaml:"filter"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	BasePath         string        `yaml:"base_path"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

type CORSConfig struct {
	AllowOrigin  string `yaml:"allow_origin"`
	AllowHeaders string `yaml:"allow_headers"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int32  `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + strconv.Itoa(d.Port) + "/" + d.Name + "?sslmode=disable"
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// LimitsConfig bounds request size and per-user usage. Zero disables a limit,
// except MaxContentLength which always applies. MaxBodyBytes is off by default
// because a body cut off by it cannot report the content length in its 413.
type LimitsConfig struct {
	MaxContentLength  int   `yaml:"max_content_length"`
	MaxBodyBytes      int64 `yaml:"max_body_bytes"`
	RequestsPerMinute int   `yaml:"requests_per_minute"`
	DailyContentChars int64 `yaml:"daily_content_chars"`
}

type FilterConfig struct {
	Secrets   SecretsFilterConfig   `yaml:"secrets"`
	Injection InjectionFilterConfig `yaml:"injection"`
	Policy    PolicyFilterConfig    `yaml:"policy"`
}

const (
	SecretsModeRedact = "redact"
	SecretsModeBlock  = "block"
)

type SecretsFilterConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"`
}

type InjectionFilterConfig struct {
	Enabled        bool    `yaml:"enabled"`
	BlockThreshold float64 `yaml:"block_threshold"`
	FlagThreshold  float64 `yaml:"flag_threshold"`
}

type PolicyFilterConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BundlePath        string        `yaml:"bundle_path"`
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			BasePath:         "/functions/v1",
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     0, // streams are unbounded
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		CORS: CORSConfig{
			AllowOrigin:  "*",
			AllowHeaders: "authorization, x-client-info, apikey, content-type",
		},
		Auth: AuthConfig{
			Mode:     AuthModeJWT,
			CacheTTL: 5 * time.Minute,
			Timeout:  5 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL:       "https://ai.gateway.lovable.dev/v1",
			Model:         "google/gemini-2.5-flash",
			MaxConcurrent: 100,
			DialTimeout:   10 * time.Second,
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold:      5,
				RecoveryProbeInterval: 15 * time.Second,
			},
		},
		Limits: LimitsConfig{
			MaxContentLength: 50000,
		},
		Filter: FilterConfig{
			Secrets: SecretsFilterConfig{
				Enabled: true,
				Mode:    SecretsModeRedact,
			},
			Injection: InjectionFilterConfig{
				BlockThreshold: 0.9,
				FlagThreshold:  0.7,
			},
			Policy: PolicyFilterConfig{
				BundlePath:        "configs/policies",
				EvaluationTimeout: 100 * time.Millisecond,
			},
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "debugrelay",
			User:     "debugrelay",
			MaxConns: 10,
		},
		Redis: RedisConfig{
			DB:       0,
			PoolSize: 50,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			MetricsEnabled: true,
		},
	}
}
