package config

import "time"

const (
	// AuthModeJWT validates tokens locally against the identity provider's
	// signing secret or public key.
	AuthModeJWT = "jwt"
	// AuthModeRemote asks the identity provider to resolve the token's user.
	AuthModeRemote = "remote"
)

type AuthConfig struct {
	Mode string `yaml:"mode"`

	// jwt mode: exactly one of JWTSecret or PublicKeyPEM/PublicKeyFile.
	JWTSecret     string   `yaml:"jwt_secret"`
	PublicKeyPEM  string   `yaml:"public_key_pem"`
	PublicKeyFile string   `yaml:"public_key_file"`
	Issuer        string   `yaml:"issuer"`
	Audience      string   `yaml:"audience"`
	Algorithms    []string `yaml:"algorithms"`

	// remote mode
	ProviderURL string        `yaml:"provider_url"`
	AnonKey     string        `yaml:"anon_key"`
	Timeout     time.Duration `yaml:"timeout"`

	// CacheTTL bounds how long a validated principal is cached in Redis.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// UpstreamConfig describes the chat-completions gateway. The relay sets no
// overall request timeout; only dialing and response headers are bounded.
type UpstreamConfig struct {
	BaseURL               string               `yaml:"base_url"`
	APIKey                string               `yaml:"api_key"`
	Model                 string               `yaml:"model"`
	MaxConcurrent         int                  `yaml:"max_concurrent"`
	DialTimeout           time.Duration        `yaml:"dial_timeout"`
	ResponseHeaderTimeout time.Duration        `yaml:"response_header_timeout"`
	Headers               map[string]string    `yaml:"headers,omitempty"`
	CircuitBreaker        CircuitBreakerConfig `yaml:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	FailureThreshold      int           `yaml:"failure_threshold"`
	RecoveryProbeInterval time.Duration `yaml:"recovery_probe_interval"`
}
