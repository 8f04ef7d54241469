package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted when the corresponding field is unset.
// The names match the hosted platform the relay replaces, so existing
// deployments keep working without a config file.
const (
	EnvUpstreamAPIKey = "LOVABLE_API_KEY"
	EnvProviderURL    = "SUPABASE_URL"
	EnvAnonKey        = "SUPABASE_ANON_KEY"
	EnvJWTSecret      = "SUPABASE_JWT_SECRET"
)

// applyEnvFallbacks fills credentials left empty by the config file.
func (c *Config) applyEnvFallbacks() {
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fill(&c.Upstream.APIKey, EnvUpstreamAPIKey)
	fill(&c.Auth.ProviderURL, EnvProviderURL)
	fill(&c.Auth.AnonKey, EnvAnonKey)
	fill(&c.Auth.JWTSecret, EnvJWTSecret)
}

// Validate checks settings the relay cannot start without. A missing upstream
// API key is deliberately not checked here: requests fail with a 500 instead.
func (c *Config) Validate() error {
	c.applyEnvFallbacks()

	var errs []error
	switch c.Auth.Mode {
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" && c.Auth.PublicKeyPEM == "" && c.Auth.PublicKeyFile == "" {
			errs = append(errs, errors.New("auth: jwt mode requires jwt_secret, public_key_pem or public_key_file"))
		}
	case AuthModeRemote:
		if c.Auth.ProviderURL == "" {
			errs = append(errs, errors.New("auth: remote mode requires provider_url"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth: unknown mode %q", c.Auth.Mode))
	}

	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("upstream: base_url is required"))
	}
	if c.Upstream.Model == "" {
		errs = append(errs, errors.New("upstream: model is required"))
	}
	if c.Limits.MaxContentLength <= 0 {
		errs = append(errs, errors.New("limits: max_content_length must be positive"))
	}

	c.Filter.Secrets.Mode = strings.ToLower(c.Filter.Secrets.Mode)
	switch c.Filter.Secrets.Mode {
	case SecretsModeRedact, SecretsModeBlock:
	default:
		errs = append(errs, fmt.Errorf("filter.secrets: unknown mode %q", c.Filter.Secrets.Mode))
	}

	return errors.Join(errs...)
}
