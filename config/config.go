// Package config provides the Omega SDK configuration surface.
//
// Configuration precedence: built-in defaults, then an optional YAML file,
// then OMEGA_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SDK identity sent with every request.
const (
	SDKName    = "omega-sdk-go"
	SDKVersion = "1.0.0"
)

// Config holds the complete SDK configuration.
type Config struct {
	// FederationURL is the Federation Core base URL.
	FederationURL string `yaml:"federation_url"`

	// APIKey authenticates gateway requests (optional).
	APIKey string `yaml:"api_key"`

	// TenantID and ActorID are the default request identity; both can be
	// overridden per call.
	TenantID string `yaml:"tenant_id"`
	ActorID  string `yaml:"actor_id"`

	// TimeoutMS is the per-request timeout in milliseconds.
	TimeoutMS int `yaml:"timeout_ms"`

	// MaxRetries is the retry budget for transient failures: retries after
	// the first attempt, so total attempts = MaxRetries + 1.
	MaxRetries int `yaml:"max_retries"`

	// Signed invocation surface.
	ClientID        string   `yaml:"client_id"`
	ClientSecret    string   `yaml:"client_secret"`
	Environment     string   `yaml:"environment"`
	PassportID      string   `yaml:"passport_id"`
	AllowedTools    []string `yaml:"allowed_tools"`
	SignatureMode   string   `yaml:"signature_mode"`
	HMACSecretB64   string   `yaml:"hmac_secret_b64"`
	MaxPayloadBytes int      `yaml:"max_payload_bytes"`
	MaxPayloadDepth int      `yaml:"max_payload_depth"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		FederationURL:   "http://localhost:9405",
		TimeoutMS:       120000,
		MaxRetries:      2,
		Environment:     "development",
		SignatureMode:   "enabled",
		MaxPayloadBytes: 262144,
		MaxPayloadDepth: 32,
	}
}

// FromEnv loads configuration from OMEGA_* environment variables on top of
// the defaults.
func FromEnv() *Config {
	cfg := Default()
	cfg.applyEnv()
	cfg.clamp()
	return cfg
}

// Load reads a YAML configuration file, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.clamp()
	return cfg, nil
}

// IsProduction reports whether allowlist enforcement is active.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) applyEnv() {
	setString(&c.FederationURL, "OMEGA_FEDERATION_URL")
	setString(&c.APIKey, "OMEGA_API_KEY")
	setString(&c.TenantID, "OMEGA_TENANT_ID")
	setString(&c.ActorID, "OMEGA_ACTOR_ID")
	setInt(&c.TimeoutMS, "OMEGA_TIMEOUT_MS")
	setInt(&c.MaxRetries, "OMEGA_MAX_RETRIES")

	setString(&c.ClientID, "OMEGA_CLIENT_ID")
	setString(&c.ClientSecret, "OMEGA_CLIENT_SECRET")
	setString(&c.Environment, "OMEGA_ENVIRONMENT")
	setString(&c.PassportID, "OMEGA_PASSPORT_ID")
	setString(&c.SignatureMode, "OMEGA_SIGNATURE_MODE")
	setString(&c.HMACSecretB64, "OMEGA_HMAC_SECRET")
	setInt(&c.MaxPayloadBytes, "OMEGA_MAX_PAYLOAD_BYTES")
	setInt(&c.MaxPayloadDepth, "OMEGA_MAX_PAYLOAD_DEPTH")

	if v := os.Getenv("OMEGA_ALLOWED_TOOLS"); v != "" {
		var tools []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				tools = append(tools, name)
			}
		}
		c.AllowedTools = tools
	}
}

// clamp enforces the documented configuration bounds.
func (c *Config) clamp() {
	if c.TimeoutMS < 1000 {
		c.TimeoutMS = 1000
	}
	if c.TimeoutMS > 600000 {
		c.TimeoutMS = 600000
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxRetries > 10 {
		c.MaxRetries = 10
	}
	if c.MaxPayloadBytes <= 0 {
		c.MaxPayloadBytes = 262144
	}
	if c.MaxPayloadDepth <= 0 {
		c.MaxPayloadDepth = 32
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
