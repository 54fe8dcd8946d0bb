package model

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete service configuration.
type Config struct {
	Network      string             `yaml:"network" mapstructure:"network"`
	Signer       SignerConfig       `yaml:"signer" mapstructure:"signer"`
	Claim        ClaimConfig        `yaml:"claim" mapstructure:"claim"`
	Attestations AttestationConfig  `yaml:"attestations" mapstructure:"attestations"`
	Identity     IdentityConfig     `yaml:"identity" mapstructure:"identity"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// SignerConfig holds the trusted signer identity.
// PrivateKey should come from the environment, not the config file.
type SignerConfig struct {
	PrivateKey string `yaml:"private_key" mapstructure:"private_key"`
	Address    string `yaml:"address" mapstructure:"address"`
}

// ClaimConfig controls issued authorizations.
type ClaimConfig struct {
	ExpirySeconds            uint64 `yaml:"expiry_seconds" mapstructure:"expiry_seconds"`
	VerifiedAccountSchema    string `yaml:"verified_account_schema" mapstructure:"verified_account_schema"`
	VerifiedCB1AccountSchema string `yaml:"verified_cb1_account_schema" mapstructure:"verified_cb1_account_schema"`
}

// AttestationConfig configures the attestation provider.
// An empty Endpoint selects the network default.
type AttestationConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// IdentityConfig configures the identity-linking provider.
type IdentityConfig struct {
	Provider string     `yaml:"provider" mapstructure:"provider"` // http, static
	BaseURL  string     `yaml:"base_url" mapstructure:"base_url"`
	APIKey   string     `yaml:"api_key" mapstructure:"api_key"`
	Groups   [][]string `yaml:"groups,omitempty" mapstructure:"groups"` // static provider only
}

// CacheConfig selects and configures the claim store backend.
type CacheConfig struct {
	Backend         string        `yaml:"backend" mapstructure:"backend"` // memory, disk, redis, layered
	Dir             string        `yaml:"dir" mapstructure:"dir"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
	RedisAddr       string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB         int           `yaml:"redis_db" mapstructure:"redis_db"`
}

// HTTPConfig configures outbound calls to collaborators.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// RateLimitingConfig bounds outbound request rate per upstream host.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig controls the batch worker pool.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the inbound HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// Schema identifiers of the Coinbase verification attestations on Base mainnet.
const (
	DefaultVerifiedAccountSchema    = "0xf8b05c79f090979bf4a80270aba232dff11a10d9ca55c4f88de95317970f0de9"
	DefaultVerifiedCB1AccountSchema = "0xef54ae90f47a187acc050ce631c55584fd4273c0ca9456ab21750921c3a84028"
)

// DefaultExpirySeconds is the default validity window of an authorization.
const DefaultExpirySeconds = 300

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Network: string(NetworkBase),
		Claim: ClaimConfig{
			ExpirySeconds:            DefaultExpirySeconds,
			VerifiedAccountSchema:    DefaultVerifiedAccountSchema,
			VerifiedCB1AccountSchema: DefaultVerifiedCB1AccountSchema,
		},
		Identity: IdentityConfig{
			Provider: "static",
		},
		Cache: CacheConfig{
			Backend:         "memory",
			CleanupInterval: time.Minute,
			RedisAddr:       "localhost:6379",
		},
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			UserAgent:    "discountclaim/0.1",
			MaxBodyBytes: 1 << 20,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 20,
			BurstSize:         10,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Network selects the chain the service issues authorizations for.
type Network string

const (
	NetworkBase        Network = "base"
	NetworkBaseSepolia Network = "base-sepolia"
)

// ParseNetwork resolves a configured network name.
func ParseNetwork(s string) (Network, error) {
	switch n := Network(strings.ToLower(strings.TrimSpace(s))); n {
	case NetworkBase, NetworkBaseSepolia:
		return n, nil
	case "mainnet":
		return NetworkBase, nil
	case "testnet", "sepolia":
		return NetworkBaseSepolia, nil
	default:
		return "", NewConfigError(fmt.Sprintf("unknown network %q (supported: base, base-sepolia)", s), nil)
	}
}

// ChainID returns the EIP-155 chain id.
func (n Network) ChainID() int64 {
	if n == NetworkBaseSepolia {
		return 84532
	}
	return 8453
}

// AttestationEndpoint returns the default EAS GraphQL endpoint for the network.
func (n Network) AttestationEndpoint() string {
	if n == NetworkBaseSepolia {
		return "https://base-sepolia.easscan.org/graphql"
	}
	return "https://base.easscan.org/graphql"
}
