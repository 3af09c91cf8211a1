package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"perpclient/client"

	"github.com/caarlos0/env/v11"
)

var hexPattern = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)

// Config holds the settings read by the command line demo.
type Config struct {
	RPCURL       string        `env:"PERP_RPC_URL" envDefault:"https://testnet-rpc.foundation.network/perpetual"`
	PrivateKey   string        `env:"PERP_PRIVATE_KEY"`
	AccountID    string        `env:"PERP_ACCOUNT_ID"`
	ConfigMethod string        `env:"PERP_CONFIG_METHOD" envDefault:"core_get_config"`
	Decimals     int32         `env:"PERP_DECIMALS" envDefault:"18"`
	ChainID      int64         `env:"PERP_CHAIN_ID"`
	HTTPTimeout  time.Duration `env:"PERP_HTTP_TIMEOUT" envDefault:"30s"`
	PlaceOrders  bool          `env:"PERP_PLACE_ORDERS" envDefault:"false"`
	BookDepth    int           `env:"PERP_BOOK_DEPTH" envDefault:"20"`
	MetricsAddr  string        `env:"PERP_METRICS_ADDR"`
	APIKey       string        `env:"PERP_API_KEY"`
	APIKeyHeader string        `env:"PERP_API_KEY_HEADER" envDefault:"X-API-Key"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	scheme, _, ok := strings.Cut(c.RPCURL, "://")
	if !ok {
		return fmt.Errorf("invalid rpc url: %s", c.RPCURL)
	}
	switch scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported rpc url scheme: %s", scheme)
	}

	switch c.ConfigMethod {
	case client.DefaultConfigMethod, client.TradingConfigMethod:
	default:
		return fmt.Errorf("invalid config method: %s", c.ConfigMethod)
	}

	if c.Decimals < 0 || c.Decimals > 36 {
		return fmt.Errorf("decimals out of range: %d", c.Decimals)
	}
	if c.ChainID < 0 {
		return fmt.Errorf("invalid chain id: %d", c.ChainID)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.BookDepth < 1 {
		return fmt.Errorf("book depth must be at least 1, got %d", c.BookDepth)
	}

	if c.AccountID != "" && (!hexPattern.MatchString(c.AccountID) || len(c.AccountID) != 66) {
		return fmt.Errorf("account id must be 0x-prefixed 32-byte hex")
	}
	if c.PlaceOrders && (c.PrivateKey == "" || c.AccountID == "") {
		return fmt.Errorf("placing orders requires PERP_PRIVATE_KEY and PERP_ACCOUNT_ID")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}
