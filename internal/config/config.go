package config

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"invio/internal/logger"
)

// Config carries all deployment-time settings. Everything defaults to
// the local hardhat demo deployment so the tool runs against a fresh
// `hardhat node` with no configuration at all.
type Config struct {
	// Chain RPC access
	RPCURL    string
	RPCAPIKey string // Optional bearer token for hosted RPC providers
	ChainID   string // Numeric or 0x-hex; resolved to contract addresses

	// WalletConnect project identifier (recognized for parity with the
	// web deployment; unused by the CLI transport)
	WalletConnectProjectID string

	// Contract address overrides; empty means "resolve from chain id"
	LedgerAddress string
	TokenAddress  string

	// Wallet
	PrivateKey        string // Hex-encoded; empty means read-only session
	FallbackRecipient string // Recipient used when a draft has no parseable client address

	// HTTP API
	ListenAddr string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		RPCURL:                 getEnv("ETH_RPC_URL", "http://127.0.0.1:8545"),
		RPCAPIKey:              getEnv("RPC_API_KEY", ""),
		ChainID:                getEnv("ETH_CHAIN_ID", "31337"),
		WalletConnectProjectID: getEnv("WALLETCONNECT_PROJECT_ID", ""),
		LedgerAddress:          getEnv("INVOICE_CONTRACT_ADDRESS", ""),
		TokenAddress:           getEnv("MOCK_USDC_ADDRESS", ""),
		PrivateKey:             getEnv("ETH_PRIVATE_KEY", ""),
		FallbackRecipient:      getEnv("FALLBACK_RECIPIENT", ""),
		ListenAddr:             getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:          getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:              getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("ETH_RPC_URL is required")
	}
	if c.LedgerAddress != "" && !common.IsHexAddress(c.LedgerAddress) {
		return fmt.Errorf("INVOICE_CONTRACT_ADDRESS is not a valid address: %s", c.LedgerAddress)
	}
	if c.TokenAddress != "" && !common.IsHexAddress(c.TokenAddress) {
		return fmt.Errorf("MOCK_USDC_ADDRESS is not a valid address: %s", c.TokenAddress)
	}
	if c.FallbackRecipient != "" && !common.IsHexAddress(c.FallbackRecipient) {
		return fmt.Errorf("FALLBACK_RECIPIENT is not a valid address: %s", c.FallbackRecipient)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
