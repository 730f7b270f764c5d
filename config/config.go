// Package config loads the gateway configuration from the environment once
// at startup. Invalid configuration is a load error, never a runtime one:
// the process must not start serving with an incomplete payment setup.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Config struct {
	Server   Server
	Payment  Payment
	Serper   Serper
	LogLevel string
}

type Server struct {
	Port string
	Name string
}

type Payment struct {
	// PayTo is the address that receives payments.
	PayTo string `validate:"required,eth_addr"`

	// Network is the blockchain network payments are expected on.
	Network string `validate:"required"`

	// TestingMode bypasses all payment and settlement checks.
	TestingMode bool

	// FacilitatorURL is the settlement authority endpoint. Required unless
	// TestingMode is on.
	FacilitatorURL string `validate:"omitempty,url"`

	// FacilitatorAPIKey authenticates calls to the facilitator.
	FacilitatorAPIKey string
}

type Serper struct {
	// APIKey is the server's internal Serper key. It doubles as the
	// internal credential: a caller presenting it bypasses payment.
	APIKey string

	// BaseURL overrides the upstream endpoint when set.
	BaseURL string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server: Server{
			Port: getEnvString("PORT", "8000"),
			Name: getEnvString("SERVER_NAME", "test-serper-api-mcp-server"),
		},
		Payment: Payment{
			PayTo:             getEnvString("SERVER_ADDRESS", ""),
			Network:           getEnvString("NETWORK", "sepolia"),
			TestingMode:       getEnvBool("D402_TESTING_MODE", false),
			FacilitatorURL:    getEnvString("FACILITATOR_URL", getEnvString("D402_FACILITATOR_URL", "")),
			FacilitatorAPIKey: getEnvString("D402_FACILITATOR_API_KEY", ""),
		},
		Serper: Serper{
			APIKey:  getEnvString("SERPER_API_KEY", ""),
			BaseURL: getEnvString("SERPER_BASE_URL", ""),
		},
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if !cfg.Payment.TestingMode && cfg.Payment.FacilitatorURL == "" {
		return nil, fmt.Errorf("FACILITATOR_URL is required when D402_TESTING_MODE is disabled")
	}

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}
