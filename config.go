package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the marketplace order service.
type Config struct {
	Port        string
	Environment string

	// TaxRate is applied to the order subtotal at checkout, e.g. 0.08.
	TaxRate float64

	AssistantAPIURL  string
	AssistantAPIKey  string
	AssistantModel   string
	AssistantTimeout time.Duration
}

// LoadConfig reads configuration from the environment. Database settings
// are read separately by the database package.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8084"),
		Environment:     getEnv("APP_ENV", "development"),
		AssistantAPIURL: getEnv("ASSISTANT_API_URL", "https://api.openai.com/v1/chat/completions"),
		AssistantAPIKey: os.Getenv("ASSISTANT_API_KEY"),
		AssistantModel:  getEnv("ASSISTANT_MODEL", "gpt-4o-mini"),
	}

	taxRate, err := strconv.ParseFloat(getEnv("TAX_RATE", "0"), 64)
	if err != nil || taxRate < 0 || taxRate >= 1 {
		return nil, fmt.Errorf("TAX_RATE must be a fraction in [0, 1)")
	}
	cfg.TaxRate = taxRate

	timeoutSec, err := strconv.Atoi(getEnv("ASSISTANT_TIMEOUT_SECONDS", "10"))
	if err != nil || timeoutSec <= 0 {
		return nil, fmt.Errorf("ASSISTANT_TIMEOUT_SECONDS must be a positive integer")
	}
	cfg.AssistantTimeout = time.Duration(timeoutSec) * time.Second

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
