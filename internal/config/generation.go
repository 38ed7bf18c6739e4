package config

import (
	"os"
	"strconv"
	"time"
)

// TierSettings tunes one quality tier of the generation provider.
type TierSettings struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

type GenerationConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Basic   TierSettings
	Premium TierSettings
}

func LoadGenerationConfig() *GenerationConfig {
	return &GenerationConfig{
		APIKey:  getEnv("GENERATION_API_KEY", ""),
		BaseURL: getEnv("GENERATION_BASE_URL", "https://api.openai.com/v1"),
		Timeout: getEnvAsDuration("GENERATION_TIMEOUT", 25*time.Second),
		Basic: TierSettings{
			Model:       getEnv("GENERATION_BASIC_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvAsInt("GENERATION_BASIC_MAX_TOKENS", 300),
			Temperature: getEnvAsFloat("GENERATION_BASIC_TEMPERATURE", 0.7),
		},
		Premium: TierSettings{
			Model:       getEnv("GENERATION_PREMIUM_MODEL", "gpt-4o"),
			MaxTokens:   getEnvAsInt("GENERATION_PREMIUM_MAX_TOKENS", 900),
			Temperature: getEnvAsFloat("GENERATION_PREMIUM_TEMPERATURE", 0.9),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
