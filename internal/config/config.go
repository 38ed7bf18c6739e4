package config

import (
	"errors"
	"io/fs"

	"github.com/spf13/viper"
)

// Config holds application settings that are read through viper.
type Config struct {
	Port        string
	Storage     string
	JWTSecret   string
	PricingFile string
	SignupBonus int64
	LogLevel    string
	LogFormat   string
	Razorpay    RazorpayConfig
}

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
}

// Load reads .env and the environment into viper and returns the resolved Config.
// A missing .env file is not an error.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	bindings := map[string]string{
		"server.port":             "PORT",
		"storage.backend":         "STORAGE_BACKEND",
		"database.host":           "DATABASE_HOST",
		"database.port":           "DATABASE_PORT",
		"database.user":           "DATABASE_USER",
		"database.password":       "DATABASE_PASSWORD",
		"database.name":           "DATABASE_NAME",
		"database.ssl_mode":       "DATABASE_SSL_MODE",
		"redis.host":              "REDIS_HOST",
		"redis.port":              "REDIS_PORT",
		"redis.password":          "REDIS_PASSWORD",
		"redis.db":                "REDIS_DB",
		"jwt.secret_key":          "JWT_SECRET_KEY",
		"pricing.file":            "PRICING_FILE",
		"credits.signup_bonus":    "CREDITS_SIGNUP_BONUS",
		"log.level":               "LOG_LEVEL",
		"log.format":              "LOG_FORMAT",
		"razorpay.key_id":         "RAZORPAY_KEY_ID",
		"razorpay.key_secret":     "RAZORPAY_KEY_SECRET",
		"razorpay.webhook_secret": "RAZORPAY_WEBHOOK_SECRET",
		"razorpay.base_url":       "RAZORPAY_BASE_URL",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("storage.backend", "postgres")
	viper.SetDefault("credits.signup_bonus", 5)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("razorpay.base_url", "https://api.razorpay.com/v1")

	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return &Config{
		Port:        viper.GetString("server.port"),
		Storage:     viper.GetString("storage.backend"),
		JWTSecret:   viper.GetString("jwt.secret_key"),
		PricingFile: viper.GetString("pricing.file"),
		SignupBonus: viper.GetInt64("credits.signup_bonus"),
		LogLevel:    viper.GetString("log.level"),
		LogFormat:   viper.GetString("log.format"),
		Razorpay: RazorpayConfig{
			KeyID:         viper.GetString("razorpay.key_id"),
			KeySecret:     viper.GetString("razorpay.key_secret"),
			WebhookSecret: viper.GetString("razorpay.webhook_secret"),
			BaseURL:       viper.GetString("razorpay.base_url"),
		},
	}, nil
}
