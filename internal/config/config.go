// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`

	DBDriver string `mapstructure:"db_driver"` // sqlite or postgres
	DBDSN    string `mapstructure:"db_dsn"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	// Cron expressions for the scheduler jobs.
	BillingSchedule string `mapstructure:"billing_schedule"`
	OverdueSchedule string `mapstructure:"overdue_schedule"`

	BillingWorkers int `mapstructure:"billing_workers"`
	InvoiceDueDays int `mapstructure:"invoice_due_days"`

	Mpesa    MpesaConfig    `mapstructure:",squash"`
	RouterOS RouterOSConfig `mapstructure:",squash"`
}

type MpesaConfig struct {
	ConsumerKey    string `mapstructure:"mpesa_consumer_key"`
	ConsumerSecret string `mapstructure:"mpesa_consumer_secret"`
	ShortCode      string `mapstructure:"mpesa_shortcode"`
	Passkey        string `mapstructure:"mpesa_passkey"`
	BaseURL        string `mapstructure:"mpesa_base_url"`
	CallbackURL    string `mapstructure:"mpesa_callback_url"`
}

type RouterOSConfig struct {
	BaseURL  string `mapstructure:"routeros_base_url"`
	Username string `mapstructure:"routeros_username"`
	Password string `mapstructure:"routeros_password"`
}

func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "file:wifinity.db")
	v.SetDefault("redis_addr", "")
	v.SetDefault("billing_schedule", "5 0 * * *") // daily at 00:05 UTC
	v.SetDefault("overdue_schedule", "0 * * * *") // hourly
	v.SetDefault("billing_workers", 8)
	v.SetDefault("invoice_due_days", 3)
	v.SetDefault("mpesa_base_url", "https://sandbox.safaricom.co.ke")
	v.SetDefault("routeros_base_url", "")

	keys := []string{
		"http_addr", "db_driver", "db_dsn",
		"redis_addr", "redis_password", "redis_db",
		"billing_schedule", "overdue_schedule",
		"billing_workers", "invoice_due_days",
		"mpesa_consumer_key", "mpesa_consumer_secret", "mpesa_shortcode",
		"mpesa_passkey", "mpesa_base_url", "mpesa_callback_url",
		"routeros_base_url", "routeros_username", "routeros_password",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
