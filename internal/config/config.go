package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string
	TaxRate  float64
	Currency string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

type MpesaConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	PassKey        string
	ShortCode      string
	BaseURL        string
	CallbackURL    string
	Timeout        time.Duration
}

type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Mpesa    MpesaConfig
}

// NewConfig reads configuration from the environment. A .env file at path is
// loaded first when present; real environment variables win.
func NewConfig(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: failed to load .env: %w", err)
		}
	}

	cfg := &Config{}

	cfg.App.Port = getEnv("APP_PORT", "8080")
	cfg.App.Currency = getEnv("CURRENCY", "KES")

	taxRate, err := getEnvFloat("TAX_RATE", 0.16)
	if err != nil {
		return nil, err
	}
	if taxRate < 0 || taxRate >= 1 {
		return nil, fmt.Errorf("config: TAX_RATE must be in [0, 1), got %v", taxRate)
	}
	cfg.App.TaxRate = taxRate

	cfg.Postgres.Host = getEnv("DB_HOST", "localhost")
	cfg.Postgres.Port = getEnv("DB_PORT", "5432")
	cfg.Postgres.User = os.Getenv("DB_USER")
	cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
	cfg.Postgres.DBName = os.Getenv("DB_NAME")
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute

	for name, value := range map[string]string{
		"DB_USER":     cfg.Postgres.User,
		"DB_PASSWORD": cfg.Postgres.Password,
		"DB_NAME":     cfg.Postgres.DBName,
	} {
		if value == "" {
			return nil, fmt.Errorf("config: %s is required", name)
		}
	}

	cfg.Mpesa.ConsumerKey = os.Getenv("MPESA_CONSUMER_KEY")
	cfg.Mpesa.ConsumerSecret = os.Getenv("MPESA_CONSUMER_SECRET")
	cfg.Mpesa.PassKey = os.Getenv("MPESA_PASS_KEY")
	cfg.Mpesa.ShortCode = os.Getenv("MPESA_SHORT_CODE")
	cfg.Mpesa.BaseURL = getEnv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke")
	cfg.Mpesa.CallbackURL = os.Getenv("MPESA_CALLBACK_URL")
	cfg.Mpesa.Timeout = 15 * time.Second

	for name, value := range map[string]string{
		"MPESA_CONSUMER_KEY":    cfg.Mpesa.ConsumerKey,
		"MPESA_CONSUMER_SECRET": cfg.Mpesa.ConsumerSecret,
		"MPESA_PASS_KEY":        cfg.Mpesa.PassKey,
		"MPESA_SHORT_CODE":      cfg.Mpesa.ShortCode,
		"MPESA_CALLBACK_URL":    cfg.Mpesa.CallbackURL,
	} {
		if value == "" {
			return nil, fmt.Errorf("config: %s is required", name)
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a number, got %q", key, v)
	}
	return f, nil
}
