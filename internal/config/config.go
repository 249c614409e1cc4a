// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"hubcoin-miner/pkg/db"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort        string
	BotToken          string
	FrontendURL       string
	AdminTelegramID   int64
	RedisAddr         string
	RedisPassword     string
	StaticDir         string
	WithdrawalGemRate decimal.Decimal
	DB                db.Config
}

// serviceCredential is the store service-credential payload, provided as a
// single JSON environment value.
type serviceCredential struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	User       string `json:"user"`
	Password   string `json:"password"`
	DBName     string `json:"db_name"`
	SSLMode    string `json:"ssl_mode"`
	PrivateKey string `json:"private_key"`
}

// LoadConfig loads configuration from environment variables. Missing or
// malformed credentials are returned as errors; main treats them as fatal.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		return nil, fmt.Errorf("FRONTEND_URL is required")
	}
	credRaw := os.Getenv("STORE_SERVICE_ACCOUNT_JSON")
	if credRaw == "" {
		return nil, fmt.Errorf("STORE_SERVICE_ACCOUNT_JSON is required")
	}
	dbCfg, err := ParseServiceCredential(credRaw)
	if err != nil {
		return nil, err
	}

	adminID, err := strconv.ParseInt(getEnv("ADMIN_TELEGRAM_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	gemRate, err := decimal.NewFromString(getEnv("WITHDRAWAL_GEM_RATE", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid WITHDRAWAL_GEM_RATE: %w", err)
	}

	return &AppConfig{
		ServerPort:        getEnv("SERVER_PORT", "10000"),
		BotToken:          botToken,
		FrontendURL:       frontendURL,
		AdminTelegramID:   adminID,
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		StaticDir:         getEnv("STATIC_DIR", "static"),
		WithdrawalGemRate: gemRate,
		DB:                dbCfg,
	}, nil
}

// ParseServiceCredential decodes the store credential JSON. The embedded
// private key carries literal `\n` escapes which must be unescaped before
// the key material is usable.
func ParseServiceCredential(raw string) (db.Config, error) {
	var cred serviceCredential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return db.Config{}, fmt.Errorf("malformed STORE_SERVICE_ACCOUNT_JSON: %w", err)
	}
	if cred.Host == "" || cred.User == "" || cred.DBName == "" {
		return db.Config{}, fmt.Errorf("store credential missing host, user or db_name")
	}
	if cred.Port == 0 {
		cred.Port = 5432
	}
	if cred.SSLMode == "" {
		cred.SSLMode = "disable"
	}

	return db.Config{
		Host:       cred.Host,
		Port:       cred.Port,
		User:       cred.User,
		Password:   cred.Password,
		DBName:     cred.DBName,
		SSLMode:    cred.SSLMode,
		PrivateKey: strings.ReplaceAll(cred.PrivateKey, `\n`, "\n"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
