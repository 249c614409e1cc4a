// pkg/db/postgres.go
package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Config holds the account-store connection configuration, decoded from the
// service-credential payload.
type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	PrivateKey string // Client TLS key, PEM; already unescaped by config loading
}

// ConnString builds the lib/pq connection string for cfg. Key material is
// staged to a file because lib/pq only accepts sslkey as a path.
func ConnString(cfg Config) (string, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	if cfg.PrivateKey != "" {
		keyPath, err := writeKeyFile(cfg.PrivateKey)
		if err != nil {
			return "", err
		}
		connStr += " sslkey=" + keyPath
	}
	return connStr, nil
}

// NewPostgresDB initializes and returns a new PostgreSQL connection for the
// account store. It uses sqlx for enhanced database operations.
func NewPostgresDB(cfg Config) (*sqlx.DB, error) {
	connStr, err := ConnString(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Ping the database to verify the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return db, nil
}

func writeKeyFile(pem string) (string, error) {
	f, err := os.CreateTemp("", "store-key-*.pem")
	if err != nil {
		return "", fmt.Errorf("failed to create key file: %w", err)
	}
	defer f.Close()
	if err := f.Chmod(0o600); err != nil {
		return "", fmt.Errorf("failed to chmod key file: %w", err)
	}
	if _, err := f.WriteString(pem); err != nil {
		return "", fmt.Errorf("failed to write key file: %w", err)
	}
	return f.Name(), nil
}
