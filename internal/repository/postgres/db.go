package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/greenmart/groceryapi/internal/config"
	"github.com/greenmart/groceryapi/internal/pricing"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repository can
// run standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// NewConnection opens a postgres connection pool
func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}

// parseMoney normalizes a monetary column the driver hands back as text.
// An unparsable value is a data error, never silently zero.
func parseMoney(raw string) (decimal.Decimal, error) {
	d, ok := pricing.ParseAmount(raw)
	if !ok {
		return decimal.Zero, fmt.Errorf("unparsable monetary value %q", raw)
	}
	return d, nil
}

// parseNullMoney is parseMoney for nullable columns.
func parseNullMoney(raw sql.NullString) (*decimal.Decimal, error) {
	if !raw.Valid {
		return nil, nil
	}
	d, err := parseMoney(raw.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
