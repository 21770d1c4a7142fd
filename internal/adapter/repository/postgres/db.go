package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection and fails fast if the store is
// unreachable. connectionString should be in the format:
// "host=localhost port=5432 user=postgres password=postgres dbname=stockfolio sslmode=disable"
func NewDB(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate creates the schema if it does not exist. The unique index on
// (owner_id, ticker) makes lookup-by-ticker well defined and gives ordered
// bulk inserts their natural first-failure on duplicates.
func (db *DB) Migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS user_stocks (
			id        UUID PRIMARY KEY,
			owner_id  TEXT NOT NULL,
			ticker    TEXT NOT NULL,
			category  TEXT NOT NULL DEFAULT 'wishlist',
			quantity  NUMERIC(20, 8) NOT NULL DEFAULT 0,
			avg_price NUMERIC(20, 8) NOT NULL DEFAULT 0,
			ai_report JSONB
		);

		CREATE UNIQUE INDEX IF NOT EXISTS user_stocks_owner_ticker_idx
			ON user_stocks (owner_id, ticker);

		CREATE INDEX IF NOT EXISTS user_stocks_owner_category_idx
			ON user_stocks (owner_id, category);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
