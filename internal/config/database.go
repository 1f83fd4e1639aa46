package config

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect(cfg.Database.Driver, cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings. SQLite has a single writer, and an
	// in-memory database lives only as long as its one connection.
	if cfg.Database.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// moneyColumn returns the column type used for amounts. SQLite would coerce
// NUMERIC text into REAL, so amounts are kept as exact decimal strings there.
func moneyColumn(driver string) string {
	if driver == DriverSQLite {
		return "TEXT"
	}
	return "NUMERIC(12,2)"
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	money := moneyColumn(db.DriverName())

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS cash_shifts (
			id VARCHAR(36) PRIMARY KEY,
			terminal_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			user_name VARCHAR(255) NOT NULL,
			starting_cash %[1]s NOT NULL,
			total_cash_sales %[1]s NOT NULL,
			total_card_sales %[1]s NOT NULL,
			total_credit_sales %[1]s NOT NULL,
			total_sales %[1]s NOT NULL,
			transactions_count INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(10) NOT NULL,
			opened_at TIMESTAMP NOT NULL,
			closed_at TIMESTAMP,
			expected_total %[1]s,
			actual_total %[1]s,
			difference %[1]s,
			notes TEXT
		)`, money),
		// At most one open shift per terminal, enforced by the store itself
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_cash_shifts_one_open
			ON cash_shifts (terminal_id) WHERE status = 'open'`,
		`CREATE INDEX IF NOT EXISTS idx_cash_shifts_terminal_opened
			ON cash_shifts (terminal_id, opened_at)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sales (
			id VARCHAR(36) PRIMARY KEY,
			terminal_id VARCHAR(64) NOT NULL,
			shift_id VARCHAR(36) REFERENCES cash_shifts(id),
			user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			payment_method VARCHAR(10) NOT NULL,
			amount %s NOT NULL,
			business_day VARCHAR(10) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, money),
		`CREATE INDEX IF NOT EXISTS idx_sales_terminal_day
			ON sales (terminal_id, business_day)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
