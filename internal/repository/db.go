package repository

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/aromat/cashflow/internal/domain"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_summaries (
			date TEXT PRIMARY KEY,
			sum_region1 TEXT NOT NULL,
			sum_region2 TEXT NOT NULL,
			sum_card TEXT NOT NULL,
			sum_paypal TEXT NOT NULL,
			sum_transfer TEXT NOT NULL,
			sum_unknown TEXT NOT NULL DEFAULT '0',
			total_sum TEXT NOT NULL,
			order_count INTEGER NOT NULL,
			currency_code TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS payout_plan (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			settlement_date TEXT NOT NULL,
			channel_label TEXT NOT NULL,
			amount TEXT NOT NULL,
			source_date TEXT NOT NULL,
			order_count INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payout_plan_source ON payout_plan(source_date)`,
		`CREATE INDEX IF NOT EXISTS idx_payout_plan_settlement ON payout_plan(settlement_date)`,
		`CREATE INDEX IF NOT EXISTS idx_payout_plan_channel ON payout_plan(channel_label)`,

		`CREATE TABLE IF NOT EXISTS bank_holidays (
			date TEXT PRIMARY KEY
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}

// storeErr wraps a database error into the integration taxonomy. Lock and
// busy conditions are write conflicts; everything else means the store is
// unavailable for this operation.
func storeErr(op string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") {
		return domain.NewIntegrationError(domain.StoreWriteConflict, op, err)
	}
	return domain.NewIntegrationError(domain.StoreUnavailable, op, err)
}
