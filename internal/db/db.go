package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"raffle-5050/internal/logger"

	"go.uber.org/zap"
)

// Open connects to the ledger database. libsql:// (and https://) URLs are
// served by Turso; anything else is a local sqlite3 data source.
func Open(ctx context.Context, dataSourceName, authToken string) (*sql.DB, error) {
	driver, dsn := resolve(dataSourceName, authToken)

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite3" {
		// One writer connection; register transactions serialize on it.
		conn.SetMaxOpenConns(1)
	}

	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	if err = CreateTables(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("database ready", zap.String("driver", driver))
	return conn, nil
}

func resolve(dataSourceName, authToken string) (string, string) {
	if strings.HasPrefix(dataSourceName, "libsql://") || strings.HasPrefix(dataSourceName, "https://") {
		if authToken == "" {
			return "libsql", dataSourceName
		}
		sep := "?"
		if strings.Contains(dataSourceName, "?") {
			sep = "&"
		}
		return "libsql", dataSourceName + sep + "authToken=" + url.QueryEscape(authToken)
	}
	return "sqlite3", dataSourceName
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pool (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		total_funds INTEGER NOT NULL DEFAULT 0,
		tickets_sold INTEGER NOT NULL DEFAULT 0,
		last_ticket_number INTEGER NOT NULL DEFAULT 0
	)`,
	`INSERT OR IGNORE INTO pool (id) VALUES (1)`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		ticket_count INTEGER NOT NULL,
		first_ticket INTEGER NOT NULL UNIQUE,
		last_ticket INTEGER NOT NULL UNIQUE,
		total_paid INTEGER NOT NULL,
		payment_method TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS draws (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_number INTEGER NOT NULL,
		registration_id TEXT NOT NULL,
		total_funds INTEGER NOT NULL,
		drawn_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(registration_id) REFERENCES registrations(id)
	)`,
}

// CreateTables applies the schema. Every statement is idempotent.
func CreateTables(ctx context.Context, conn *sql.DB) error {
	for i, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			logger.Error("error creating tables", zap.Int("statement", i), zap.Error(err))
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
