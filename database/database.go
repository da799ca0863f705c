package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
	"go.uber.org/zap"
)

// InitDB opens the bot's database and makes sure every table exists.
// Use ":memory:" for a throwaway database in tests.
func InitDB(dbPath string, logger *zap.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dbPath != ":memory:" {
		// Ensure the directory for the database file exists.
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open the SQLite database. It will be created if it doesn't exist.
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer; an in-memory database also lives on one connection
	db.SetMaxOpenConns(1)

	// Ping the database to verify the connection.
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createJournalTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal table: %w", err)
	}
	if err := createSessionsTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	logger.Info("connected to database", zap.String("path", dbPath))
	return db, nil
}

// createJournalTable creates the 'journal' table if it doesn't exist.
func createJournalTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS journal (
        id TEXT PRIMARY KEY,
        event_type TEXT NOT NULL,
        payload TEXT NOT NULL,
        telegram_user_id INTEGER,
        chat_id INTEGER,
        delivered INTEGER NOT NULL DEFAULT 0,
        created_at INTEGER NOT NULL
    );`
	if _, err := db.Exec(query); err != nil {
		return err
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_journal_created ON journal(created_at);",
		"CREATE INDEX IF NOT EXISTS idx_journal_type_created ON journal(event_type, created_at);",
	}
	for _, indexQuery := range indexes {
		if _, err := db.Exec(indexQuery); err != nil {
			return err
		}
	}
	return nil
}

// createSessionsTable creates the 'sessions' table if it doesn't exist.
func createSessionsTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS sessions (
        telegram_user_id INTEGER PRIMARY KEY,
        token TEXT NOT NULL,
        username TEXT,
        platform_user_id TEXT,
        email TEXT,
        created_at INTEGER NOT NULL
    );`
	_, err := db.Exec(query)
	return err
}
