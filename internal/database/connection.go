package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. dbType is "sqlite" or
// "postgres"; dsn is the postgres DSN and ignored for sqlite, which lives in
// dataDir.
func Connect(dbType, dsn, dataDir string) error {
	var db *sqlx.DB
	var err error

	switch dbType {
	case "postgres":
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		db.SetMaxOpenConns(10)
	default:
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		dbPath := filepath.Join(dataDir, "gclearnbot.db")
		db, err = sqlx.Connect("sqlite3", dbPath)
		if err != nil {
			return fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	DB = db
	return initializeSchema()
}

// ConnectForTest opens an in-memory sqlite database with the full schema.
func ConnectForTest() error {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)
	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// Ping performs a round-trip health check.
func Ping() error {
	if DB == nil {
		return fmt.Errorf("database connection is not established")
	}
	return DB.Ping()
}

// autoIncrementPK returns the auto-incrementing primary key clause for the
// given driver. Postgres has no AUTOINCREMENT keyword.
func autoIncrementPK(driver string) string {
	if driver == "postgres" {
		return "SERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	pk := autoIncrementPK(DB.DriverName())

	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id ` + pk + `,
			platform TEXT NOT NULL,
			platform_id TEXT NOT NULL,
			username TEXT DEFAULT '',
			first_name TEXT DEFAULT '',
			last_name TEXT DEFAULT '',
			email TEXT DEFAULT '',
			password_hash TEXT DEFAULT '',
			is_admin BOOLEAN DEFAULT false,
			current_lesson TEXT DEFAULT '',
			completed_lessons TEXT DEFAULT '[]',
			completion_rate REAL DEFAULT 0,
			total_responses INTEGER DEFAULT 0,
			last_active TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(platform, platform_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS journal_entries (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			lesson TEXT NOT NULL,
			response TEXT NOT NULL,
			response_length INTEGER NOT NULL,
			keywords_used TEXT DEFAULT '[]',
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create journal_entries table: %w", err)
	}

	_, err = DB.Exec(`
		CREATE INDEX IF NOT EXISTS idx_journal_user_time
		ON journal_entries(user_id, timestamp)
	`)
	if err != nil {
		return fmt.Errorf("failed to create journal index: %w", err)
	}

	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id ` + pk + `,
			company TEXT NOT NULL,
			lesson TEXT NOT NULL,
			description TEXT NOT NULL,
			requirements TEXT DEFAULT '[]',
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}

	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS feedback_notes (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			processed BOOLEAN DEFAULT false,
			category TEXT DEFAULT '',
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create feedback_notes table: %w", err)
	}

	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS user_skills (
			user_id INTEGER NOT NULL,
			skill TEXT NOT NULL,
			level TEXT DEFAULT 'beginner',
			recent_scores TEXT DEFAULT '[]',
			highest_score REAL DEFAULT 0,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, skill),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create user_skills table: %w", err)
	}

	return nil
}
