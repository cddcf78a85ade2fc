package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the SQLite database at dbPath and creates the schema.
func InitDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Every :memory: connection is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %s: %w", p, err)
		}
	}

	if err := createSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// CloseDB closes the database.
func CloseDB(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func createSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		faculty TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS enrollments (
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		student_id TEXT NOT NULL,
		PRIMARY KEY (course_id, student_id)
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		recorded_at INTEGER NOT NULL,
		status TEXT NOT NULL,
		UNIQUE (course_id, student_id, recorded_at)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_course ON attendance(course_id);
	CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance(student_id);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return nil
}
