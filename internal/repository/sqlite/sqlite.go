// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code, so no C compiler is needed.
//
// The pattern is always:
//  1. sql.Open(driverName, dataSourceName) → creates a pool
//  2. db.QueryContext / db.ExecContext     → runs queries
//  3. rows.Scan(&field1, &field2)          → reads results into Go variables
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/guestbook/internal/repository"
)

// compile-time check that *DB implements repository.Store
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and hands out the repositories built on it.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/guestbook.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (great for tests, lost on close)
//
// sql.Open() does NOT actually open a connection; it just creates a pool manager.
// We call Ping() to force an immediate connection and verify it works.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection. A second pooled connection
	// would see an empty schema, so pin the pool to one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn turns a file path into a connection string whose pragmas the driver
// applies to EVERY connection it opens. A PRAGMA sent through conn.Exec
// would only reach whichever pooled connection happened to run it.
//
//	busy_timeout(5000) → a writer waits up to 5s for the lock instead of
//	                     failing at once with SQLITE_BUSY, so racing
//	                     registrations reach the UNIQUE check and conflict
//	journal_mode(WAL)  → readers don't block the writer
func dsn(dbPath string) string {
	if dbPath == ":memory:" {
		return dbPath // single connection; nothing to wait on
	}
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Users returns the user repository backed by this database.
func (db *DB) Users() repository.UserRepository {
	return &UserDB{conn: db.conn}
}

// Messages returns the message repository backed by this database.
func (db *DB) Messages() repository.MessageRepository {
	return &MessageDB{conn: db.conn}
}

// Ping checks that the database is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
//
// Wherever you call New(), immediately defer Close():
//
//	db, err := sqlite.New("data/guestbook.db")
//	if err != nil { ... }
//	defer db.Close()
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema.
//
// CREATE TABLE IF NOT EXISTS is safe to run on every start: it won't error
// if the table exists.
//
// The UNIQUE constraints are load-bearing: they are the only thing that
// stops two concurrent registrations from claiming the same name or email.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			access_token  TEXT NOT NULL UNIQUE,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id         TEXT PRIMARY KEY,
			message    TEXT NOT NULL,
			likes      INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating messages table: %w", err)
	}

	return nil
}

// uniqueViolation reports whether err is a UNIQUE constraint failure and, if
// so, which users column caused it.
//
// SQLite's message looks like:
//
//	UNIQUE constraint failed: users.email
func uniqueViolation(err error) (column string, ok bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return "", false
	}
	// The low byte of an extended result code is the primary code.
	if sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return "", false
	}

	msg := sqliteErr.Error()
	if sqliteErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE &&
		sqliteErr.Code() != sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY &&
		!strings.Contains(msg, "UNIQUE constraint failed") {
		return "", false
	}

	for _, col := range []string{"name", "email", "access_token", "id"} {
		if strings.Contains(msg, "users."+col) {
			return col, true
		}
	}
	return "", true
}
