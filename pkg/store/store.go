package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // database/sql driver "sqlite"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Config configures a DB.
type Config struct {
	// Logger receives lookup failures from methods that cannot return an
	// error. Nil disables logging.
	Logger *slog.Logger

	// Timeout bounds lookups made without a context.
	Timeout time.Duration
}

// DefaultConfig returns a configuration with a 5 second lookup timeout.
func DefaultConfig() Config {
	return Config{Timeout: 5 * time.Second}
}

// DB is a SQLite backed store.
type DB struct {
	db     *sql.DB
	config Config
}

// Open creates or opens the database file at path and creates the tables.
func Open(ctx context.Context, path string, config Config) (*DB, error) {
	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := Init(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, config), nil
}

// New wraps an initialized database.
func New(db *sql.DB, config Config) *DB {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &DB{db: db, config: config}
}

// Init creates the tables if they do not exist. It does not migrate
// tables created with another schema.
func Init(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS oscore_parameters
			( recipient_id BLOB PRIMARY KEY
			, uri TEXT UNIQUE
			, params BLOB NOT NULL
			)`,
		`CREATE TABLE IF NOT EXISTS bootstrap_configs
			( endpoint TEXT PRIMARY KEY
			, config TEXT NOT NULL
			, updated_at INTEGER NOT NULL
			)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) lookupContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.config.Timeout)
}

func (d *DB) errorLog(msg string, args ...any) {
	if d.config.Logger != nil {
		d.config.Logger.Error(msg, args...)
	}
}

// inTx runs fn in a transaction, committing when fn succeeds.
func (d *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
