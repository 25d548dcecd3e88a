// Package database stores ritual checkpoints in SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// Database wraps the SQL connection and the dialect used to talk to it.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the database described by cfg and creates the schema.
func OpenWithConfig(cfg Config) (*Database, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	var dsn string
	switch dialect.(type) {
	case *PostgresDialect:
		dsn = cfg.Postgres.DSN()
	default:
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = cfg.SQLitePath
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, ok := dialect.(*PostgresDialect); ok {
		if cfg.Postgres.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		}
		if cfg.Postgres.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		}
		if cfg.Postgres.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		}
	} else {
		// One connection keeps PRAGMAs in effect for every statement
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database (%s): %w", stmt, err)
		}
	}

	d := &Database{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS ritual_checkpoints (
			run_id TEXT PRIMARY KEY,
			seed ` + d.dialect.BigIntType() + ` NOT NULL,
			plan_fingerprint TEXT NOT NULL,
			next_action_index INTEGER NOT NULL,
			placed_count INTEGER NOT NULL,
			failed_action_ids TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}
