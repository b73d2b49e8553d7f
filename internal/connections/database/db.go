package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"tableside/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// DB is a *sql.DB that remembers which engine it talks to. Repositories use
// it to pick engine specific SQL fragments.
type DB struct {
	*sql.DB
	Driver string
}

func ConnectDB(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(cfg.Path)
	case config.DriverPostgres:
		return connectPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// PostgresDSN is cfg.DSN when set, otherwise a keyword/value string built
// from the individual fields.
func PostgresDSN(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dsn := PostgresDSN(cfg)

	const (
		maxRetries = 10
		retryDelay = 2 * time.Second
		pingTTL    = 5 * time.Second
	)

	var db *sql.DB
	var err error

	for i := 1; i <= maxRetries; i++ {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			select {
			case <-time.After(retryDelay):
				continue
			case <-ctx.Done():
				return nil, fmt.Errorf("db open canceled: %w", ctx.Err())
			}
		}

		pctx, cancel := context.WithTimeout(ctx, pingTTL)
		err = db.PingContext(pctx)
		cancel()
		if err == nil {
			if cfg.MaxConns > 0 {
				db.SetMaxOpenConns(cfg.MaxConns)
			}
			return &DB{DB: db, Driver: config.DriverPostgres}, nil
		}

		_ = db.Close()

		select {
		case <-time.After(retryDelay):
			continue
		case <-ctx.Done():
			return nil, fmt.Errorf("db ping canceled: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("database unreachable after %d attempts: %w", maxRetries, err)
}

// OpenSQLite opens (creating if needed) a SQLite database file. The pool is
// limited to one connection, so transactions are serialized.
func OpenSQLite(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return &DB{DB: db, Driver: config.DriverSQLite}, nil
}

// ForUpdate is the row lock clause for SELECTs inside a transaction. SQLite
// has none; its single connection already serializes writers.
func (db *DB) ForUpdate() string {
	if db.Driver == config.DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Migrate creates the schema. Safe to run repeatedly.
func (db *DB) Migrate(ctx context.Context) error {
	b, err := schemaFS.ReadFile("schema/" + db.Driver + ".sql")
	if err != nil {
		return fmt.Errorf("no schema for driver %s: %w", db.Driver, err)
	}
	for _, stmt := range statements(string(b)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Drop removes every table created by Migrate.
func (db *DB) Drop(ctx context.Context) error {
	for _, table := range []string{"order_status_log", "order_lines", "orders", "products", "dining_tables", "employees"} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}

func statements(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
