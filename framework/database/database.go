// Package database wraps a sqlx connection configured from DBConfig.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/km-arc/go-zelasli/framework/config"

	_ "modernc.org/sqlite" // Pure Go SQLite, registered as "sqlite"
)

// Memory is the sqlite database name for a private in-memory database.
const Memory = ":memory:"

var (
	ErrNoDriver     = errors.New("database: driver not specified")
	ErrNotConnected = errors.New("database: not connected")
)

// DB is a database connection pool.
type DB struct {
	conn   *sqlx.DB
	cfg    config.DBConfig
	logger *zap.Logger

	slowQuery time.Duration
}

// Connect opens and pings a connection for cfg.
//
// sqlite databases live in cfg.Path/cfg.Database, which is created on
// demand; Memory opens a private in-memory database. Other drivers get a
// DSN built from host, port, credentials and database name, and must be
// registered by the application.
func Connect(ctx context.Context, cfg config.DBConfig, logger *zap.Logger) (*DB, error) {
	if cfg.Driver == "" {
		return nil, ErrNoDriver
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.ConnectContext(ctx, cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: connect %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" && cfg.Database == Memory {
		// every connection would see its own empty database
		conn.SetMaxOpenConns(1)
	}

	logger.Info("database connected",
		zap.String("driver", cfg.Driver),
		zap.String("database", cfg.Database))

	return &DB{conn: conn, cfg: cfg, logger: logger, slowQuery: time.Second}, nil
}

func dataSource(cfg config.DBConfig) (string, error) {
	switch cfg.Driver {
	case "sqlite":
		if cfg.Database == Memory {
			return Memory, nil
		}
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return "", fmt.Errorf("database: create %s: %w", cfg.Path, err)
		}
		return filepath.Join(cfg.Path, cfg.Database), nil
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database), nil
	case "postgres", "pgx":
		return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.Database, cfg.Username, cfg.Password), nil
	default:
		return fmt.Sprintf("host=%s;port=%s;dbname=%s", cfg.Host, cfg.Port, cfg.Database), nil
	}
}

// Conn returns the underlying sqlx handle.
func (d *DB) Conn() *sqlx.DB { return d.conn }

// DriverName returns the driver name.
func (d *DB) DriverName() string { return d.cfg.Driver }

// Close closes the pool.
func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

// Ping verifies the connection.
func (d *DB) Ping(ctx context.Context) error {
	if d.conn == nil {
		return ErrNotConnected
	}
	return d.conn.PingContext(ctx)
}

// Exec runs a statement without returning rows.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if d.conn == nil {
		return nil, ErrNotConnected
	}
	defer d.timed(query)()
	return d.conn.ExecContext(ctx, query, args...)
}

// Query runs a query with named parameters:
//
//	rows, err := db.Query(ctx, "SELECT * FROM posts WHERE author = :author", map[string]any{"author": id})
func (d *DB) Query(ctx context.Context, query string, params map[string]any) (*sqlx.Rows, error) {
	if d.conn == nil {
		return nil, ErrNotConnected
	}
	if params == nil {
		params = map[string]any{}
	}
	defer d.timed(query)()
	return d.conn.NamedQueryContext(ctx, query, params)
}

// Select runs a named-parameter query and scans all rows into dest.
func (d *DB) Select(ctx context.Context, dest any, query string, params map[string]any) error {
	q, args, err := d.bind(query, params)
	if err != nil {
		return err
	}
	defer d.timed(query)()
	return d.conn.SelectContext(ctx, dest, q, args...)
}

// Get runs a named-parameter query and scans one row into dest.
func (d *DB) Get(ctx context.Context, dest any, query string, params map[string]any) error {
	q, args, err := d.bind(query, params)
	if err != nil {
		return err
	}
	defer d.timed(query)()
	return d.conn.GetContext(ctx, dest, q, args...)
}

func (d *DB) bind(query string, params map[string]any) (string, []any, error) {
	if d.conn == nil {
		return "", nil, ErrNotConnected
	}
	if params == nil {
		params = map[string]any{}
	}
	q, args, err := sqlx.Named(query, params)
	if err != nil {
		return "", nil, fmt.Errorf("database: bind %q: %w", query, err)
	}
	return d.conn.Rebind(q), args, nil
}

// WithTransaction runs fn in a transaction, committing when it returns nil.
func (d *DB) WithTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if d.conn == nil {
		return ErrNotConnected
	}
	tx, err := d.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (d *DB) timed(query string) func() {
	start := time.Now()
	return func() {
		if elapsed := time.Since(start); elapsed >= d.slowQuery {
			d.logger.Warn("slow query", zap.String("query", query), zap.Duration("duration", elapsed))
		}
	}
}
