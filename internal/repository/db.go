package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN         string // postgres URL, sqlite file path, or ":memory:"
	DialTimeout time.Duration
}

// Open connects to the ledger database. Postgres URLs go through the pgx
// stdlib driver; anything else is treated as a sqlite path. An empty DSN
// opens ./docket.db next to the working directory.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, dsn := resolveDriver(cfg.DSN)
	logger.Info("connecting to ledger", "driver", driver, "dsn", dsn)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		logger.Error("failed to open ledger", "driver", driver, "error", err)
		return nil, err
	}
	if driver == "sqlite" {
		// the orchestrator is the single writer; one connection avoids
		// SQLITE_BUSY on the shared in-memory case
		db.SetMaxOpenConns(1)
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("ledger ping failed", "error", err)
		_ = db.Close()
		return nil, err
	}

	logger.Info("successfully connected to ledger")
	return db, nil
}

// OpenInMemory opens a private in-memory sqlite ledger, used by tests and the
// --inmem flag.
func OpenInMemory(ctx context.Context, logger *slog.Logger) (*sql.DB, error) {
	return Open(ctx, Config{DSN: ":memory:"}, logger)
}

// Close closes the ledger connection gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	logger.Info("closing ledger connection")
	if err := db.Close(); err != nil {
		logger.Error("failed to close ledger", "error", err)
	}
}

// HealthCheck pings the ledger to catch DSN issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging ledger")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}

func resolveDriver(dsn string) (driver, resolved string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dsn
	case dsn == "":
		return "sqlite", "./docket.db"
	default:
		return "sqlite", dsn
	}
}
