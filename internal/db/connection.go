package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/ukpostcodes/internal/config"
	"github.com/ukpostcodes/internal/corpus"
	"github.com/ukpostcodes/internal/debug"
)

// Drivers accepted in configuration.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverCSV      = "csv"
)

// Connection holds the opened directory and, for SQL backends, the handle
// behind it.
type Connection struct {
	DB     *sql.DB
	Store  corpus.Store
	Driver string
}

// Close closes the database connection
func (c *Connection) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// Open connects to the directory selected by the settings.
func Open(ctx context.Context, s config.Settings, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defer debug.Timing(logger, s.Debug, "open "+s.Driver+" directory")()

	switch strings.ToLower(s.Driver) {
	case DriverCSV:
		m, err := corpus.LoadCSV(s.DBPath)
		if err != nil {
			return nil, err
		}
		logger.Info("directory snapshot loaded", "path", s.DBPath, "postcodes", m.Len())
		return &Connection{Store: m, Driver: DriverCSV}, nil

	case DriverSQLite, "":
		// sqlite would create a missing file; refuse instead.
		if _, err := os.Stat(s.DBPath); err != nil {
			return nil, fmt.Errorf("sqlite directory %s: %w", s.DBPath, err)
		}
		db, err := openSQL(ctx, "sqlite", s.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite directory %s: %w", s.DBPath, err)
		}
		store := corpus.NewSQLStore(db, corpus.SQLite, corpus.WithSource(s.DBPath), corpus.WithLogger(logger))
		return &Connection{DB: db, Store: store, Driver: DriverSQLite}, nil

	case DriverPostgres:
		if s.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres driver needs %sDATABASE_URL", config.Prefix)
		}
		db, err := openSQL(ctx, "postgres", s.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres directory: %w", err)
		}
		// Set connection pool settings
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		store := corpus.NewSQLStore(db, corpus.Postgres, corpus.WithLogger(logger))
		return &Connection{DB: db, Store: store, Driver: DriverPostgres}, nil
	}
	return nil, fmt.Errorf("unknown directory driver %q (want %s, %s or %s)",
		s.Driver, DriverSQLite, DriverPostgres, DriverCSV)
}

// Create opens a writable SQL directory, creating the sqlite file if needed,
// and makes sure the postcodes table and its indexes exist.
func Create(ctx context.Context, s config.Settings, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		db      *sql.DB
		dialect corpus.Dialect
		err     error
		opts    = []corpus.SQLOption{corpus.WithLogger(logger)}
	)
	switch strings.ToLower(s.Driver) {
	case DriverSQLite, "":
		db, err = openSQL(ctx, "sqlite", s.DBPath)
		dialect = corpus.SQLite
		opts = append(opts, corpus.WithSource(s.DBPath))
	case DriverPostgres:
		if s.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres driver needs %sDATABASE_URL", config.Prefix)
		}
		db, err = openSQL(ctx, "postgres", s.DatabaseURL)
		dialect = corpus.Postgres
	default:
		return nil, fmt.Errorf("cannot create a %q directory (want %s or %s)", s.Driver, DriverSQLite, DriverPostgres)
	}
	if err != nil {
		return nil, err
	}

	store := corpus.NewSQLStore(db, dialect, opts...)
	if err := store.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Connection{DB: db, Store: store, Driver: dialect.String()}, nil
}

func openSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
