package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed migrations
var migrationFiles embed.FS

// Open connects to the database, retrying PostgreSQL while it comes up.
// SQLite is opened with a single connection so ":memory:" databases are
// shared by every caller of the pool.
func Open(ctx context.Context, driver, databaseURL string) (*sqlx.DB, error) {
	if driver == DriverSQLite {
		db, err := sqlx.ConnectContext(ctx, driver, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("could not open sqlite database: %w", err)
		}
		db.SetMaxOpenConns(1)
		return db, nil
	}

	const maxRetries = 10
	const retryInterval = 2 * time.Second
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		var db *sqlx.DB
		db, err = sqlx.ConnectContext(ctx, driver, databaseURL)
		if err == nil {
			log.Info().Str("driver", driver).Msg("connected to database")
			return db, nil
		}

		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", retryInterval)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, err)
}

// RunMigrations executes the embedded "*.up.sql" files for the connection's
// dialect in name order. Every migration is idempotent, so this runs on
// every start.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	dialect, err := dialectDir(db.DriverName())
	if err != nil {
		return err
	}

	files, err := fs.Glob(migrationFiles, path.Join("migrations", dialect, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		sqlBytes, err := migrationFiles.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration %q: %w", file, err)
		}
		if len(sqlBytes) == 0 {
			continue
		}
		if _, err := db.ExecContext(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("error executing migration %q: %w", file, err)
		}
		log.Debug().Str("migration", file).Msg("[db] migration applied")
	}
	return nil
}

func dialectDir(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "postgres", nil
	case DriverSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}
