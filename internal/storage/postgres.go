package storage

import (
	"context"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/plotweave/backend/internal/util"
)

// NewPGPool connects to the database configured through DATABASE_URL. The
// ping is retried a few times to ride out container startup races.
func NewPGPool(ctx context.Context) (*pgxpool.Pool, error) {
	conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		return nil, err
	}
	if err := util.RetryErrWithContext(ctx, 5, conn.Ping); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// RunMigrations applies the SQL migrations from MIGRATIONS_DIR (default
// ./migrations) against DATABASE_URL. An already up-to-date schema is not
// an error.
func RunMigrations() error {
	sourceURL := "file://" + util.GetEnvString("MIGRATIONS_DIR", "migrations")
	m, err := migrate.New(sourceURL, util.GetEnv("DATABASE_URL"))
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
