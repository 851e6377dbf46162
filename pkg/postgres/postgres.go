package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DRSN-tech/fontus/internal/cfg"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/DRSN-tech/fontus/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const pingTimeout = 5 * time.Second

// PgDatabase инкапсулирует пул соединений PostgreSQL и применение миграций.
type PgDatabase struct {
	Pool *pgxpool.Pool
	Dsn  string
	cfg  *cfg.PGDBCfg
}

func NewPgDatabase(pool *pgxpool.Pool, cfg *cfg.PGDBCfg) *PgDatabase {
	return &PgDatabase{Pool: pool, cfg: cfg, Dsn: cfg.DSN()}
}

// Connect открывает пул и проверяет соединение.
func Connect(ctx context.Context, cfg *cfg.PGDBCfg) (*PgDatabase, error) {
	const op = "PgDatabase.Connect"

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	db := NewPgDatabase(pool, cfg)
	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, e.Wrap(op, err)
	}

	return db, nil
}

func (db *PgDatabase) Ping(ctx context.Context) error {
	const op = "PgDatabase.Ping"
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// Close закрывает пул соединений.
func (db *PgDatabase) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// RunMigrations применяет ожидающие миграции из cfg.MigrationsURL.
func (db *PgDatabase) RunMigrations(log logger.Logger) error {
	const (
		op                 = "PgDatabase.RunMigrations"
		driverName         = "pgx"
		databaseDriverName = "postgres"
	)

	sqlDb, err := sql.Open(driverName, db.Dsn)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer sqlDb.Close()

	driver, err := postgres.WithInstance(sqlDb, &postgres.Config{})
	if err != nil {
		return e.Wrap(op, err)
	}

	m, err := migrate.NewWithDatabaseInstance(db.cfg.MigrationsURL, databaseDriverName, driver)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Infof("migrations: no change")
			return nil
		}
		return e.Wrap(op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return e.Wrap(op, err)
	}

	log.Infof("migrations applied successfully, version=%d dirty=%t", version, dirty)
	return nil
}
