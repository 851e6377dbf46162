// Package sqlite — хранилище продуктов поверх встраиваемой SQLite (modernc.org/sqlite, без cgo).
package sqlite

import (
	"context"

	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// AUTOINCREMENT гарантирует, что id удалённых записей не переиспользуются.
const schema = `
CREATE TABLE IF NOT EXISTS products (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT     NOT NULL,
	price_cents INTEGER  NOT NULL CHECK (price_cents >= 0),
	version     INTEGER  NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);`

// Open открывает базу и создаёт схему.
// Пул ограничен одним соединением: SQLite допускает одного писателя,
// а для ":memory:" каждое новое соединение видело бы пустую базу.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	db.SetMaxOpenConns(1)

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
