// Package tr связывает репозитории с менеджером транзакций avito-tech/go-transaction-manager.
//
// Use case открывает транзакцию через Manager.Do, репозитории достают её из контекста
// через PgxConn/SqlxConn. Вне транзакции возвращается сам пул соединений.
package tr

import (
	"context"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

// Manager выполняет fn в транзакции, транзакция передаётся через ctx.
type Manager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// PgxDB — то, на чём выполняются запросы pgx: пул, транзакция или мок пула в тестах.
type PgxDB = trmpgx.Tr

// Nop выполняет fn без транзакции. Подходит для хранилищ, где каждая операция атомарна сама по себе (bolt).
type Nop struct{}

func (Nop) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// NewPgxManager создаёт менеджер транзакций поверх пула pgx.
func NewPgxManager(pool *pgxpool.Pool) (*manager.Manager, error) {
	return manager.New(trmpgx.NewDefaultFactory(pool))
}

// NewSqlxManager создаёт менеджер транзакций поверх sqlx.DB.
func NewSqlxManager(db *sqlx.DB) (*manager.Manager, error) {
	return manager.New(trmsqlx.NewDefaultFactory(db))
}

// PgxConn возвращает текущую транзакцию из контекста или db.
func PgxConn(ctx context.Context, db PgxDB) PgxDB {
	return trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, db)
}

// SqlxConn возвращает текущую транзакцию из контекста или sqlx.DB.
func SqlxConn(ctx context.Context, db *sqlx.DB) trmsqlx.Tr {
	return trmsqlx.DefaultCtxGetter.DefaultTrOrDB(ctx, db)
}
