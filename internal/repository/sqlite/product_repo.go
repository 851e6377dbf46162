package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DRSN-tech/fontus/internal/domain"
	"github.com/DRSN-tech/fontus/internal/repository/converter"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/DRSN-tech/fontus/pkg/tr"
	"github.com/jimlawless/whereami"
	"github.com/jmoiron/sqlx"
)

const selectProduct = `SELECT id, name, price_cents, version, created_at, updated_at FROM products`

// ProductRepo реализует репозиторий продуктов поверх SQLite.
// Запросы выполняются в транзакции из контекста, если она есть.
type ProductRepo struct {
	db   *sqlx.DB
	conv converter.ProductConverter
}

func NewProductRepo(db *sqlx.DB, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		db:   db,
		conv: conv,
	}
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	model.Version = 0
	model.CreatedAt = time.Now().UTC()
	model.UpdatedAt = model.CreatedAt

	res, err := tr.SqlxConn(ctx, p.db).ExecContext(ctx,
		`INSERT INTO products (name, price_cents, version, created_at, updated_at) VALUES (?, ?, 0, ?, ?)`,
		model.Name, model.PriceCents, model.CreatedAt, model.UpdatedAt,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model.ID, err = res.LastInsertId()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

func (p *ProductRepo) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var model converter.ProductModel
	err := sqlx.GetContext(ctx, tr.SqlxConn(ctx, p.db), &model, selectProduct+` WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, e.ErrProductNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

func (p *ProductRepo) List(ctx context.Context, q usecase.ListQuery) ([]domain.Product, int64, error) {
	conn := tr.SqlxConn(ctx, p.db)

	var total int64
	if err := sqlx.GetContext(ctx, conn, &total, `SELECT COUNT(*) FROM products`); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	var models []converter.ProductModel
	query := selectProduct + ` ` + converter.OrderBy(q) + ` LIMIT ? OFFSET ?`
	if err := sqlx.SelectContext(ctx, conn, &models, query, q.Limit, q.Offset); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), total, nil
}

// Update меняет запись только при совпадении версии (compare-and-swap).
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product, expectedVersion int64) (*domain.Product, error) {
	res, err := tr.SqlxConn(ctx, p.db).ExecContext(ctx, `
		UPDATE products
		SET name = ?, price_cents = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		product.Name, product.Price, time.Now().UTC(), product.ID, expectedVersion,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if affected == 0 {
		return nil, p.missReason(ctx, product.ID)
	}

	return p.Get(ctx, product.ID)
}

// Delete удаляет запись только при совпадении версии.
func (p *ProductRepo) Delete(ctx context.Context, id int64, expectedVersion int64) (*domain.Product, error) {
	current, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.Version != expectedVersion {
		return nil, e.ErrVersionConflict
	}

	res, err := tr.SqlxConn(ctx, p.db).ExecContext(ctx,
		`DELETE FROM products WHERE id = ? AND version = ?`, id, expectedVersion)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if affected == 0 {
		return nil, p.missReason(ctx, id)
	}

	current.Version++
	return current, nil
}

// missReason различает отсутствие записи и конфликт версий после неудачного CAS.
func (p *ProductRepo) missReason(ctx context.Context, id int64) error {
	_, err := p.Get(ctx, id)
	switch {
	case errors.Is(err, e.ErrProductNotFound):
		return e.ErrProductNotFound
	case err != nil:
		return err
	default:
		return e.ErrVersionConflict
	}
}
