package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/fontus/internal/domain"
	"github.com/DRSN-tech/fontus/internal/repository/converter"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/DRSN-tech/fontus/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jimlawless/whereami"
)

const productColumns = `id, name, price_cents, version, created_at, updated_at`

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
type ProductRepo struct {
	db   tr.PgxDB
	conv converter.ProductConverter
}

func NewProductRepo(db tr.PgxDB, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		db:   db,
		conv: conv,
	}
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO products (name, price_cents)
		VALUES ($1, $2)
		RETURNING ` + productColumns

	model, err := scanProduct(tr.PgxConn(ctx, p.db).QueryRow(ctx, query, product.Name, product.Price))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

func (p *ProductRepo) Get(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	model, err := scanProduct(tr.PgxConn(ctx, p.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrProductNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// List возвращает страницу и общее число записей.
func (p *ProductRepo) List(ctx context.Context, q usecase.ListQuery) ([]domain.Product, int64, error) {
	conn := tr.PgxConn(ctx, p.db)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `SELECT ` + productColumns + ` FROM products ` + converter.OrderBy(q) + ` LIMIT $1 OFFSET $2`
	rows, err := conn.Query(ctx, query, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.ProductModel])
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), total, nil
}

// Update меняет запись только при совпадении версии (compare-and-swap).
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product, expectedVersion int64) (*domain.Product, error) {
	query := `
		UPDATE products
		SET name = $3, price_cents = $4, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING ` + productColumns

	model, err := scanProduct(tr.PgxConn(ctx, p.db).QueryRow(ctx, query,
		product.ID, expectedVersion, product.Name, product.Price))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, p.missReason(ctx, product.ID)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// Delete удаляет запись только при совпадении версии. Возвращает её с версией expectedVersion+1.
func (p *ProductRepo) Delete(ctx context.Context, id int64, expectedVersion int64) (*domain.Product, error) {
	query := `
		DELETE FROM products
		WHERE id = $1 AND version = $2
		RETURNING ` + productColumns

	model, err := scanProduct(tr.PgxConn(ctx, p.db).QueryRow(ctx, query, id, expectedVersion))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, p.missReason(ctx, id)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model.Version++
	return p.conv.ToEntity(model), nil
}

// missReason различает отсутствие записи и конфликт версий после неудачного CAS.
func (p *ProductRepo) missReason(ctx context.Context, id int64) error {
	var exists bool
	err := tr.PgxConn(ctx, p.db).
		QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).
		Scan(&exists)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if !exists {
		return e.ErrProductNotFound
	}

	return e.ErrVersionConflict
}

func scanProduct(row pgx.Row) (*converter.ProductModel, error) {
	var model converter.ProductModel
	err := row.Scan(
		&model.ID, &model.Name, &model.PriceCents, &model.Version,
		&model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}
