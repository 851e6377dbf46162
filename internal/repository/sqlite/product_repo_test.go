package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/DRSN-tech/fontus/internal/domain"
	"github.com/DRSN-tech/fontus/internal/repository/converter"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/jmoiron/sqlx"
	"gotest.tools/v3/assert"
)

func newTestRepo(t *testing.T) *ProductRepo {
	t.Helper()

	db, err := Open(context.Background(), ":memory:")
	assert.NilError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewProductRepo(db, converter.ProductConverter{})
}

func TestProductRepoCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.Create(ctx, domain.NewProduct("Product 1", 1050))
	assert.NilError(t, err)
	assert.Assert(t, created.ID > 0)
	assert.Equal(t, int64(0), created.Version)

	got, err := repo.Get(ctx, created.ID)
	assert.NilError(t, err)
	assert.Equal(t, "Product 1", got.Name)
	assert.Equal(t, int64(1050), got.Price)
	assert.Equal(t, int64(0), got.Version)

	second, err := repo.Create(ctx, domain.NewProduct("Product 2", 0))
	assert.NilError(t, err)
	assert.Assert(t, second.ID > created.ID)
}

func TestProductRepoGetMissing(t *testing.T) {
	_, err := newTestRepo(t).Get(context.Background(), 42)
	assert.Assert(t, errors.Is(err, e.ErrProductNotFound))
}

func TestProductRepoUpdateCAS(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.Create(ctx, domain.NewProduct("Product 1", 1050))
	assert.NilError(t, err)

	updated, err := repo.Update(ctx, &domain.Product{ID: created.ID, Name: "Product 1 updated", Price: 2000}, 0)
	assert.NilError(t, err)
	assert.Equal(t, int64(1), updated.Version)
	assert.Equal(t, "Product 1 updated", updated.Name)

	_, err = repo.Update(ctx, &domain.Product{ID: created.ID, Name: "stale", Price: 1}, 0)
	assert.Assert(t, errors.Is(err, e.ErrVersionConflict))

	_, err = repo.Update(ctx, &domain.Product{ID: created.ID + 100, Name: "ghost", Price: 1}, 0)
	assert.Assert(t, errors.Is(err, e.ErrProductNotFound))

	got, err := repo.Get(ctx, created.ID)
	assert.NilError(t, err)
	assert.Equal(t, "Product 1 updated", got.Name)
	assert.Equal(t, int64(1), got.Version)
}

func TestProductRepoDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.Create(ctx, domain.NewProduct("Product 1", 1050))
	assert.NilError(t, err)

	_, err = repo.Delete(ctx, created.ID, 3)
	assert.Assert(t, errors.Is(err, e.ErrVersionConflict))

	deleted, err := repo.Delete(ctx, created.ID, 0)
	assert.NilError(t, err)
	assert.Equal(t, int64(1), deleted.Version)

	_, err = repo.Get(ctx, created.ID)
	assert.Assert(t, errors.Is(err, e.ErrProductNotFound))

	_, err = repo.Delete(ctx, created.ID, 1)
	assert.Assert(t, errors.Is(err, e.ErrProductNotFound))

	again, err := repo.Create(ctx, domain.NewProduct("Product 1", 1050))
	assert.NilError(t, err)
	assert.Assert(t, again.ID > created.ID)
}

func TestProductRepoListPagingAndSort(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, p := range []struct {
		name  string
		price int64
	}{{"b", 300}, {"a", 100}, {"c", 100}} {
		_, err := repo.Create(ctx, domain.NewProduct(p.name, p.price))
		assert.NilError(t, err)
	}

	items, total, err := repo.List(ctx, usecase.ListQuery{Limit: 2, Offset: 0, SortBy: usecase.SortByName})
	assert.NilError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, 2, len(items))
	assert.Equal(t, "a", items[0].Name)
	assert.Equal(t, "b", items[1].Name)

	items, _, err = repo.List(ctx, usecase.ListQuery{Limit: 10, SortBy: usecase.SortByPrice, Desc: true})
	assert.NilError(t, err)
	assert.Equal(t, "b", items[0].Name)
	// равные цены упорядочены по id
	assert.Equal(t, "a", items[1].Name)
	assert.Equal(t, "c", items[2].Name)

	items, total, err = repo.List(ctx, usecase.ListQuery{Limit: 10, Offset: 10})
	assert.NilError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, 0, len(items))
}

func newMockRepo(t *testing.T) (*ProductRepo, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	assert.NilError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewProductRepo(sqlx.NewDb(mockDB, driverName), converter.ProductConverter{}), mock
}

func TestProductRepoGetWrapsDriverError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \?`).
		WithArgs(int64(1)).
		WillReturnError(errors.New("disk I/O error"))

	_, err := repo.Get(context.Background(), 1)
	assert.ErrorContains(t, err, "disk I/O error")
	assert.Assert(t, !errors.Is(err, e.ErrProductNotFound))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepoUpdateConflictFromMock(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectExec(`UPDATE products`).
		WithArgs("Product 1", int64(100), sqlmock.AnyArg(), int64(5), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \?`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price_cents", "version", "created_at", "updated_at"}).
			AddRow(int64(5), "Product 1", int64(100), int64(3), now, now))

	_, err := repo.Update(context.Background(), &domain.Product{ID: 5, Name: "Product 1", Price: 100}, 2)
	assert.Assert(t, errors.Is(err, e.ErrVersionConflict))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepoListCountError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products`).WillReturnError(errors.New("database is locked"))

	_, _, err := repo.List(context.Background(), usecase.ListQuery{Limit: 20})
	assert.ErrorContains(t, err, "database is locked")
	assert.NilError(t, mock.ExpectationsWereMet())
}
