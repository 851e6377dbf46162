package pgdb

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DRSN-tech/fontus/internal/domain"
	"github.com/DRSN-tech/fontus/internal/repository/converter"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/pashagolub/pgxmock/v4"
	"gotest.tools/v3/assert"
)

var (
	columns = []string{"id", "name", "price_cents", "version", "created_at", "updated_at"}
	ts      = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
)

func newMockRepo(t *testing.T) (*ProductRepo, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	assert.NilError(t, err)
	t.Cleanup(mock.Close)

	return NewProductRepo(mock, converter.ProductConverter{}), mock
}

func TestUpdateReturnsNextVersion(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE products`).
		WithArgs(int64(7), int64(2), "new", int64(2000)).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(7), "new", int64(2000), int64(3), ts, ts))

	got, err := repo.Update(context.Background(), &domain.Product{ID: 7, Name: "new", Price: 2000}, 2)
	assert.NilError(t, err)
	assert.Equal(t, int64(3), got.Version)
	assert.Equal(t, "new", got.Name)
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestUpdateMiss(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		want   error
	}{
		{"stale version", true, e.ErrVersionConflict},
		{"missing row", false, e.ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			mock.ExpectQuery(`UPDATE products`).
				WithArgs(int64(7), int64(0), "new", int64(1)).
				WillReturnRows(pgxmock.NewRows(columns))
			mock.ExpectQuery(`SELECT EXISTS`).
				WithArgs(int64(7)).
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			_, err := repo.Update(context.Background(), &domain.Product{ID: 7, Name: "new", Price: 1}, 0)
			assert.Assert(t, errors.Is(err, tt.want), err)
			assert.NilError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateDriverError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE products`).
		WithArgs(int64(7), int64(0), "new", int64(1)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Update(context.Background(), &domain.Product{ID: 7, Name: "new", Price: 1}, 0)
	assert.ErrorContains(t, err, "connection reset")
	assert.Assert(t, !errors.Is(err, e.ErrVersionConflict))
	assert.Assert(t, !errors.Is(err, e.ErrProductNotFound))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestDeleteReturnsIncrementedVersion(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`DELETE FROM products`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(7), "p", int64(100), int64(1), ts, ts))

	got, err := repo.Delete(context.Background(), 7, 1)
	assert.NilError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestDeleteMiss(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		want   error
	}{
		{"stale version", true, e.ErrVersionConflict},
		{"missing row", false, e.ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			mock.ExpectQuery(`DELETE FROM products`).
				WithArgs(int64(7), int64(0)).
				WillReturnRows(pgxmock.NewRows(columns))
			mock.ExpectQuery(`SELECT EXISTS`).
				WithArgs(int64(7)).
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			_, err := repo.Delete(context.Background(), 7, 0)
			assert.Assert(t, errors.Is(err, tt.want), err)
			assert.NilError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMissReasonError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`DELETE FROM products`).
		WithArgs(int64(7), int64(0)).
		WillReturnRows(pgxmock.NewRows(columns))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(7)).
		WillReturnError(errors.New("canceling statement"))

	_, err := repo.Delete(context.Background(), 7, 0)
	assert.ErrorContains(t, err, "canceling statement")
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(columns))

	_, err := repo.Get(context.Background(), 7)
	assert.Assert(t, errors.Is(err, e.ErrProductNotFound))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestListUsesOrderAndPaging(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products`)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY price_cents DESC, id ASC LIMIT $1 OFFSET $2`)).
		WithArgs(2, 2).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(1), "a", int64(100), int64(0), ts, ts))

	items, total, err := repo.List(context.Background(), usecase.ListQuery{
		Limit: 2, Offset: 2, SortBy: usecase.SortByPrice, Desc: true,
	})
	assert.NilError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, 1, len(items))
	assert.Equal(t, "a", items[0].Name)
	assert.NilError(t, mock.ExpectationsWereMet())
}
