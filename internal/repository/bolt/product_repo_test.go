package bolt

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/fontus/internal/domain"
	"github.com/DRSN-tech/fontus/internal/repository/converter"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"gotest.tools/v3/assert"
)

func newTestRepo(t *testing.T) *ProductRepo {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "products.bolt"), time.Second)
	assert.NilError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewProductRepo(db, converter.ProductConverter{})
}

func TestCreateAssignsFreshIDs(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first, err := repo.Create(ctx, domain.NewProduct("Product 1", 1050))
	assert.NilError(t, err)
	assert.Equal(t, int64(0), first.Version)

	_, err = repo.Delete(ctx, first.ID, 0)
	assert.NilError(t, err)

	second, err := repo.Create(ctx, domain.NewProduct("Product 1", 1050))
	assert.NilError(t, err)
	assert.Assert(t, second.ID > first.ID)
}

func TestUpdateAndDeleteCheckVersion(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.Create(ctx, domain.NewProduct("Product 1", 1050))
	assert.NilError(t, err)

	updated, err := repo.Update(ctx, &domain.Product{ID: created.ID, Name: "renamed", Price: 1}, 0)
	assert.NilError(t, err)
	assert.Equal(t, int64(1), updated.Version)

	_, err = repo.Update(ctx, &domain.Product{ID: created.ID, Name: "stale", Price: 1}, 0)
	assert.Assert(t, errors.Is(err, e.ErrVersionConflict))

	_, err = repo.Delete(ctx, created.ID, 0)
	assert.Assert(t, errors.Is(err, e.ErrVersionConflict))

	got, err := repo.Get(ctx, created.ID)
	assert.NilError(t, err)
	assert.Equal(t, "renamed", got.Name)

	deleted, err := repo.Delete(ctx, created.ID, 1)
	assert.NilError(t, err)
	assert.Equal(t, int64(2), deleted.Version)

	_, err = repo.Get(ctx, created.ID)
	assert.Assert(t, errors.Is(err, e.ErrProductNotFound))

	_, err = repo.Update(ctx, &domain.Product{ID: created.ID, Name: "x", Price: 1}, 2)
	assert.Assert(t, errors.Is(err, e.ErrProductNotFound))
}

func TestConcurrentUpdatesSameVersion(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.Create(ctx, domain.NewProduct("Product 1", 1050))
	assert.NilError(t, err)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, &domain.Product{ID: created.ID, Name: "writer", Price: 1}, 0)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, e.ErrVersionConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(7), conflicts.Load())
}

func TestListSortsAndPages(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, name := range []string{"b", "a", "c"} {
		_, err := repo.Create(ctx, domain.NewProduct(name, 100))
		assert.NilError(t, err)
	}

	items, total, err := repo.List(ctx, usecase.ListQuery{Limit: 2, SortBy: usecase.SortByName, Desc: true})
	assert.NilError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, "c", items[0].Name)
	assert.Equal(t, "b", items[1].Name)

	items, _, err = repo.List(ctx, usecase.ListQuery{Limit: 2, Offset: 2, SortBy: usecase.SortByPrice})
	assert.NilError(t, err)
	assert.Equal(t, 1, len(items))
	assert.Equal(t, "c", items[0].Name)

	items, _, err = repo.List(ctx, usecase.ListQuery{Limit: 5, Offset: 5})
	assert.NilError(t, err)
	assert.Assert(t, items != nil)
	assert.Equal(t, 0, len(items))
}

func TestListOffsetOutOfRange(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, name := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, domain.NewProduct(name, 100))
		assert.NilError(t, err)
	}

	for _, offset := range []int{-2, math.MaxInt - 2, math.MaxInt} {
		items, total, err := repo.List(ctx, usecase.ListQuery{Limit: 2, Offset: offset})
		assert.NilError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, 0, len(items))
	}

	items, _, err := repo.List(ctx, usecase.ListQuery{Limit: math.MaxInt, Offset: 1})
	assert.NilError(t, err)
	assert.Equal(t, 2, len(items))
}
