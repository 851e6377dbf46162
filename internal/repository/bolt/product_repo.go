// Package bolt — хранилище продуктов во встраиваемом key/value файле (boltdb).
//
// Каждая изменяющая операция выполняется в одной пишущей транзакции db.Update,
// поэтому проверка версии и запись атомарны. Ключ — id в big-endian,
// id выдаются через NextSequence и не переиспользуются.
package bolt

import (
	"cmp"
	"context"
	"encoding/binary"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/DRSN-tech/fontus/internal/domain"
	"github.com/DRSN-tech/fontus/internal/repository/converter"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/boltdb/bolt"
	"github.com/jimlawless/whereami"
)

var productsBucket = []byte("products")

// Open открывает (или создаёт) файл базы и bucket продуктов.
func Open(path string, timeout time.Duration) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(productsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

type ProductRepo struct {
	db   *bolt.DB
	conv converter.ProductConverter
}

func NewProductRepo(db *bolt.DB, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		db:   db,
		conv: conv,
	}
}

func (p *ProductRepo) Create(_ context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)

	err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(productsBucket)

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		model.ID = int64(seq)
		model.Version = 0
		model.CreatedAt = now
		model.UpdatedAt = now

		return put(b, model)
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

func (p *ProductRepo) Get(_ context.Context, id int64) (*domain.Product, error) {
	var model *converter.ProductModel

	err := p.db.View(func(tx *bolt.Tx) error {
		var err error
		model, err = get(tx.Bucket(productsBucket), id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return p.conv.ToEntity(model), nil
}

// List читает все записи в одной транзакции чтения, сортирует и возвращает страницу.
func (p *ProductRepo) List(_ context.Context, q usecase.ListQuery) ([]domain.Product, int64, error) {
	var models []converter.ProductModel

	err := p.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(productsBucket).ForEach(func(_, v []byte) error {
			var model converter.ProductModel
			if err := json.Unmarshal(v, &model); err != nil {
				return err
			}
			models = append(models, model)
			return nil
		})
	})
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	slices.SortFunc(models, compareBy(q))

	total := int64(len(models))
	if q.Offset < 0 || q.Offset >= len(models) {
		return []domain.Product{}, total, nil
	}

	end := q.Offset + min(q.Limit, len(models)-q.Offset)
	return p.conv.ToArrEntity(models[q.Offset:end]), total, nil
}

func (p *ProductRepo) Update(_ context.Context, product *domain.Product, expectedVersion int64) (*domain.Product, error) {
	var model *converter.ProductModel

	err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(productsBucket)

		var err error
		model, err = get(b, product.ID)
		if err != nil {
			return err
		}

		if model.Version != expectedVersion {
			return e.ErrVersionConflict
		}

		model.Name = product.Name
		model.PriceCents = product.Price
		model.Version++
		model.UpdatedAt = time.Now().UTC()

		return put(b, model)
	})
	if err != nil {
		return nil, err
	}

	return p.conv.ToEntity(model), nil
}

func (p *ProductRepo) Delete(_ context.Context, id int64, expectedVersion int64) (*domain.Product, error) {
	var model *converter.ProductModel

	err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(productsBucket)

		var err error
		model, err = get(b, id)
		if err != nil {
			return err
		}

		if model.Version != expectedVersion {
			return e.ErrVersionConflict
		}

		model.Version++
		return b.Delete(key(id))
	})
	if err != nil {
		return nil, err
	}

	return p.conv.ToEntity(model), nil
}

func get(b *bolt.Bucket, id int64) (*converter.ProductModel, error) {
	v := b.Get(key(id))
	if v == nil {
		return nil, e.ErrProductNotFound
	}

	var model converter.ProductModel
	if err := json.Unmarshal(v, &model); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &model, nil
}

func put(b *bolt.Bucket, model *converter.ProductModel) error {
	data, err := json.Marshal(model)
	if err != nil {
		return err
	}

	return b.Put(key(model.ID), data)
}

func key(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func compareBy(q usecase.ListQuery) func(a, b converter.ProductModel) int {
	return func(a, b converter.ProductModel) int {
		var c int
		switch q.SortBy {
		case usecase.SortByName:
			c = strings.Compare(a.Name, b.Name)
		case usecase.SortByPrice:
			c = cmp.Compare(a.PriceCents, b.PriceCents)
		case usecase.SortByVersion:
			c = cmp.Compare(a.Version, b.Version)
		default:
			c = cmp.Compare(a.ID, b.ID)
			if q.Desc {
				c = -c
			}
			return c
		}

		if q.Desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	}
}
