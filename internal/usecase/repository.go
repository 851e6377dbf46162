package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/fontus/internal/domain"
)

// ProductRepository — хранилище продуктов с оптимистичной блокировкой.
//
// Update и Delete выполняются как compare-and-swap по версии: при несовпадении
// возвращается e.ErrVersionConflict, при отсутствии записи — e.ErrProductNotFound.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, q ListQuery) ([]domain.Product, int64, error)
	Update(ctx context.Context, product *domain.Product, expectedVersion int64) (*domain.Product, error)
	// Delete возвращает удалённый продукт с версией expectedVersion+1.
	Delete(ctx context.Context, id int64, expectedVersion int64) (*domain.Product, error)
}

// CacheRepository — кэш отдельных продуктов. Промах возвращает (nil, nil).
// Запись с версией меньше уже сохранённой (включая метку удаления) игнорируется.
type CacheRepository interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
	// SetDeleted оставляет метку удаления с версией удалённого продукта.
	SetDeleted(ctx context.Context, id, version int64) error
	DeleteProducts(ctx context.Context, ids []int64) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	// Release возвращает событие в pending, следующая попытка не раньше чем через retryAfter.
	Release(ctx context.Context, id int64, retryAfter time.Duration) error
	MarkAsFailed(ctx context.Context, id int64, reason string) error
}

// EventEncoder сериализует событие для записи в outbox.
type EventEncoder interface {
	Encode(event *ProductChangedEvent) ([]byte, error)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
