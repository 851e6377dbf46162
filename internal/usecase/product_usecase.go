package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/fontus/internal/domain"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/DRSN-tech/fontus/pkg/logger"
	"github.com/DRSN-tech/fontus/pkg/tr"
	"github.com/google/uuid"
)

// ProductUseCase реализует бизнес-логику управления продуктами.
type ProductUseCase struct {
	productRepo ProductRepository
	trManager   tr.Manager
	cacheRepo   CacheRepository
	outboxRepo  OutboxRepository // nil, если публикация событий выключена
	encoder     EventEncoder
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	trManager tr.Manager,
	cacheRepo CacheRepository,
	outboxRepo OutboxRepository,
	encoder EventEncoder,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		trManager:   trManager,
		cacheRepo:   cacheRepo,
		outboxRepo:  outboxRepo,
		encoder:     encoder,
		logger:      logger,
	}
}

// Create сохраняет новый продукт с версией 0.
func (p *ProductUseCase) Create(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.Create"

	if err := validateProduct(req.Name, req.Price); err != nil {
		return nil, e.Wrap(op, err)
	}

	if req.Version != 0 {
		return nil, e.Wrap(op, e.ErrInvalidVersion)
	}

	var created *domain.Product
	err := p.trManager.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = p.productRepo.Create(ctx, domain.NewProduct(req.Name, req.Price))
		if err != nil {
			return err
		}

		return p.recordEvent(ctx, ProductCreated, created)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.logger.Debugf("product created: id=%d", created.ID)
	return created, nil
}

// Get возвращает продукт по id, сначала обращаясь к кэшу.
func (p *ProductUseCase) Get(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "ProductUseCase.Get"

	if id <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	cached, err := p.cacheRepo.GetProduct(ctx, id)
	if err != nil {
		p.logger.Warnf("Failed to read product from cache: %v", e.Wrap(op, err))
	}
	if cached != nil {
		return cached, nil
	}

	product, err := p.productRepo.Get(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.cacheRepo.SetProduct(ctx, product); err != nil {
		p.logger.Warnf("Failed to cache product: %v", e.Wrap(op, err))
	}

	return product, nil
}

// List возвращает страницу продуктов.
func (p *ProductUseCase) List(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error) {
	const op = "ProductUseCase.List"

	if req.Rows < 1 || req.Rows > MaxRows || req.Page < 1 {
		return nil, e.Wrap(op, e.ErrInvalidPaging)
	}

	sortBy, desc := ParseSort(req.SortIndex, req.SortOrder)
	products, records, err := p.productRepo.List(ctx, ListQuery{
		Limit:  req.Rows,
		Offset: PageOffset(req.Page, req.Rows),
		SortBy: sortBy,
		Desc:   desc,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewListProductsRes(req.Page, req.Rows, records, products), nil
}

// Update заменяет name и price, если версия в запросе совпадает с сохранённой.
func (p *ProductUseCase) Update(ctx context.Context, req *UpdateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.Update"

	if req.ID <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	if err := validateProduct(req.Name, req.Price); err != nil {
		return nil, e.Wrap(op, err)
	}

	if req.Version < 0 {
		return nil, e.Wrap(op, e.ErrInvalidVersion)
	}

	product := domain.NewProduct(req.Name, req.Price)
	product.ID = req.ID

	var updated *domain.Product
	err := p.trManager.Do(ctx, func(ctx context.Context) error {
		var err error
		updated, err = p.productRepo.Update(ctx, product, req.Version)
		if err != nil {
			return err
		}

		return p.recordEvent(ctx, ProductUpdated, updated)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.cacheRepo.SetProduct(ctx, updated); err != nil {
		p.logger.Warnf("Failed to refresh product in cache: %v", e.Wrap(op, err))
		p.invalidate(ctx, op, updated.ID)
	}

	return updated, nil
}

// Delete удаляет продукт, если версия в запросе совпадает с сохранённой.
func (p *ProductUseCase) Delete(ctx context.Context, req *DeleteProductReq) (*DeleteProductRes, error) {
	const op = "ProductUseCase.Delete"

	if req.ID <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	if req.Version < 0 {
		return nil, e.Wrap(op, e.ErrInvalidVersion)
	}

	var deleted *domain.Product
	err := p.trManager.Do(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = p.productRepo.Delete(ctx, req.ID, req.Version)
		if err != nil {
			return err
		}

		return p.recordEvent(ctx, ProductDeleted, deleted)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.cacheRepo.SetDeleted(ctx, deleted.ID, deleted.Version); err != nil {
		p.logger.Warnf("Failed to mark product deleted in cache: %v", e.Wrap(op, err))
		p.invalidate(ctx, op, deleted.ID)
	}

	return NewDeleteProductRes(deleted), nil
}

// recordEvent пишет событие в outbox в рамках текущей транзакции.
func (p *ProductUseCase) recordEvent(ctx context.Context, eventType OutboxEventType, product *domain.Product) error {
	if p.outboxRepo == nil {
		return nil
	}

	event := NewProductChangedEvent(uuid.NewString(), eventType, product, time.Now().UTC())
	payload, err := p.encoder.Encode(event)
	if err != nil {
		return err
	}

	_, err = p.outboxRepo.Create(ctx, NewOutboxEvent(event, payload))
	return err
}

// invalidate удаляет продукт из кэша, если обновить запись не удалось. Ошибка кэша не влияет на результат операции.
func (p *ProductUseCase) invalidate(ctx context.Context, op string, id int64) {
	if err := p.cacheRepo.DeleteProducts(ctx, []int64{id}); err != nil {
		p.logger.Warnf("Failed to delete products from cache: %v", e.Wrap(op, err))
	}
}

// validateProduct проверяет название и цену продукта.
func validateProduct(name string, price int64) error {
	name = domain.NormalizeName(name)
	if name == "" {
		return e.ErrProductNameRequired
	}

	if domain.NameLength(name) > domain.MaxNameLength {
		return e.ErrProductNameTooLong
	}

	if price < 0 || price > domain.MaxPrice {
		return e.ErrInvalidPrice
	}

	return nil
}
