package usecase

import (
	"math"
	"strings"
	"time"

	"github.com/DRSN-tech/fontus/internal/domain"
)

// PRODUCT USECASE

const (
	DefaultRows = 20
	MaxRows     = 500
	DefaultPage = 1
)

// CreateProductReq — запрос на создание продукта. Version должна быть 0.
type CreateProductReq struct {
	Name    string
	Price   int64
	Version int64
}

// UpdateProductReq — запрос на изменение продукта с ожидаемой версией.
type UpdateProductReq struct {
	ID      int64
	Name    string
	Price   int64
	Version int64
}

// DeleteProductReq — запрос на удаление продукта с ожидаемой версией.
type DeleteProductReq struct {
	ID      int64
	Version int64
}

// DeleteProductRes — результат удаления: версия на 1 больше ожидаемой.
type DeleteProductRes struct {
	ID      int64
	Version int64
	Deleted bool
}

// ListProductsReq — параметры постраничного списка в терминах jqGrid.
type ListProductsReq struct {
	Rows      int
	Page      int
	SortIndex string
	SortOrder string
}

// ListProductsRes — страница продуктов.
// Total — число страниц, Records — число продуктов.
type ListProductsRes struct {
	Page    int
	Total   int
	Records int64
	Rows    []domain.Product
}

// REPOSITORIES

// SortField — поле сортировки, допустимое для хранилища.
type SortField string

const (
	SortByID      SortField = "id"
	SortByName    SortField = "name"
	SortByPrice   SortField = "price"
	SortByVersion SortField = "version"
)

// ListQuery — запрос страницы к хранилищу. Равные значения упорядочиваются по id asc.
type ListQuery struct {
	Limit  int
	Offset int
	SortBy SortField
	Desc   bool
}

// PageOffset возвращает смещение страницы page размером rows.
// Если (page-1)*rows не помещается в int, возвращает смещение заведомо за последней записью.
func PageOffset(page, rows int) int {
	if page-1 > (math.MaxInt-rows)/rows {
		return math.MaxInt - rows
	}

	return (page - 1) * rows
}

// ParseSort приводит sidx/sord к допустимым значениям; всё неизвестное сводится к id asc.
func ParseSort(sidx, sord string) (SortField, bool) {
	field := SortField(strings.ToLower(strings.TrimSpace(sidx)))
	switch field {
	case SortByID, SortByName, SortByPrice, SortByVersion:
	default:
		field = SortByID
	}

	return field, strings.EqualFold(strings.TrimSpace(sord), "desc")
}

// INFRASTUCTURE

// OutboxStatus — состояние события в outbox.
type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
	// Failed — отправка невозможна (ошибка не временная или исчерпаны попытки), событие больше не берётся.
	Failed OutboxStatus = "failed"
)

// OutboxEventType — тип изменения продукта.
type OutboxEventType string

const (
	ProductCreated OutboxEventType = "created"
	ProductUpdated OutboxEventType = "updated"
	ProductDeleted OutboxEventType = "deleted"
)

// OutboxEvent — запись transactional outbox.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   int64
	Payload     []byte
	Status      OutboxStatus
	Attempts    int
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// ProductChangedEvent — содержимое события об изменении продукта.
type ProductChangedEvent struct {
	EventID    string
	EventType  OutboxEventType
	ProductID  int64
	Version    int64
	Name       string
	PriceCents int64
	OccurredAt time.Time
}

// WriteRawMessageReq — уже сериализованное событие для публикации.
type WriteRawMessageReq struct {
	ProductID int64
	Payload   []byte
}

// MAPPERS

func NewProductChangedEvent(eventID string, eventType OutboxEventType, p *domain.Product, occurredAt time.Time) *ProductChangedEvent {
	return &ProductChangedEvent{
		EventID:    eventID,
		EventType:  eventType,
		ProductID:  p.ID,
		Version:    p.Version,
		Name:       p.Name,
		PriceCents: p.Price,
		OccurredAt: occurredAt,
	}
}

func NewOutboxEvent(ev *ProductChangedEvent, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   ev.EventID,
		EventType: ev.EventType,
		ProductID: ev.ProductID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: ev.OccurredAt,
	}
}

func NewWriteRawMessageReq(productID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		Payload:   payload,
	}
}

func NewDeleteProductRes(p *domain.Product) *DeleteProductRes {
	return &DeleteProductRes{
		ID:      p.ID,
		Version: p.Version,
		Deleted: true,
	}
}

func NewListProductsRes(page, rows int, records int64, products []domain.Product) *ListProductsRes {
	if products == nil {
		products = []domain.Product{}
	}

	return &ListProductsRes{
		Page:    page,
		Total:   int((records + int64(rows) - 1) / int64(rows)),
		Records: records,
		Rows:    products,
	}
}
