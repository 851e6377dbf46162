package converter

import (
	"fmt"

	"github.com/DRSN-tech/fontus/internal/domain"
	"github.com/DRSN-tech/fontus/internal/usecase"
)

// ProductConverter преобразует Product между domain и моделью хранилища.
type ProductConverter struct{}

func (ProductConverter) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
		ID:         entity.ID,
		Name:       entity.Name,
		PriceCents: entity.Price,
		Version:    entity.Version,
		CreatedAt:  entity.CreatedAt,
		UpdatedAt:  entity.UpdatedAt,
	}
}

func (ProductConverter) ToEntity(model *ProductModel) *domain.Product {
	return &domain.Product{
		ID:        model.ID,
		Name:      model.Name,
		Price:     model.PriceCents,
		Version:   model.Version,
		CreatedAt: model.CreatedAt.UTC(),
		UpdatedAt: model.UpdatedAt.UTC(),
	}
}

func (c ProductConverter) ToArrEntity(models []ProductModel) []domain.Product {
	result := make([]domain.Product, 0, len(models))
	for i := range models {
		result = append(result, *c.ToEntity(&models[i]))
	}

	return result
}

// OutboxEventConverter преобразует OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter struct{}

func (OutboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		ProductID:   entity.ProductID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		Attempts:    entity.Attempts,
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		ProductID:   model.ProductID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		Attempts:    model.Attempts,
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	result := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}

	return result
}

// sortColumns — белый список колонок сортировки.
var sortColumns = map[usecase.SortField]string{
	usecase.SortByID:      "id",
	usecase.SortByName:    "name",
	usecase.SortByPrice:   "price_cents",
	usecase.SortByVersion: "version",
}

// OrderBy строит ORDER BY для запроса страницы; равные значения упорядочиваются по id.
func OrderBy(q usecase.ListQuery) string {
	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "id"
	}

	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}

	if column == "id" {
		return fmt.Sprintf("ORDER BY id %s", direction)
	}

	return fmt.Sprintf("ORDER BY %s %s, id ASC", column, direction)
}
