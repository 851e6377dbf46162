package converter

import "github.com/DRSN-tech/fontus/internal/domain"

// ProductRedisModel — представление продукта в кэше.
type ProductRedisModel struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Price   int64  `json:"price"`
	Version int64  `json:"version"`
	Deleted bool   `json:"deleted,omitempty"`
}

func ToRedisModel(entity *domain.Product) *ProductRedisModel {
	return &ProductRedisModel{
		ID:      entity.ID,
		Name:    entity.Name,
		Price:   entity.Price,
		Version: entity.Version,
	}
}

// ToTombstone — метка удаления: не даёт записать в кэш более старую версию продукта.
func ToTombstone(id, version int64) *ProductRedisModel {
	return &ProductRedisModel{
		ID:      id,
		Version: version,
		Deleted: true,
	}
}

func ToEntity(model *ProductRedisModel) *domain.Product {
	return &domain.Product{
		ID:      model.ID,
		Name:    model.Name,
		Price:   model.Price,
		Version: model.Version,
	}
}
