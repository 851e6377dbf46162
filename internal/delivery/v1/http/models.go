package http

import (
	"github.com/DRSN-tech/fontus/internal/domain"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/shopspring/decimal"
)

// Price — цена в API. В JSON пишется числом (10.5), читается из числа или строки.
type Price struct {
	decimal.Decimal
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// ProductResponse — продукт в ответах API.
type ProductResponse struct {
	ID      int64  `json:"id" example:"1"`
	Name    string `json:"name" example:"Product 1"`
	Price   Price  `json:"price" swaggertype:"number" example:"10.5"`
	Version int64  `json:"version" example:"0"`
}

// ProductRequest — тело POST и PUT. Цена принимается числом или строкой.
type ProductRequest struct {
	Name    string `json:"name" example:"Product 1"`
	Price   *Price `json:"price" swaggertype:"number" example:"10.5"`
	Version *int64 `json:"version" example:"0"`
}

// DeleteRequest — тело DELETE.
type DeleteRequest struct {
	Version *int64 `json:"version" example:"1"`
}

type DeleteResponse struct {
	ID      int64 `json:"id" example:"1"`
	Version int64 `json:"version" example:"2"`
	Deleted bool  `json:"deleted" example:"true"`
}

// ListResponse — страница в формате jqGrid.
type ListResponse struct {
	Page    int               `json:"page" example:"1"`
	Total   int               `json:"total" example:"1"`
	Records int64             `json:"records" example:"1"`
	Rows    []ProductResponse `json:"rows"`
}

func NewProductResponse(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:      p.ID,
		Name:    p.Name,
		Price:   Price{centsToPrice(p.Price)},
		Version: p.Version,
	}
}

func NewDeleteResponse(res *usecase.DeleteProductRes) *DeleteResponse {
	return &DeleteResponse{
		ID:      res.ID,
		Version: res.Version,
		Deleted: res.Deleted,
	}
}

func NewListResponse(res *usecase.ListProductsRes) *ListResponse {
	rows := make([]ProductResponse, 0, len(res.Rows))
	for i := range res.Rows {
		rows = append(rows, *NewProductResponse(&res.Rows[i]))
	}

	return &ListResponse{
		Page:    res.Page,
		Total:   res.Total,
		Records: res.Records,
		Rows:    rows,
	}
}
