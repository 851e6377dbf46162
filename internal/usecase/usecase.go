package usecase

import (
	"context"

	"github.com/DRSN-tech/fontus/internal/domain"
)

type ProductUC interface {
	Create(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error)
	Update(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	Delete(ctx context.Context, req *DeleteProductReq) (*DeleteProductRes, error)
}
