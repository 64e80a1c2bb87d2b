package usecase

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 商品一覧・詳細（カタログAPIの中継）
type ProductUsecase struct {
	catalog repo.ProductCatalog
}

// DI
func NewProductUsecase(catalog repo.ProductCatalog) *ProductUsecase {
	return &ProductUsecase{catalog: catalog}
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int             `json:"total"`
}

// 名前 / SKU の部分一致（大文字小文字を区別しない）で絞り込む
func (u *ProductUsecase) List(ctx context.Context, q string) (ProductListOutput, error) {
	q = strings.TrimSpace(q)
	if len(q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	products, err := u.catalog.List(ctx)
	if err != nil {
		return ProductListOutput{}, catalogError(err)
	}

	items := make([]model.Product, 0, len(products))
	needle := strings.ToLower(q)
	for _, p := range products {
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.SKU), needle) {
			items = append(items, p)
		}
	}

	return ProductListOutput{Items: items, Total: len(items)}, nil
}

func (u *ProductUsecase) Get(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.catalog.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, catalogError(err)
	}
	return p, nil
}
