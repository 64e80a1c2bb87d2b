package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// カタログAPIに届かない / 5xx
var ErrUnavailable = errors.New("unavailable")

// 商品カタログ（外部REST API）の取得だけを約束。
type ProductCatalog interface {
	List(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
}
