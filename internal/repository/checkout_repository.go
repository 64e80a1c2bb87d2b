package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 受付票の永続化
type CheckoutRepository interface {
	Create(ctx context.Context, receipt *model.CheckoutReceipt) error
	FindByNumber(ctx context.Context, number string) (model.CheckoutReceipt, error)
}
