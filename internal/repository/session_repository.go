package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain/model"
)

// セッション数が上限
var ErrCapacity = errors.New("session capacity reached")

// セッションとそのカートを保持する。
// 期限切れ・未知のIDは ErrNotFound。
type SessionRepository interface {
	Create(ctx context.Context) (model.Session, *cart.Store, error)
	// 取得時に最終アクセスを更新し、期限を延ばす
	Get(ctx context.Context, id string) (model.Session, *cart.Store, error)
	Delete(ctx context.Context, id string) error
	// 期限切れを削除して件数を返す
	Sweep(ctx context.Context, now time.Time) int
}
