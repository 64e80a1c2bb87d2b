package usecase

import (
	"context"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// CartUsecase は /cart の業務ロジックです。
// カートの状態はセッションごとの cart.Store が持ち、ここでは変更を依頼するだけ。
type CartUsecase struct {
	sessions repo.SessionRepository
	catalog  repo.ProductCatalog
	logger   *zap.Logger
}

// DI
func NewCartUsecase(sessions repo.SessionRepository, catalog repo.ProductCatalog, logger *zap.Logger) *CartUsecase {
	return &CartUsecase{
		sessions: sessions,
		catalog:  catalog,
		logger:   logger,
	}
}

// price は追加時点のスナップショット価格。
type CartItemResponse struct {
	ProductID int64       `json:"product_id"`
	Name      string      `json:"name"`
	SKU       string      `json:"sku,omitempty"`
	Price     model.Money `json:"price"`
	Quantity  int64       `json:"quantity"`
	LineTotal model.Money `json:"line_total"`
}

type CartResponse struct {
	SessionID string             `json:"session_id"`
	Items     []CartItemResponse `json:"items"`
	Count     int64              `json:"count"`
	Total     model.Money        `json:"total"`
	Version   uint64             `json:"version"`
}

// 商品は1つだけ。Product があればそのスナップショットを使い、
// 無ければ ProductID でカタログから取得する。
type AddCartInput struct {
	ProductID int64
	Product   *model.ProductPayload
	Quantity  int64
}

// Subscribe の結果。Closed はセッション終了で閉じる。
type CartSubscription struct {
	Current     CartResponse
	Closed      <-chan struct{}
	Unsubscribe func()
}

// カート取得
func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartResponse, error) {
	store, err := resolveCart(ctx, u.sessions, sessionID)
	if err != nil {
		return CartResponse{}, err
	}
	return ToCartResponse(store.Snapshot()), nil
}

// カートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, in AddCartInput) (CartResponse, error) {
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	store, err := resolveCart(ctx, u.sessions, sessionID)
	if err != nil {
		return CartResponse{}, err
	}

	p, err := u.resolveProduct(ctx, in)
	if err != nil {
		return CartResponse{}, err
	}

	snap, err := store.AddToCart(p, in.Quantity)
	if err != nil {
		u.logger.Debug("add to cart rejected",
			zap.String("session_id", sessionID),
			zap.Int64("product_id", p.ID),
			zap.Int64("quantity", in.Quantity),
			zap.Error(err))
		return CartResponse{}, cartError(err)
	}

	return ToCartResponse(snap), nil
}

// 数量変更。0以下は削除。カートに無い商品は何もしない。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, sessionID string, productID int64, qty int64) (CartResponse, error) {
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	store, err := resolveCart(ctx, u.sessions, sessionID)
	if err != nil {
		return CartResponse{}, err
	}

	snap, err := store.UpdateQuantity(productID, qty)
	if err != nil {
		return CartResponse{}, cartError(err)
	}
	return ToCartResponse(snap), nil
}

// 明細削除。無ければ何もしない。
func (u *CartUsecase) RemoveFromCart(ctx context.Context, sessionID string, productID int64) (CartResponse, error) {
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	store, err := resolveCart(ctx, u.sessions, sessionID)
	if err != nil {
		return CartResponse{}, err
	}
	return ToCartResponse(store.RemoveFromCart(productID)), nil
}

// カートを空にする
func (u *CartUsecase) ClearCart(ctx context.Context, sessionID string) (CartResponse, error) {
	store, err := resolveCart(ctx, u.sessions, sessionID)
	if err != nil {
		return CartResponse{}, err
	}
	return ToCartResponse(store.ClearCart()), nil
}

// バッジ用の数量合計
func (u *CartUsecase) Count(ctx context.Context, sessionID string) (int64, error) {
	store, err := resolveCart(ctx, u.sessions, sessionID)
	if err != nil {
		return 0, err
	}
	return store.ItemsCount(), nil
}

// カートの変更を購読する。現在の内容も返す。
func (u *CartUsecase) Subscribe(ctx context.Context, sessionID string, fn func(CartResponse)) (CartSubscription, error) {
	store, err := resolveCart(ctx, u.sessions, sessionID)
	if err != nil {
		return CartSubscription{}, err
	}

	unsubscribe := store.Subscribe(func(snap model.CartSnapshot) {
		fn(ToCartResponse(snap))
	})
	return CartSubscription{
		Current:     ToCartResponse(store.Snapshot()),
		Closed:      store.Done(),
		Unsubscribe: unsubscribe,
	}, nil
}

func (u *CartUsecase) resolveProduct(ctx context.Context, in AddCartInput) (model.Product, error) {
	if in.Product != nil {
		if in.ProductID != 0 && in.ProductID != in.Product.ID {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product")
		}
		p, err := in.Product.Parse()
		if err != nil || !p.Valid() {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product")
		}
		return p, nil
	}

	if in.ProductID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	p, err := u.catalog.FindByID(ctx, in.ProductID)
	if err != nil {
		u.logger.Warn("catalog lookup failed", zap.Int64("product_id", in.ProductID), zap.Error(err))
		return model.Product{}, catalogError(err)
	}
	return p, nil
}

// スナップショットをレスポンスの形にする
func ToCartResponse(snap model.CartSnapshot) CartResponse {
	items := make([]CartItemResponse, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, CartItemResponse{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			SKU:       it.Product.SKU,
			Price:     it.Product.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		})
	}

	return CartResponse{
		SessionID: snap.SessionID,
		Items:     items,
		Count:     snap.Count,
		Total:     snap.Subtotal,
		Version:   snap.Version,
	}
}
