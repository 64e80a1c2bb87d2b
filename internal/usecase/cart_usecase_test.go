package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCartFixture(t *testing.T) (*usecase.CartUsecase, *CatalogMock, string) {
	t.Helper()

	sessions := infraRepo.NewSessionMemoryRepository(time.Hour, 10)
	s, _, err := sessions.Create(context.Background())
	require.NoError(t, err)

	catalog := new(CatalogMock)
	return usecase.NewCartUsecase(sessions, catalog, zap.NewNop()), catalog, s.ID
}

func TestCartUsecase_AddToCart_FromCatalog(t *testing.T) {
	ctx := context.Background()
	uc, catalog, sid := newCartFixture(t)

	catalog.On("FindByID", mock.Anything, int64(1)).Return(mouse(), nil).Once()

	out, err := uc.AddToCart(ctx, sid, usecase.AddCartInput{ProductID: 1, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(1), out.Items[0].ProductID)
	assert.Equal(t, "Wireless Mouse", out.Items[0].Name)
	assert.Equal(t, model.Money(2999), out.Items[0].Price)
	assert.Equal(t, model.Money(8997), out.Items[0].LineTotal)
	assert.Equal(t, int64(3), out.Count)
	assert.Equal(t, "89.97", out.Total.String())
	assert.Equal(t, sid, out.SessionID)
	assert.Equal(t, uint64(1), out.Version)

	catalog.AssertExpectations(t)
}

func TestCartUsecase_AddToCart_FromPayload(t *testing.T) {
	ctx := context.Background()
	uc, catalog, sid := newCartFixture(t)

	out, err := uc.AddToCart(ctx, sid, usecase.AddCartInput{
		Product:  &model.ProductPayload{ID: 7, Name: "USB-C Hub", BasePrice: "49.99"},
		Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "99.98", out.Total.String())

	// カタログは引かない
	catalog.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestCartUsecase_AddToCart_Rejects(t *testing.T) {
	ctx := context.Background()

	t.Run("quantity", func(t *testing.T) {
		uc, _, sid := newCartFixture(t)
		_, err := uc.AddToCart(ctx, sid, usecase.AddCartInput{ProductID: 1, Quantity: 0})
		requireHTTPError(t, err, http.StatusBadRequest, "invalid quantity")
	})

	t.Run("bad price in payload", func(t *testing.T) {
		uc, _, sid := newCartFixture(t)
		_, err := uc.AddToCart(ctx, sid, usecase.AddCartInput{
			Product:  &model.ProductPayload{ID: 7, Name: "Hub", BasePrice: "abc"},
			Quantity: 1,
		})
		requireHTTPError(t, err, http.StatusBadRequest, "invalid product")
	})

	t.Run("payload id mismatch", func(t *testing.T) {
		uc, _, sid := newCartFixture(t)
		_, err := uc.AddToCart(ctx, sid, usecase.AddCartInput{
			ProductID: 8,
			Product:   &model.ProductPayload{ID: 7, Name: "Hub", BasePrice: 1},
			Quantity:  1,
		})
		requireHTTPError(t, err, http.StatusBadRequest, "invalid product")
	})

	t.Run("stock", func(t *testing.T) {
		uc, catalog, sid := newCartFixture(t)
		catalog.On("FindByID", mock.Anything, int64(1)).Return(mouse(), nil)

		_, err := uc.AddToCart(ctx, sid, usecase.AddCartInput{ProductID: 1, Quantity: 11})
		requireHTTPError(t, err, http.StatusBadRequest, "stock exceeded")

		out, err := uc.GetCart(ctx, sid)
		require.NoError(t, err)
		assert.Empty(t, out.Items)
		assert.Equal(t, uint64(0), out.Version)
	})

	t.Run("catalog not found", func(t *testing.T) {
		uc, catalog, sid := newCartFixture(t)
		catalog.On("FindByID", mock.Anything, int64(99)).Return(nil, repo.ErrNotFound)

		_, err := uc.AddToCart(ctx, sid, usecase.AddCartInput{ProductID: 99, Quantity: 1})
		requireHTTPError(t, err, http.StatusNotFound, "not found")
	})

	t.Run("catalog down", func(t *testing.T) {
		uc, catalog, sid := newCartFixture(t)
		catalog.On("FindByID", mock.Anything, int64(1)).Return(nil, repo.ErrUnavailable)

		_, err := uc.AddToCart(ctx, sid, usecase.AddCartInput{ProductID: 1, Quantity: 1})
		requireHTTPError(t, err, http.StatusBadGateway, "catalog unavailable")
	})

	t.Run("unknown session", func(t *testing.T) {
		uc, _, _ := newCartFixture(t)
		_, err := uc.AddToCart(ctx, "nope", usecase.AddCartInput{ProductID: 1, Quantity: 1})
		requireHTTPError(t, err, http.StatusUnauthorized, "unauthorized")
	})
}

func TestCartUsecase_UpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	uc, catalog, sid := newCartFixture(t)

	catalog.On("FindByID", mock.Anything, int64(1)).Return(mouse(), nil)
	catalog.On("FindByID", mock.Anything, int64(2)).Return(keyboard(), nil)

	_, err := uc.AddToCart(ctx, sid, usecase.AddCartInput{ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	_, err = uc.AddToCart(ctx, sid, usecase.AddCartInput{ProductID: 2, Quantity: 1})
	require.NoError(t, err)

	out, err := uc.UpdateQuantity(ctx, sid, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Count)
	assert.Equal(t, "349.95", out.Total.String())

	// 0は削除
	out, err = uc.UpdateQuantity(ctx, sid, 2, 0)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(1), out.Items[0].ProductID)

	// 無い商品は何もしない
	before := out.Version
	out, err = uc.RemoveFromCart(ctx, sid, 42)
	require.NoError(t, err)
	assert.Equal(t, before, out.Version)

	n, err := uc.Count(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	out, err = uc.ClearCart(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, "0.00", out.Total.String())

	_, err = uc.UpdateQuantity(ctx, sid, 0, 1)
	requireHTTPError(t, err, http.StatusBadRequest, "invalid product_id")
}

func TestCartUsecase_Subscribe(t *testing.T) {
	ctx := context.Background()
	uc, catalog, sid := newCartFixture(t)
	catalog.On("FindByID", mock.Anything, int64(1)).Return(mouse(), nil)

	var got []usecase.CartResponse
	sub, err := uc.Subscribe(ctx, sid, func(r usecase.CartResponse) {
		got = append(got, r)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), sub.Current.Version)

	_, err = uc.AddToCart(ctx, sid, usecase.AddCartInput{ProductID: 1, Quantity: 2})
	require.NoError(t, err)
	_, err = uc.ClearCart(ctx, sid)
	require.NoError(t, err)

	sub.Unsubscribe()
	_, err = uc.AddToCart(ctx, sid, usecase.AddCartInput{ProductID: 1, Quantity: 1})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].Count)
	assert.Equal(t, int64(0), got[1].Count)
	assert.Less(t, got[0].Version, got[1].Version)
}

// 別セッションのカートは独立
func TestCartUsecase_SessionsDiverge(t *testing.T) {
	ctx := context.Background()

	sessions := infraRepo.NewSessionMemoryRepository(time.Hour, 10)
	a, _, err := sessions.Create(ctx)
	require.NoError(t, err)
	b, _, err := sessions.Create(ctx)
	require.NoError(t, err)

	catalog := new(CatalogMock)
	catalog.On("FindByID", mock.Anything, int64(1)).Return(mouse(), nil)
	uc := usecase.NewCartUsecase(sessions, catalog, zap.NewNop())

	_, err = uc.AddToCart(ctx, a.ID, usecase.AddCartInput{ProductID: 1, Quantity: 2})
	require.NoError(t, err)

	outB, err := uc.GetCart(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, outB.Items)

	n, err := uc.Count(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

// セッションを閉じると購読側の Closed が閉じる
func TestCartUsecase_Subscribe_ClosedWhenSessionEnds(t *testing.T) {
	ctx := context.Background()
	sessions := infraRepo.NewSessionMemoryRepository(time.Hour, 10)
	s, _, err := sessions.Create(ctx)
	require.NoError(t, err)
	uc := usecase.NewCartUsecase(sessions, new(CatalogMock), zap.NewNop())

	sub, err := uc.Subscribe(ctx, s.ID, func(usecase.CartResponse) {})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	select {
	case <-sub.Closed:
		t.Fatal("closed while session is alive")
	default:
	}

	require.NoError(t, sessions.Delete(ctx, s.ID))

	select {
	case <-sub.Closed:
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after session delete")
	}

	_, err = uc.Subscribe(ctx, s.ID, func(usecase.CartResponse) {})
	requireHTTPError(t, err, http.StatusUnauthorized, "unauthorized")
}
