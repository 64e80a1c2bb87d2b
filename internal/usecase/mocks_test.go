package usecase_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mocks
// =====================

type CatalogMock struct{ mock.Mock }

func (m *CatalogMock) List(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *CatalogMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

var _ repo.ProductCatalog = (*CatalogMock)(nil)

type CheckoutRepoMock struct{ mock.Mock }

func (m *CheckoutRepoMock) Create(ctx context.Context, receipt *model.CheckoutReceipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *CheckoutRepoMock) FindByNumber(ctx context.Context, number string) (model.CheckoutReceipt, error) {
	args := m.Called(ctx, number)
	r, _ := args.Get(0).(model.CheckoutReceipt)
	return r, args.Error(1)
}

var _ repo.CheckoutRepository = (*CheckoutRepoMock)(nil)

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishCheckoutCompleted(ctx context.Context, evt repo.CheckoutCompletedEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

var _ repo.CheckoutPublisher = (*PublisherMock)(nil)

type ValidatorMock struct{ mock.Mock }

func (m *ValidatorMock) ValidateCheckout(ctx context.Context, in usecase.CheckoutInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

type IssuerMock struct{ mock.Mock }

func (m *IssuerMock) Issue(sessionID string, now time.Time) (string, time.Time, error) {
	args := m.Called(sessionID, now)
	exp, _ := args.Get(1).(time.Time)
	return args.String(0), exp, args.Error(2)
}

// =====================
// helper
// =====================

func requireHTTPError(t *testing.T, err error, status int, msg string) {
	t.Helper()

	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %T", err)
	assert.Equal(t, status, he.Status)
	assert.Equal(t, msg, he.Message)
}

func stock(n int64) *int64 { return &n }

func mouse() model.Product {
	return model.Product{ID: 1, Name: "Wireless Mouse", SKU: "MS-01", UnitPrice: 2999, Stock: stock(10)}
}

func keyboard() model.Product {
	return model.Product{ID: 2, Name: "Mechanical Keyboard", SKU: "KB-02", UnitPrice: 7999}
}
