package model_test

import (
	"encoding/json"
	"math"
	"testing"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice_AcceptedShapes(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want model.Money
	}{
		{"numeric string", "29.99", 2999},
		{"padded string", " 59.99 ", 5999},
		{"float", 59.99, 5999},
		{"float32", float32(1.5), 150},
		{"int", 12, 1200},
		{"int64", int64(3), 300},
		{"json.Number", json.Number("0.105"), 11},
		{"rounds half up", "2.345", 235},
		{"rounds down", "2.344", 234},
		{"zero", "0", 0},
		{"decimal", decimal.RequireFromString("7.1"), 710},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := model.ParsePrice(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePrice_Rejects(t *testing.T) {
	for _, in := range []any{nil, "", "abc", "-1.00", -3, math.NaN(), math.Inf(1), true, []int{1}, "1e20", 1e300, "1000000000.00"} {
		_, err := model.ParsePrice(in)
		assert.ErrorIs(t, err, model.ErrInvalidPrice, "input=%v", in)
	}
}

// 上限ちょうどは通る
func TestParsePrice_MaxPrice(t *testing.T) {
	got, err := model.ParsePrice("999999999.99")
	require.NoError(t, err)
	assert.Equal(t, model.MaxPrice, got)

	_, err = model.ParsePrice("999999999.995")
	assert.ErrorIs(t, err, model.ErrInvalidPrice)
}

func TestPriceOrZero_FailsClosed(t *testing.T) {
	assert.Equal(t, model.Money(0), model.PriceOrZero("1e20"))
	assert.Equal(t, model.Money(0), model.PriceOrZero("not-a-number"))
	assert.Equal(t, model.Money(0), model.PriceOrZero(nil))
	assert.Equal(t, model.Money(1999), model.PriceOrZero("19.99"))
}

func TestMoney_StringAndJSON(t *testing.T) {
	assert.Equal(t, "119.97", model.Money(11997).String())
	assert.Equal(t, "0.05", model.Money(5).String())
	assert.Equal(t, "10.00", model.Money(1000).String())

	b, err := json.Marshal(struct {
		Total model.Money `json:"total"`
	}{Total: 35992})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"359.92"}`, string(b))

	var v struct {
		A model.Money `json:"a"`
		B model.Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"29.99","b":59.99}`), &v))
	assert.Equal(t, model.Money(2999), v.A)
	assert.Equal(t, model.Money(5999), v.B)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"x"}`), &v))
}

func TestMoney_MulRate(t *testing.T) {
	rate := decimal.RequireFromString("0.10")

	cases := map[model.Money]model.Money{
		11997: 1200, // 11.997 -> 12.00
		14995: 1500, // 14.995 -> 15.00
		0:     0,
	}
	for in, want := range cases {
		got, err := in.MulRate(rate)
		require.NoError(t, err)
		assert.Equal(t, want, got, "in=%s", in)
	}

	_, err := model.Money(math.MaxInt64).MulRate(decimal.NewFromInt(2))
	assert.ErrorIs(t, err, model.ErrInvalidPrice)
}

func TestMoney_MulAdd_Overflow(t *testing.T) {
	got, ok := model.Money(2999).Mul(3)
	require.True(t, ok)
	assert.Equal(t, model.Money(8997), got)

	_, ok = model.Money(2999).Mul(math.MaxInt64 / 100)
	assert.False(t, ok)
	_, ok = model.Money(-1).Mul(math.MinInt64)
	assert.False(t, ok)

	got, ok = model.Money(100).Add(50)
	require.True(t, ok)
	assert.Equal(t, model.Money(150), got)

	_, ok = model.Money(math.MaxInt64).Add(1)
	assert.False(t, ok)

	// 上限どうしの掛け算は収まる
	_, ok = model.MaxPrice.Mul(9_999)
	assert.True(t, ok)
}

func TestProductPayload_ParseAndCoerce(t *testing.T) {
	stock := int64(4)
	p, err := model.ProductPayload{ID: 1, Name: " Shirt ", BasePrice: "29.99", StockQuantity: &stock}.Parse()
	require.NoError(t, err)
	assert.Equal(t, "Shirt", p.Name)
	assert.Equal(t, model.Money(2999), p.UnitPrice)
	require.NotNil(t, p.Stock)
	assert.Equal(t, int64(4), *p.Stock)
	assert.True(t, p.Exceeds(5))
	assert.False(t, p.Exceeds(4))

	// base_price が無ければ price を使う
	p, err = model.ProductPayload{ID: 2, Name: "Card", Price: 5}.Parse()
	require.NoError(t, err)
	assert.Equal(t, model.Money(500), p.UnitPrice)
	assert.Nil(t, p.Stock)
	assert.False(t, p.Exceeds(1000))

	_, err = model.ProductPayload{ID: 3, Name: "Bad", BasePrice: "abc"}.Parse()
	assert.ErrorIs(t, err, model.ErrInvalidPrice)

	coerced := model.ProductPayload{ID: 3, Name: "Bad", BasePrice: "abc"}.Coerce()
	assert.Equal(t, model.Money(0), coerced.UnitPrice)
}
