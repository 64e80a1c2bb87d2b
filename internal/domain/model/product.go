package model

import "strings"

// カタログから受け取った商品のスナップショット。
// カートに入れた時点のコピーで、カタログとは連動しない。
type Product struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SKU       string `json:"sku,omitempty"`
	UnitPrice Money  `json:"price"`
	// nilなら在庫不明（上限チェックしない）
	Stock *int64 `json:"stock_quantity,omitempty"`
}

// IDと名前があり、単価が 0〜MaxPrice か
func (p Product) Valid() bool {
	return p.ID > 0 && strings.TrimSpace(p.Name) != "" &&
		p.UnitPrice >= 0 && p.UnitPrice <= MaxPrice
}

// 在庫上限を超えるか
func (p Product) Exceeds(qty int64) bool {
	return p.Stock != nil && qty > *p.Stock
}

// カタログAPI / リクエストで受け取る商品の形。
// base_price は数値でも数値文字列でも来る。
type ProductPayload struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	BasePrice     any    `json:"base_price"`
	Price         any    `json:"price"`
	StockQuantity *int64 `json:"stock_quantity"`
	Stock         *int64 `json:"stock"`
}

func (p ProductPayload) price() any {
	if p.BasePrice != nil {
		return p.BasePrice
	}
	return p.Price
}

func (p ProductPayload) stock() *int64 {
	if p.StockQuantity != nil {
		return p.StockQuantity
	}
	return p.Stock
}

// 価格が読めなければエラー（リクエストボディ用）
func (p ProductPayload) Parse() (Product, error) {
	price, err := ParsePrice(p.price())
	if err != nil {
		return Product{}, err
	}
	return p.snapshot(price), nil
}

// 価格が読めなければ 0 円として扱う（カタログ応答用）
func (p ProductPayload) Coerce() Product {
	return p.snapshot(PriceOrZero(p.price()))
}

func (p ProductPayload) snapshot(price Money) Product {
	out := Product{
		ID:        p.ID,
		Name:      strings.TrimSpace(p.Name),
		SKU:       strings.TrimSpace(p.SKU),
		UnitPrice: price,
	}
	if s := p.stock(); s != nil {
		v := *s
		out.Stock = &v
	}
	return out
}
