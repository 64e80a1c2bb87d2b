package model

// カートの明細
// 追加時点の商品スナップショットを必ず保持。
type LineItem struct {
	Product  Product
	Quantity int64
}

// 単価 × 数量。カートの上限内（MaxPrice × 数量上限）では溢れない。
func (it LineItem) LineTotal() Money {
	total, _ := it.Product.UnitPrice.Mul(it.Quantity)
	return total
}
