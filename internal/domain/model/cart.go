package model

// ある時点のカートの内容。
// Count / Subtotal は読むたびに明細から計算する。
type CartSnapshot struct {
	SessionID string
	Items     []LineItem
	Count     int64
	Subtotal  Money
	// 変更があるたびに +1
	Version uint64
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}
