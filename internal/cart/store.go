// Package cart はセッションごとのカート状態を持つ。
// 状態を書き換えられるのは Store のメソッドだけ（単一書き込み）。
package cart

import (
	"errors"
	"sync"

	"storefront/internal/domain/model"
)

var (
	// 数量が1未満
	ErrInvalidQuantity = errors.New("invalid quantity")

	// 商品スナップショットが不正（IDなし・名前なし）
	ErrInvalidProduct = errors.New("invalid product")

	// 在庫を超える数量
	ErrStockExceeded = errors.New("stock exceeded")
)

// 1明細の数量上限。単価上限（model.MaxPrice）と掛けても int64 に収まる。
const MaxLineQuantity int64 = 9_999

// 変更のたびに呼ばれる購読者。
// Listener の中から Store の変更系メソッドを呼ばないこと（デッドロックする）。
type Listener func(model.CartSnapshot)

type subscriber struct {
	id uint64
	fn Listener
}

type Store struct {
	sessionID string

	// notifyMu は変更と通知をまとめて直列化し、通知順＝変更順にする
	notifyMu sync.Mutex

	mu        sync.RWMutex
	items     []model.LineItem
	index     map[int64]int // productID -> items の位置
	version   uint64
	listeners []subscriber // 購読順
	nextSubID uint64

	// セッション終了の合図
	done      chan struct{}
	closeOnce sync.Once
}

// DI
func NewStore(sessionID string) *Store {
	return &Store{
		sessionID: sessionID,
		index:     make(map[int64]int),
		done:      make(chan struct{}),
	}
}

func (s *Store) SessionID() string {
	return s.sessionID
}

// カートに追加（同一商品は数量加算）。
// エラー時は状態を一切変えない。
func (s *Store) AddToCart(p model.Product, qty int64) (model.CartSnapshot, error) {
	if qty < 1 || qty > MaxLineQuantity {
		return s.Snapshot(), ErrInvalidQuantity
	}
	if !p.Valid() {
		return s.Snapshot(), ErrInvalidProduct
	}
	p = cloneProduct(p)

	return s.mutate(func() (bool, error) {
		if i, ok := s.index[p.ID]; ok {
			//足す前に上限を確認（溢れさせない）
			if s.items[i].Quantity > MaxLineQuantity-qty {
				return false, ErrInvalidQuantity
			}
			line := model.LineItem{Product: p, Quantity: s.items[i].Quantity + qty}
			if p.Exceeds(line.Quantity) {
				return false, ErrStockExceeded
			}
			if !s.totalFitsLocked(line) {
				return false, ErrInvalidQuantity
			}
			// 最新のスナップショットで上書き
			s.items[i] = line
			return true, nil
		}

		line := model.LineItem{Product: p, Quantity: qty}
		if p.Exceeds(qty) {
			return false, ErrStockExceeded
		}
		if !s.totalFitsLocked(line) {
			return false, ErrInvalidQuantity
		}
		s.index[p.ID] = len(s.items)
		s.items = append(s.items, line)
		return true, nil
	})
}

// 明細を削除。無ければ何もしない。
func (s *Store) RemoveFromCart(productID int64) model.CartSnapshot {
	snap, _ := s.mutate(func() (bool, error) {
		return s.removeLocked(productID), nil
	})
	return snap
}

// 数量変更。0以下は削除と同じ。カートに無い商品は何もしない。
func (s *Store) UpdateQuantity(productID int64, qty int64) (model.CartSnapshot, error) {
	return s.mutate(func() (bool, error) {
		i, ok := s.index[productID]
		if !ok {
			return false, nil
		}
		if qty <= 0 {
			return s.removeLocked(productID), nil
		}
		if qty > MaxLineQuantity {
			return false, ErrInvalidQuantity
		}
		if s.items[i].Product.Exceeds(qty) {
			return false, ErrStockExceeded
		}
		if s.items[i].Quantity == qty {
			return false, nil
		}
		line := model.LineItem{Product: s.items[i].Product, Quantity: qty}
		if !s.totalFitsLocked(line) {
			return false, ErrInvalidQuantity
		}
		s.items[i].Quantity = qty
		return true, nil
	})
}

// カートを空にする（チェックアウト後など）。何度呼んでもよい。
func (s *Store) ClearCart() model.CartSnapshot {
	snap, _ := s.mutate(func() (bool, error) {
		if len(s.items) == 0 {
			return false, nil
		}
		s.items = nil
		s.index = make(map[int64]int)
		return true, nil
	})
	return snap
}

// version が v のままなら空にする。変わっていれば何もせず false。
func (s *Store) ClearIfVersion(v uint64) (model.CartSnapshot, bool) {
	cleared := false
	snap, _ := s.mutate(func() (bool, error) {
		if s.version != v {
			return false, nil
		}
		cleared = true
		if len(s.items) == 0 {
			return false, nil
		}
		s.items = nil
		s.index = make(map[int64]int)
		return true, nil
	})
	return snap, cleared
}

// 支払い済みの数量だけ差し引く。その後に増えた分・追加された商品は残る。
func (s *Store) Deduct(paid []model.LineItem) model.CartSnapshot {
	snap, _ := s.mutate(func() (bool, error) {
		changed := false
		for _, it := range paid {
			i, ok := s.index[it.Product.ID]
			if !ok || it.Quantity <= 0 {
				continue
			}
			if s.items[i].Quantity <= it.Quantity {
				s.removeLocked(it.Product.ID)
			} else {
				s.items[i].Quantity -= it.Quantity
			}
			changed = true
		}
		return changed, nil
	})
	return snap
}

// セッション終了。購読側は Done で気づく。何度呼んでもよい。
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Store) Done() <-chan struct{} {
	return s.done
}

// 合計金額 = Σ 単価 × 数量
func (s *Store) Total() model.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return subtotal(s.items)
}

// 数量の合計（カートアイコンのバッジ用）
func (s *Store) ItemsCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return count(s.items)
}

// 明細のコピー（追加順）
func (s *Store) Items() []model.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyItems(s.items)
}

func (s *Store) Snapshot() model.CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// 変更通知を購読する。戻り値で解除。
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.listeners = append(s.listeners, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					break
				}
			}
			s.mu.Unlock()
		})
	}
}

// fn が true を返したときだけ version を進めて通知する。
func (s *Store) mutate(fn func() (bool, error)) (model.CartSnapshot, error) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed, err := fn()
	if changed {
		s.version++
	}
	snap := s.snapshotLocked()
	var listeners []Listener
	if changed {
		listeners = make([]Listener, 0, len(s.listeners))
		for _, sub := range s.listeners {
			listeners = append(listeners, sub.fn)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return snap, err
}

func (s *Store) removeLocked(productID int64) bool {
	i, ok := s.index[productID]
	if !ok {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, productID)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].Product.ID] = j
	}
	return true
}

// line を入れた後の合計が int64 に収まるか
func (s *Store) totalFitsLocked(line model.LineItem) bool {
	total, ok := line.Product.UnitPrice.Mul(line.Quantity)
	if !ok {
		return false
	}
	for _, it := range s.items {
		if it.Product.ID == line.Product.ID {
			continue
		}
		if total, ok = total.Add(it.LineTotal()); !ok {
			return false
		}
	}
	return true
}

func (s *Store) snapshotLocked() model.CartSnapshot {
	return model.CartSnapshot{
		SessionID: s.sessionID,
		Items:     copyItems(s.items),
		Count:     count(s.items),
		Subtotal:  subtotal(s.items),
		Version:   s.version,
	}
}

func copyItems(items []model.LineItem) []model.LineItem {
	out := make([]model.LineItem, len(items))
	for i, it := range items {
		out[i] = model.LineItem{Product: cloneProduct(it.Product), Quantity: it.Quantity}
	}
	return out
}

// Stock のポインタを共有しない
func cloneProduct(p model.Product) model.Product {
	if p.Stock != nil {
		v := *p.Stock
		p.Stock = &v
	}
	return p
}

func count(items []model.LineItem) int64 {
	var n int64
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func subtotal(items []model.LineItem) model.Money {
	var total model.Money
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}
