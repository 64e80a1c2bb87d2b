package repository

import (
	"context"
	"sync"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
)

type sessionEntry struct {
	session model.Session
	store   *cart.Store
}

// セッションはプロセス内だけで持つ（永続化しない）
type SessionMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	ttl time.Duration
	max int
	now func() time.Time
}

// DI
func NewSessionMemoryRepository(ttl time.Duration, max int) *SessionMemoryRepository {
	return &SessionMemoryRepository{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		max:      max,
		now:      time.Now,
	}
}

// テスト用に時計を差し替える
func (r *SessionMemoryRepository) WithClock(now func() time.Time) *SessionMemoryRepository {
	r.now = now
	return r
}

// 新しいセッションと空のカートを作る
func (r *SessionMemoryRepository) Create(ctx context.Context) (model.Session, *cart.Store, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.max {
		return model.Session{}, nil, repo.ErrCapacity
	}

	s := model.Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(r.ttl),
		LastSeenAt: now,
	}
	e := &sessionEntry{session: s, store: cart.NewStore(s.ID)}
	r.sessions[s.ID] = e

	return s, e.store, nil
}

// セッション取得（期限を延長する）
func (r *SessionMemoryRepository) Get(ctx context.Context, id string) (model.Session, *cart.Store, error) {
	now := r.now()

	r.mu.Lock()
	e, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return model.Session{}, nil, repo.ErrNotFound
	}
	if e.session.Expired(now) {
		delete(r.sessions, id)
		r.mu.Unlock()

		//購読者への通知はロックの外で
		e.store.ClearCart()
		e.store.Close()
		return model.Session{}, nil, repo.ErrNotFound
	}

	e.session.LastSeenAt = now
	e.session.ExpiresAt = now.Add(r.ttl)
	s := e.session
	r.mu.Unlock()

	return s, e.store, nil
}

// セッションを閉じる（カートも破棄）
func (r *SessionMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return repo.ErrNotFound
	}
	e.store.ClearCart()
	e.store.Close()
	return nil
}

// 期限切れを掃除
func (r *SessionMemoryRepository) Sweep(ctx context.Context, now time.Time) int {
	var expired []*sessionEntry

	r.mu.Lock()
	for id, e := range r.sessions {
		if e.session.Expired(now) {
			expired = append(expired, e)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, e := range expired {
		e.store.ClearCart()
		e.store.Close()
	}
	return len(expired)
}

// 現在のセッション数
func (r *SessionMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
