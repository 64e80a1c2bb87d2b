package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/cart"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// セッショントークンの発行を約束
type SessionTokenIssuer interface {
	Issue(sessionID string, now time.Time) (token string, expiresAt time.Time, err error)
}

type SessionUsecase struct {
	sessions repo.SessionRepository
	issuer   SessionTokenIssuer
	logger   *zap.Logger
}

// DI
func NewSessionUsecase(sessions repo.SessionRepository, issuer SessionTokenIssuer, logger *zap.Logger) *SessionUsecase {
	return &SessionUsecase{sessions: sessions, issuer: issuer, logger: logger}
}

type SessionOutput struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	// 操作がないとこの時刻で失効する
	IdleExpiresAt time.Time `json:"idle_expires_at"`
}

// セッションを開始（空のカートを作る）
func (u *SessionUsecase) Open(ctx context.Context) (SessionOutput, error) {
	s, _, err := u.sessions.Create(ctx)
	if errors.Is(err, repo.ErrCapacity) {
		return SessionOutput{}, NewHTTPError(http.StatusServiceUnavailable, "too many sessions")
	}
	if err != nil {
		return SessionOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	token, expiresAt, err := u.issuer.Issue(s.ID, s.CreatedAt)
	if err != nil {
		_ = u.sessions.Delete(ctx, s.ID)
		u.logger.Error("issue session token failed", zap.Error(err))
		return SessionOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	u.logger.Info("session opened", zap.String("session_id", s.ID))
	return SessionOutput{
		SessionID:     s.ID,
		Token:         token,
		ExpiresAt:     expiresAt,
		IdleExpiresAt: s.ExpiresAt,
	}, nil
}

// セッションを閉じる（カートは破棄）
func (u *SessionUsecase) Close(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	u.logger.Info("session closed", zap.String("session_id", sessionID))
	return nil
}

// セッションIDからカートを引く（期限切れ・未知は401）
func resolveCart(ctx context.Context, sessions repo.SessionRepository, sessionID string) (*cart.Store, error) {
	if sessionID == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	_, store, err := sessions.Get(ctx, sessionID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return store, nil
}
