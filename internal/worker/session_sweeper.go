package worker

import (
	"context"
	"time"

	"storefront/internal/repository"

	"go.uber.org/zap"
)

// 期限切れセッションを定期的に掃除する
type SessionSweeper struct {
	sessions repository.SessionRepository
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time
}

// DI
func NewSessionSweeper(sessions repository.SessionRepository, logger *zap.Logger, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// ctx が終わるまでブロックする
func (w *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("session sweeper started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := w.sessions.Sweep(ctx, w.now()); n > 0 {
				w.logger.Info("expired sessions swept", zap.Int("count", n))
			}
		}
	}
}
