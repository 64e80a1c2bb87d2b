package repository

import (
	"context"
	"time"
)

type CheckoutLineEvent struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

// チェックアウト完了イベントの中身
type CheckoutCompletedEvent struct {
	EventID       string              `json:"event_id"`
	ReceiptNumber string              `json:"receipt_number"`
	SessionID     string              `json:"session_id"`
	Email         string              `json:"email"`
	CardLast4     string              `json:"card_last4"`
	Items         []CheckoutLineEvent `json:"items"`
	Subtotal      string              `json:"subtotal"`
	Tax           string              `json:"tax"`
	Total         string              `json:"total"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// 外部へのイベント送信を約束
type CheckoutPublisher interface {
	PublishCheckoutCompleted(ctx context.Context, evt CheckoutCompletedEvent) error
}
