package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	repo "storefront/internal/repository"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQ へチェックアウト完了イベントを送る
type RabbitPublisher struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger

	mu sync.Mutex
}

// 接続してキューを宣言する（durable）
func NewRabbitPublisher(url string, queue string, logger *zap.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}

	return &RabbitPublisher{conn: conn, ch: ch, queue: queue, logger: logger}, nil
}

func (p *RabbitPublisher) PublishCheckoutCompleted(ctx context.Context, evt repo.CheckoutCompletedEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    evt.EventID,
			Timestamp:    evt.OccurredAt,
			Type:         "checkout.completed",
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}

	p.logger.Debug("checkout event published",
		zap.String("event_id", evt.EventID),
		zap.String("queue", p.queue))
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// AMQP_URL が無いときはログに出すだけ
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishCheckoutCompleted(ctx context.Context, evt repo.CheckoutCompletedEvent) error {
	p.logger.Info("checkout completed",
		zap.String("event_id", evt.EventID),
		zap.String("receipt_number", evt.ReceiptNumber),
		zap.String("session_id", evt.SessionID),
		zap.String("total", evt.Total),
		zap.Int("lines", len(evt.Items)))
	return nil
}
