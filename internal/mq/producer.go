package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func SendImmediateMessage(ctx context.Context, ch *amqp.Channel, queueName string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(
		ctx,
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message to queue %s: %w", queueName, err)
	}

	return nil
}

// Publisher owns one channel; amqp channels must not be shared between goroutines unguarded.
type Publisher struct {
	conn *amqp.Connection
	mu   sync.Mutex
	ch   *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := NewChannel(conn)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

func (p *Publisher) PublishReservationEvent(ctx context.Context, event ReservationEvent) error {
	return p.publish(ctx, ReservationEventsQueue, event)
}

func (p *Publisher) RetryReservationEvent(ctx context.Context, event ReservationEvent) error {
	event.Attempt++
	return p.publish(ctx, ReservationEventsRetryQueue, event)
}

func (p *Publisher) publish(ctx context.Context, queue string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// reopen once if the broker closed the channel
	if p.ch == nil || p.ch.IsClosed() {
		ch, err := NewChannel(p.conn)
		if err != nil {
			return err
		}
		p.ch = ch
	}
	return SendImmediateMessage(ctx, p.ch, queue, message)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	return p.ch.Close()
}

// NopPublisher drops events when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishReservationEvent(context.Context, ReservationEvent) error {
	return nil
}
