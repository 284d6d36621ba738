// Package mq wraps the optional RabbitMQ connection used for newsletter
// signup events. Publishing is fire-and-forget: a missing broker or a
// failed publish never affects the API response.
package mq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher holds the connection and target queue. A nil *Publisher is
// valid and drops every message.
type Publisher struct {
	conn  *amqp.Connection
	queue string
}

// New dials the broker. Returns nil (publishing disabled) when url is
// empty or the broker is unreachable.
func New(url, queue string) *Publisher {
	if url == "" {
		return nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		zap.L().Warn("rabbitmq unavailable, signup events disabled", zap.Error(err))
		return nil
	}
	return &Publisher{conn: conn, queue: queue}
}

// Publish marshals v and sends it to the queue. Best effort.
func (p *Publisher) Publish(ctx context.Context, v interface{}) {
	if p == nil {
		return
	}
	ch, err := p.conn.Channel()
	if err != nil {
		zap.L().Debug("mq channel failed", zap.Error(err))
		return
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		zap.L().Debug("mq queue declare failed", zap.Error(err))
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		zap.L().Debug("mq publish failed", zap.Error(err))
	}
}

// Consume opens a delivery channel for the worker. Unlike publishing,
// the worker treats broker failures as fatal.
func Consume(url, queue string) (<-chan amqp.Delivery, *amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, nil, err
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return deliveries, conn, nil
}
