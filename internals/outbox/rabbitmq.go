package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"techfest_backend/internals/logging"
)

// RabbitQueue uses a durable queue on the default exchange and polls it with basic.get.
type RabbitQueue struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	dead    string
}

func NewRabbitQueue(url, queue string) (*RabbitQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("failed to connect to RabbitMQ")
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		logging.Logger.Error().Err(err).Msg("failed to open RabbitMQ channel")
		return nil, err
	}

	q := &RabbitQueue{conn: conn, channel: ch, queue: queue, dead: queue + ".dead"}
	for _, name := range []string{q.queue, q.dead} {
		if _, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			q.Close()
			logging.Logger.Error().Err(err).Str("queue", name).Msg("failed to declare queue")
			return nil, err
		}
	}

	logging.Logger.Info().Str("queue", queue).Msg("RabbitMQ outbox initialized")
	return q, nil
}

func (q *RabbitQueue) publish(ctx context.Context, queue string, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.channel.PublishWithContext(ctx,
		"",
		queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID,
			Type:         e.Kind,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (q *RabbitQueue) Push(ctx context.Context, e Entry) error {
	return q.publish(ctx, q.queue, e)
}

func (q *RabbitQueue) DeadLetter(ctx context.Context, e Entry) error {
	return q.publish(ctx, q.dead, e)
}

func (q *RabbitQueue) Pop(ctx context.Context) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	d, ok, err := q.channel.Get(q.queue, false)
	q.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var e Entry
	if err := json.Unmarshal(d.Body, &e); err != nil {
		_ = d.Nack(false, false)
		return nil, fmt.Errorf("decode outbox entry: %w", err)
	}
	// the worker re-publishes on failure, so the delivery can be acked now
	if err := d.Ack(false); err != nil {
		return nil, err
	}
	return &e, nil
}

func (q *RabbitQueue) Len(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, err := q.channel.QueueDeclarePassive(q.queue, true, false, false, false, nil)
	if err != nil {
		return 0, err
	}
	return int64(st.Messages), nil
}

func (q *RabbitQueue) Close() error {
	if q.channel != nil {
		_ = q.channel.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
	logging.Logger.Info().Msg("RabbitMQ connection closed")
	return nil
}
