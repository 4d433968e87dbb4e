// Package amqp publishes and consumes the change messages that keep the
// export and reindex worker in step with the API server.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// Handlers receives decoded messages during consumption. A nil handler acks
// and skips its kind.
type Handlers struct {
	ExpenseChanged func(ctx context.Context, msg *ExpenseChangedMessage) error
	ReindexWeeks   func(ctx context.Context, msg *ReindexWeeksMessage) error
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key matches the queue name on a direct exchange.
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishExpenseChanged publishes a change notification for a record.
func (c *Client) PublishExpenseChanged(ctx context.Context, scopeID, id, op string) error {
	return c.publish(ctx, KindExpenseChanged, ExpenseChangedMessage{
		ScopeID: scopeID,
		ID:      id,
		Op:      op,
	})
}

// PublishReindexWeeks asks the worker to recompute a scope's week keys.
func (c *Client) PublishReindexWeeks(ctx context.Context, scopeID string, weekStartDay int) error {
	return c.publish(ctx, KindReindexWeeks, ReindexWeeksMessage{
		ScopeID:      scopeID,
		WeekStartDay: weekStartDay,
	})
}

func (c *Client) publish(ctx context.Context, kind string, payload any) error {
	body, err := encodeEnvelope(kind, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		c.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", kind, err)
	}

	slog.InfoContext(ctx, "published change message",
		"kind", kind, "exchange", c.exchangeName, "queue", c.queueName)
	return nil
}

// Consume processes queue messages until ctx is cancelled. Undecodable
// messages are rejected without requeue; handler failures requeue.
func (c *Client) Consume(ctx context.Context, handlers Handlers) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "consuming change messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			if err := c.dispatch(ctx, delivery.Body, handlers); err != nil {
				slog.ErrorContext(ctx, "message handling failed", "error", err)
				delivery.Nack(false, !isPermanent(err))
				continue
			}
			delivery.Ack(false)
		}
	}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func isPermanent(err error) bool {
	_, ok := err.(permanentError)
	return ok
}

func (c *Client) dispatch(ctx context.Context, body []byte, handlers Handlers) error {
	env, err := decodeEnvelope(body)
	if err != nil {
		return permanentError{err}
	}

	switch env.Kind {
	case KindExpenseChanged:
		if handlers.ExpenseChanged == nil {
			return nil
		}
		var msg ExpenseChangedMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return permanentError{fmt.Errorf("unmarshal %s: %w", env.Kind, err)}
		}
		return handlers.ExpenseChanged(ctx, &msg)
	case KindReindexWeeks:
		if handlers.ReindexWeeks == nil {
			return nil
		}
		var msg ReindexWeeksMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return permanentError{fmt.Errorf("unmarshal %s: %w", env.Kind, err)}
		}
		return handlers.ReindexWeeks(ctx, &msg)
	default:
		return permanentError{fmt.Errorf("unknown message kind %q", env.Kind)}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
