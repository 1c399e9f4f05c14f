package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// ProductEventsQueue is the durable queue carrying product lifecycle events.
const ProductEventsQueue = "product_events"

// Event types published on ProductEventsQueue.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
)

// ProductEvent is the JSON body of a product lifecycle message.
type ProductEvent struct {
	Type       string    `json:"type"`
	ProductID  string    `json:"productId"`
	SKU        string    `json:"sku"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *zap.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the product
// events queue.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info("rabbitmq client connected", zap.String("queue", ProductEventsQueue))

	return &Client{
		conn:    conn,
		channel: ch,
		log:     log,
	}, nil
}

func declareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		ProductEventsQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare %s: %w", ProductEventsQueue, err)
	}
	return q, nil
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishProductEvent publishes event as a persistent JSON message.
func (c *Client) PublishProductEvent(ctx context.Context, event ProductEvent) error {
	if c.channel == nil {
		return errors.New("rabbitmq channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal product event: %w", err)
	}

	err = c.channel.Publish(
		"",                 // default exchange
		ProductEventsQueue, // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish product event: %w", err)
	}

	c.log.Debug("product event published",
		zap.String("type", event.Type),
		zap.String("product_id", event.ProductID),
	)
	return nil
}

// ConsumeProductEvents delivers decoded product events to handler on a
// background goroutine. Messages the handler fails on are requeued once; a
// message that cannot be decoded is dropped.
func (c *Client) ConsumeProductEvents(handler func(ProductEvent) error) error {
	if c.channel == nil {
		return errors.New("rabbitmq channel is not available for consumption")
	}

	queue, err := declareQueue(c.channel)
	if err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			c.handleDelivery(msg, handler)
		}
		c.log.Info("product event consumer stopped")
	}()

	return nil
}

func (c *Client) handleDelivery(msg amqp.Delivery, handler func(ProductEvent) error) {
	event, err := DecodeProductEvent(msg.Body)
	if err != nil {
		c.log.Error("dropping malformed product event", zap.Uint64("tag", msg.DeliveryTag), zap.Error(err))
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.log.Error("failed to nack message", zap.Uint64("tag", msg.DeliveryTag), zap.Error(nackErr))
		}
		return
	}

	if err := handler(event); err != nil {
		c.log.Error("failed to process product event", zap.Uint64("tag", msg.DeliveryTag), zap.Error(err))
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			c.log.Error("failed to nack message", zap.Uint64("tag", msg.DeliveryTag), zap.Error(nackErr))
		}
		return
	}

	if ackErr := msg.Ack(false); ackErr != nil {
		c.log.Error("failed to ack message", zap.Uint64("tag", msg.DeliveryTag), zap.Error(ackErr))
	}
}

// DecodeProductEvent parses a message body produced by PublishProductEvent.
func DecodeProductEvent(body []byte) (ProductEvent, error) {
	var event ProductEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("failed to decode product event: %w", err)
	}
	if event.Type == "" || event.ProductID == "" {
		return event, errors.New("product event is missing type or productId")
	}
	return event, nil
}
