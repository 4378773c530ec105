package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"usersvc/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	amqp "github.com/streadway/amqp"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     zerolog.Logger

	// amqp.Channel is not safe for concurrent publishes.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares the event queue.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.Queue == "" {
		return nil, errors.New("rabbitmq queue name is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareQueue(ch, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info().Str("queue", cfg.Queue).Msg("rabbitmq client connected")

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
		log:     log,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", name, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
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

// PublishUserEvent publishes a user lifecycle event to the configured queue
// through the default exchange.
func (c *Client) PublishUserEvent(event models.UserEvent) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}

	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	err = c.channel.Publish(
		"",      // exchange: default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		msg,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

func newPublishing(event models.UserEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         event.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}

// ConsumeUserEvents starts a goroutine that hands every event on the queue to
// handler. Messages are acked when handler succeeds. Handler failures are
// requeued once; a message that fails after redelivery, or cannot be decoded,
// is dropped.
func (c *Client) ConsumeUserEvents(handler func(models.UserEvent) error) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer tag
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info().Str("queue", c.queue).Msg("consuming user events")

	go func() {
		for msg := range msgs {
			c.handleDelivery(msg, handler)
		}
	}()

	return nil
}

func (c *Client) handleDelivery(msg amqp.Delivery, handler func(models.UserEvent) error) {
	event, err := decodeEvent(msg.Body)
	if err != nil {
		c.log.Error().Err(err).Uint64("delivery_tag", msg.DeliveryTag).Msg("discarding malformed user event")
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.log.Error().Err(nackErr).Msg("failed to nack message")
		}
		return
	}

	if err := handler(event); err != nil {
		requeue := !msg.Redelivered
		c.log.Error().
			Err(err).
			Str("type", event.Type).
			Bool("requeue", requeue).
			Msg("failed to handle user event")
		if nackErr := msg.Nack(false, requeue); nackErr != nil {
			c.log.Error().Err(nackErr).Msg("failed to nack message")
		}
		return
	}

	if ackErr := msg.Ack(false); ackErr != nil {
		c.log.Error().Err(ackErr).Msg("failed to ack message")
	}
}

func decodeEvent(body []byte) (models.UserEvent, error) {
	var event models.UserEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return models.UserEvent{}, fmt.Errorf("failed to decode user event: %w", err)
	}
	if event.Type == "" {
		return models.UserEvent{}, errors.New("user event has no type")
	}
	return event, nil
}

// LogUserEvent returns a consumer handler that writes each event to log.
func LogUserEvent(log zerolog.Logger) func(models.UserEvent) error {
	return func(event models.UserEvent) error {
		log.Info().
			Str("type", event.Type).
			Int64("user_id", event.UserID).
			Str("email", event.Email).
			Time("occurred_at", event.OccurredAt).
			Msg("received user event")
		return nil
	}
}
