package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// amqpPublisher is the subset of *amqp.Channel used by AMQPSender.
type amqpPublisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPSender publishes opportunities as JSON to a topic exchange. Plain text
// notifications are published with a text/markdown content type.
type AMQPSender struct {
	conn       *amqp.Connection
	ch         amqpPublisher
	exchange   string
	routingKey string
}

// AMQPConfig holds broker connection settings for NewAMQPSender.
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
	Heartbeat  time.Duration
}

// NewAMQPSender dials the broker, opens a channel and declares a durable
// topic exchange.
func NewAMQPSender(cfg AMQPConfig) (*AMQPSender, error) {
	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat: cfg.Heartbeat,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, fmt.Errorf("amqp: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp: open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp: declare exchange %s: %w", cfg.Exchange, err)
	}

	return &AMQPSender{conn: conn, ch: ch, exchange: cfg.Exchange, routingKey: cfg.RoutingKey}, nil
}

// Send publishes a rendered notification.
func (a *AMQPSender) Send(_ context.Context, title, message string) error {
	return a.publish(amqp.Publishing{
		ContentType: "text/markdown",
		Headers:     amqp.Table{"title": title},
		Timestamp:   time.Now().UTC(),
		Body:        []byte(message),
	})
}

// SendOpportunity publishes opp as JSON. The message id is the opportunity id
// and the dedup key travels as a header for consumers.
func (a *AMQPSender) SendOpportunity(_ context.Context, opp domain.ArbitrageOpportunity) error {
	body, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("amqp: marshal opportunity: %w", err)
	}
	return a.publish(amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    opp.ID,
		Timestamp:    opp.DetectedAt,
		Headers:      amqp.Table{"dedup_key": opp.DedupKey()},
		Body:         body,
	})
}

func (a *AMQPSender) publish(msg amqp.Publishing) error {
	if err := a.ch.Publish(a.exchange, a.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("amqp: publish: %w", err)
	}
	return nil
}

// Close closes the channel and the connection.
func (a *AMQPSender) Close() error {
	if err := a.ch.Close(); err != nil {
		return fmt.Errorf("amqp: close channel: %w", err)
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

// Name returns the sender identifier.
func (a *AMQPSender) Name() string {
	return "amqp"
}
