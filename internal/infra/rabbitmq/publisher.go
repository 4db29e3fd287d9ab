package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"commerce-service/internal/domain"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Sink publishes lifecycle events to a topic exchange, routed by event name.
type Sink struct {
	conn     *amqp.Connection
	channel  Channel
	exchange string
	log      *zap.Logger
	mu       sync.Mutex
}

func NewSink(amqpURL, exchange string, log *zap.Logger) (*Sink, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Sink{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		log:      log,
	}, nil
}

// NewSinkWithChannel builds a sink over an already opened channel.
func NewSinkWithChannel(ch Channel, exchange string, log *zap.Logger) *Sink {
	return &Sink{channel: ch, exchange: exchange, log: log}
}

func (s *Sink) Write(_ context.Context, evt domain.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.channel.Publish(
		s.exchange,
		evt.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    evt.ID,
			Timestamp:    evt.Timestamp,
			Type:         evt.Name,
			AppId:        evt.Origin,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	s.log.Debug("event published", zap.String("exchange", s.exchange), zap.String("event", evt.Name))
	return nil
}

func (s *Sink) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
