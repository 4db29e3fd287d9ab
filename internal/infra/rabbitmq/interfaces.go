package rabbitmq

import "github.com/streadway/amqp"

// Channel is the subset of *amqp.Channel the sink needs.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var _ Channel = (*amqp.Channel)(nil)
