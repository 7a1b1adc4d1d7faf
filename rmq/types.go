package rmq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Producer sends JSON-serialized messages to a queue
type Producer interface {
	Send(ctx context.Context, data any) error
	Close() error
}

// Consumer receives messages from a queue. Deliveries must be acknowledged.
type Consumer interface {
	Recv(ctx context.Context) (<-chan amqp.Delivery, error)
	Close() error
}
