package rmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueType identifies how messages sent to a queue are distributed among consumers
type QueueType string

const (
	// QueueTypeFanout delivers a copy of each message to every consumer: each consumer
	// binds its own temporary queue to a fanout exchange named after the queue
	QueueTypeFanout QueueType = "fanout"

	// QueueTypeWork delivers each message to exactly one of the consumers of a
	// persistent, named queue
	QueueTypeWork QueueType = "work"
)

// QueueDeclaration records the canonical details of how a particular queue is to be
// configured
type QueueDeclaration struct {
	Name string    `yaml:"name"`
	Type QueueType `yaml:"type"`

	// MaxLength, if positive, caps the number of messages held in each queue; the
	// oldest messages are discarded once it's reached
	MaxLength int `yaml:"max_length"`
}

// queueArgs returns the x-arguments to declare queues with
func (d *QueueDeclaration) queueArgs() amqp.Table {
	if d.MaxLength <= 0 {
		return nil
	}
	return amqp.Table{"x-max-length": int32(d.MaxLength)}
}

// NewProducer declares the queue's AMQP topology and returns a Producer for it
func (d *QueueDeclaration) NewProducer(conn *amqp.Connection) (Producer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	exchange, routingKey, err := d.declareForProducer(ch)
	if err != nil {
		ch.Close()
		return nil, err
	}
	return &producer{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// NewConsumer declares the queue's AMQP topology and returns a Consumer for it
func (d *QueueDeclaration) NewConsumer(conn *amqp.Connection) (Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	q, err := d.declareForConsumer(ch)
	if err != nil {
		ch.Close()
		return nil, err
	}
	return &consumer{ch: ch, q: q}, nil
}

func (d *QueueDeclaration) declareForProducer(ch *amqp.Channel) (exchange, routingKey string, err error) {
	switch d.Type {
	case QueueTypeFanout:
		if err := declareFanoutExchange(ch, d.Name); err != nil {
			return "", "", fmt.Errorf("failed to declare fanout exchange '%s': %w", d.Name, err)
		}
		return d.Name, "", nil
	case QueueTypeWork:
		q, err := declareWorkQueue(ch, d.Name, d.queueArgs())
		if err != nil {
			return "", "", fmt.Errorf("failed to declare work queue '%s': %w", d.Name, err)
		}
		return "", q.Name, nil
	}
	return "", "", fmt.Errorf("queue '%s' has unrecognized type '%s'", d.Name, d.Type)
}

func (d *QueueDeclaration) declareForConsumer(ch *amqp.Channel) (*amqp.Queue, error) {
	switch d.Type {
	case QueueTypeFanout:
		if err := declareFanoutExchange(ch, d.Name); err != nil {
			return nil, fmt.Errorf("failed to declare fanout exchange '%s': %w", d.Name, err)
		}
		q, err := declareFanoutConsumerQueue(ch, d.Name, d.queueArgs())
		if err != nil {
			return nil, fmt.Errorf("failed to declare consumer queue for fanout exchange '%s': %w", d.Name, err)
		}
		return q, nil
	case QueueTypeWork:
		q, err := declareWorkQueue(ch, d.Name, d.queueArgs())
		if err != nil {
			return nil, fmt.Errorf("failed to declare work queue '%s': %w", d.Name, err)
		}
		return q, nil
	}
	return nil, fmt.Errorf("queue '%s' has unrecognized type '%s'", d.Name, d.Type)
}

// producer publishes on a single channel; AMQP channels aren't safe for concurrent
// publishing, so sends are serialized
type producer struct {
	mu         sync.Mutex
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

func (p *producer) Send(ctx context.Context, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	mandatory := false
	immediate := false
	return p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, mandatory, immediate, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   uuid.NewString(),
		Timestamp:   time.Now(),
		Body:        jsonData,
	})
}

func (p *producer) Close() error {
	return p.ch.Close()
}

type consumer struct {
	ch *amqp.Channel
	q  *amqp.Queue
}

func (c *consumer) Recv(ctx context.Context) (<-chan amqp.Delivery, error) {
	autoAck := false
	exclusive := false
	noLocal := false
	noWait := false
	return c.ch.ConsumeWithContext(ctx, c.q.Name, "", autoAck, exclusive, noLocal, noWait, nil)
}

func (c *consumer) Close() error {
	return c.ch.Close()
}
