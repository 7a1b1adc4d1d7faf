// Package audit publishes a record of every authentication decision to a RabbitMQ
// queue, so that other services can keep an access log or alert on abuse, and reads
// those records back.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/golden-vcr/hmac-auth/auth"
	"github.com/golden-vcr/hmac-auth/entry"
	"github.com/golden-vcr/hmac-auth/rmq"
)

// Event is the message published for each decision
type Event struct {
	auth.Decision
	RequestId string `json:"requestId,omitempty"`
}

// Publisher queues decisions in memory and sends them from a background goroutine, so
// that a slow or unavailable broker never delays a request. If the buffer is full,
// events are dropped and logged.
type Publisher struct {
	producer rmq.Producer
	logger   *slog.Logger
	events   chan Event
}

func NewPublisher(producer rmq.Producer, logger *slog.Logger, bufferSize int) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   logger,
		events:   make(chan Event, bufferSize),
	}
}

// Publish is an auth.DecisionFunc
func (p *Publisher) Publish(ctx context.Context, d auth.Decision) {
	ev := Event{
		Decision:  d,
		RequestId: entry.RequestId(ctx),
	}
	select {
	case p.events <- ev:
	default:
		p.logger.Warn("Audit buffer is full; dropping event", "outcome", d.Outcome, "requestId", ev.RequestId)
	}
}

// Run sends queued events until ctx is done
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-p.events:
			if err := p.producer.Send(ctx, ev); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				p.logger.Error("Failed to publish audit event", "error", err, "requestId", ev.RequestId)
			}
		}
	}
}

// Tail calls fn for each event received from consumer until ctx is done. Messages that
// can't be parsed are rejected without requeueing.
func Tail(ctx context.Context, consumer rmq.Consumer, fn func(ev Event) error) error {
	deliveries, err := consumer.Recv(ctx)
	if err != nil {
		return fmt.Errorf("failed to start receiving audit events: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("audit delivery channel closed")
			}
			var ev Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				d.Reject(false)
				continue
			}
			if err := fn(ev); err != nil {
				d.Nack(false, true)
				return err
			}
			d.Ack(false)
		}
	}
}
