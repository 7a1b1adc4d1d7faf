package rmq

import amqp "github.com/rabbitmq/amqp091-go"

// declareFanoutExchange declares the durable exchange that producers publish to. It
// holds no messages itself: with no consumers bound, messages are discarded.
func declareFanoutExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil)
}

// declareFanoutConsumerQueue declares an exclusive, server-named queue for a single
// consumer and binds it to exchange. The queue is deleted when the consumer's
// connection closes, so a consumer only sees messages published while it's connected.
func declareFanoutConsumerQueue(ch *amqp.Channel, exchange string, args amqp.Table) (*amqp.Queue, error) {
	q, err := ch.QueueDeclare("", false, true, true, false, args)
	if err != nil {
		return nil, err
	}
	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return nil, err
	}
	return &q, nil
}
