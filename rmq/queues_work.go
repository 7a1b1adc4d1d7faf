package rmq

import amqp "github.com/rabbitmq/amqp091-go"

// declareWorkQueue declares a durable named queue. Each message is delivered to one
// consumer, and messages published while no consumer is connected wait in the queue
// (up to args' x-max-length, if set).
func declareWorkQueue(ch *amqp.Channel, name string, args amqp.Table) (*amqp.Queue, error) {
	q, err := ch.QueueDeclare(name, true, false, false, false, args)
	if err != nil {
		return nil, err
	}
	return &q, nil
}
