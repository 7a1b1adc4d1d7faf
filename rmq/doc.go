// Package rmq connects to a RabbitMQ server and sends or receives JSON messages on
// queues described by a QueueDeclaration, hiding the AMQP topology each QueueType
// calls for.
package rmq
