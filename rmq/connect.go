package rmq

import (
	"fmt"
	"net/url"

	amqp "github.com/rabbitmq/amqp091-go"
)

// FormatConnectionString builds a URI that will permit an AMQP client to connect to the
// RabbitMQ server described by the provided config values
func FormatConnectionString(host string, port int, vhost, user, password string) string {
	urlencodedPassword := url.QueryEscape(password)
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s", user, urlencodedPassword, host, port, url.PathEscape(vhost))
}

// Dial opens a connection to the RabbitMQ server at uri
func Dial(uri string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP server: %w", err)
	}
	return conn, nil
}
