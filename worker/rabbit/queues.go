package rabbit

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const HISTORY_QUEUE_REQ = "history_calculation_req"

// Publisher is the publishing half of *amqp.Channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// DeclareHistoryQueue declares the request queue shared by the analytics
// service and the history workers.
func DeclareHistoryQueue(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(
		HISTORY_QUEUE_REQ, // name
		false,             // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // noWait
		nil,               // arguments
	); err != nil {
		return fmt.Errorf("declare a queue for history request: %w", err)
	}

	return nil
}

// DeclareReplyQueue declares a server-named queue private to this connection.
func DeclareReplyQueue(ch *amqp.Channel) (string, error) {
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // noWait
		nil,   // arguments
	)
	if err != nil {
		return "", fmt.Errorf("declare a reply queue: %w", err)
	}

	return q.Name, nil
}

func DeclarePricesExchange(ch *amqp.Channel, name string) error {
	if err := ch.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	); err != nil {
		return fmt.Errorf("declare prices exchange: %w", err)
	}

	return nil
}

// Consume starts a consumer on queue.
func Consume(ch *amqp.Channel, queue string, autoAck bool) (<-chan amqp.Delivery, error) {
	msgs, err := ch.Consume(
		queue,   // queue
		"",      // consumer
		autoAck, // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}

	return msgs, nil
}
