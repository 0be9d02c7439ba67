package messaging

import (
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *logrus.Logger
}

func NewRabbitMQ(url string, log *logrus.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	log.Info("connected to RabbitMQ")

	return &RabbitMQ{
		conn:    conn,
		channel: channel,
		log:     log,
	}, nil
}

// DeclareExchange creates a durable topic exchange if it doesn't exist.
func (r *RabbitMQ) DeclareExchange(name string) error {
	err := r.channel.ExchangeDeclare(
		name,    // exchange name
		"topic", // kind
		true,    // durable
		false,   // auto-delete
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", name, err)
	}
	return nil
}

// DeclareQueue provisions everything a consumer queue needs: the topic
// exchange, a durable queue bound by routing key, and the dead-letter
// exchange/queue pair messages are routed to when the consumer rejects them.
func (r *RabbitMQ) DeclareQueue(spec QueueSpec) error {
	if err := r.DeclareExchange(spec.Exchange); err != nil {
		return err
	}
	if err := r.DeclareExchange(DeadLetterExchange); err != nil {
		return err
	}

	_, err := r.channel.QueueDeclare(
		spec.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ %s: %w", spec.DeadLetterQueue, err)
	}

	err = r.channel.QueueBind(spec.DeadLetterQueue, spec.DeadLetterKey, DeadLetterExchange, false, nil)
	if err != nil {
		return fmt.Errorf("failed to bind DLQ %s: %w", spec.DeadLetterQueue, err)
	}

	_, err = r.channel.QueueDeclare(
		spec.Queue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    DeadLetterExchange,
			"x-dead-letter-routing-key": spec.DeadLetterKey,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", spec.Queue, err)
	}

	err = r.channel.QueueBind(spec.Queue, spec.RoutingKey, spec.Exchange, false, nil)
	if err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", spec.Queue, err)
	}

	r.log.WithFields(logrus.Fields{
		"queue":       spec.Queue,
		"exchange":    spec.Exchange,
		"routing_key": spec.RoutingKey,
		"dlq":         spec.DeadLetterQueue,
	}).Info("queue declared")
	return nil
}

// Publish sends a persistent JSON message to a topic exchange.
func (r *RabbitMQ) Publish(exchange, routingKey string, body []byte) error {
	err := r.channel.Publish(
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s (%s): %w", exchange, routingKey, err)
	}

	r.log.WithFields(logrus.Fields{
		"exchange":    exchange,
		"routing_key": routingKey,
	}).Debug("message published")
	return nil
}

// Consume opens a manually-acknowledged delivery stream for a queue.
func (r *RabbitMQ) Consume(queue string) (<-chan amqp.Delivery, error) {
	messages, err := r.channel.Consume(
		queue,
		"",    // consumer tag
		false, // auto-ack (false = manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume from %s: %w", queue, err)
	}

	r.log.WithField("queue", queue).Info("listening on queue")
	return messages, nil
}

func (r *RabbitMQ) Close() {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
