package consumer

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// HandlerFunc processes one message body. A non-nil error rejects the
// message.
type HandlerFunc func(ctx context.Context, body []byte) error

// Run drains a delivery stream through a handler. Messages are acked only
// after the handler returns nil; on error the message is rejected without
// requeue, which routes it to the queue's DLQ. There is no retry budget;
// dead-lettered messages wait for manual replay.
func Run(ctx context.Context, deliveries <-chan amqp.Delivery, queue string, handler HandlerFunc, log *logrus.Logger) {
	for msg := range deliveries {
		if err := handler(ctx, msg.Body); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"queue":      queue,
				"message_id": msg.MessageId,
			}).Error("message processing failed, dead-lettering")
			if err := msg.Nack(false, false); err != nil {
				log.WithError(err).WithField("queue", queue).Error("failed to nack message")
			}
			continue
		}

		if err := msg.Ack(false); err != nil {
			log.WithError(err).WithField("queue", queue).Error("failed to ack message")
		}
	}
}
