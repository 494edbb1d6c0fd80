package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sukesh_education/internal/mail"
	"sukesh_education/internal/observability"
	"sukesh_education/internal/queue"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type action int

const (
	actionAck action = iota
	actionRetry
	actionDrop
)

// MailWorker delivers the messages queued by mail.QueueNotifier.
type MailWorker struct {
	mailer  mail.Mailer
	appName string
	metrics *observability.Metrics
}

func NewMailWorker(mailer mail.Mailer, appName string, metrics *observability.Metrics) *MailWorker {
	return &MailWorker{mailer: mailer, appName: appName, metrics: metrics}
}

// decide maps a processing result to what happens to the delivery.
func decide(err error, retryCount int32) action {
	switch {
	case err == nil:
		return actionAck
	case errors.Is(err, ErrInvalidPayload):
		return actionDrop
	case retryCount >= queue.MaxRetries:
		return actionDrop
	default:
		return actionRetry
	}
}

func retryCountOf(headers amqp.Table) int32 {
	if headers == nil {
		return 0
	}
	switch v := headers[queue.RetryHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	default:
		return 0
	}
}

func republishWithRetry(ch *amqp.Channel, msg *amqp.Delivery, retryCount int32) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Create new headers with incremented retry count
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[queue.RetryHeader] = retryCount

	return ch.PublishWithContext(
		ctx,
		"",             // exchange
		msg.RoutingKey, // routing key (queue name)
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			Body:         msg.Body,
			Headers:      headers,
		},
	)
}

// StartWorker consumes the mail queue until ctx is cancelled or the channel closes.
func StartWorker(ctx context.Context, conn *amqp.Connection, w *MailWorker, id int) error {
	ch, err := queue.CreateChannel(conn)
	if err != nil {
		return fmt.Errorf("worker %d: %w", id, err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("worker %d failed to set QoS: %w", id, err)
	}

	if _, err := queue.DeclareQueue(ch, queue.MailQueue); err != nil {
		return fmt.Errorf("worker %d: %w", id, err)
	}

	msgs, err := ch.Consume(
		queue.MailQueue,
		fmt.Sprintf("mail-worker-%d", id),
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("worker %d failed to start consuming messages: %w", id, err)
	}

	logrus.Infof("Worker %d started", id)

	for {
		select {
		case <-ctx.Done():
			logrus.Infof("Worker %d stopping", id)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("worker %d: delivery channel closed", id)
			}
			w.process(ctx, ch, &msg, id)
		}
	}
}

func (w *MailWorker) process(ctx context.Context, ch *amqp.Channel, msg *amqp.Delivery, id int) {
	// Track message consumption
	w.metrics.QueueMessagesConsumed.WithLabelValues(queue.MailQueue).Inc()

	retryCount := retryCountOf(msg.Headers)
	err := w.handleMessage(ctx, msg.Body, id)

	switch decide(err, retryCount) {
	case actionAck:
		_ = msg.Ack(false)

	case actionDrop:
		logrus.WithError(err).WithField("retry", retryCount).Error("Dropping mail message")
		_ = msg.Nack(false, false)

	case actionRetry:
		logrus.WithError(err).Warnf("Worker %d: delivery failed, requeuing (retry %d/%d)", id, retryCount+1, queue.MaxRetries)

		if err := republishWithRetry(ch, msg, retryCount+1); err != nil {
			logrus.WithError(err).Error("Failed to republish message")
			_ = msg.Nack(false, false)
			return
		}

		// Track republishing
		w.metrics.QueueMessagesPublished.WithLabelValues(queue.MailQueue).Inc()
		_ = msg.Ack(false)
	}
}
