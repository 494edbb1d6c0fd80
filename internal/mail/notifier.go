package mail

import (
	"context"

	"sukesh_education/internal/observability"
	"sukesh_education/internal/queue"
)

// Notifier hands a password reset to whatever delivers mail.
type Notifier interface {
	NotifyPasswordReset(ctx context.Context, msg *PasswordResetMessage) error
}

type JSONPublisher interface {
	PublishJSON(ctx context.Context, queueName string, v any) error
}

// QueueNotifier publishes to the mail queue for cmd/worker.
type QueueNotifier struct {
	publisher JSONPublisher
	metrics   *observability.Metrics
}

func NewQueueNotifier(publisher JSONPublisher, metrics *observability.Metrics) *QueueNotifier {
	return &QueueNotifier{publisher: publisher, metrics: metrics}
}

func (n *QueueNotifier) NotifyPasswordReset(ctx context.Context, msg *PasswordResetMessage) error {
	msg.Type = TypePasswordReset
	if err := n.publisher.PublishJSON(ctx, queue.MailQueue, msg); err != nil {
		return err
	}
	n.metrics.QueueMessagesPublished.WithLabelValues(queue.MailQueue).Inc()
	return nil
}

// DirectNotifier renders and sends in the calling goroutine.
type DirectNotifier struct {
	mailer  Mailer
	appName string
	metrics *observability.Metrics
}

func NewDirectNotifier(mailer Mailer, appName string, metrics *observability.Metrics) *DirectNotifier {
	return &DirectNotifier{mailer: mailer, appName: appName, metrics: metrics}
}

func (n *DirectNotifier) NotifyPasswordReset(ctx context.Context, msg *PasswordResetMessage) error {
	msg.Type = TypePasswordReset
	err := n.mailer.Send(ctx, RenderPasswordReset(n.appName, msg))
	n.metrics.ObserveMailDelivery(TypePasswordReset, err)
	return err
}
