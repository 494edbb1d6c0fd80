package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sukesh_education/internal/mail"

	"github.com/sirupsen/logrus"
)

// ErrInvalidPayload marks messages that can never succeed and must not be retried.
var ErrInvalidPayload = errors.New("invalid payload")

type envelope struct {
	Type string `json:"type"`
}

func (w *MailWorker) handleMessage(ctx context.Context, body []byte, workerID int) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch env.Type {
	case mail.TypePasswordReset:
		return w.processPasswordReset(ctx, body, workerID)
	default:
		return fmt.Errorf("%w: unknown message type %q", ErrInvalidPayload, env.Type)
	}
}

func (w *MailWorker) processPasswordReset(ctx context.Context, body []byte, workerID int) error {
	var msg mail.PasswordResetMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if msg.Email == "" || msg.ResetURL == "" {
		return fmt.Errorf("%w: missing email or reset url", ErrInvalidPayload)
	}

	logrus.Infof("Worker %d sending password reset to user=%d", workerID, msg.UserID)

	err := w.mailer.Send(ctx, mail.RenderPasswordReset(w.appName, &msg))
	w.metrics.ObserveMailDelivery(mail.TypePasswordReset, err)
	if err != nil {
		return err
	}

	logrus.Infof("Worker %d password reset sent to user=%d", workerID, msg.UserID)
	return nil
}
