package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const TypePasswordReset = "password_reset"

// PasswordResetMessage is the payload put on the mail queue.
type PasswordResetMessage struct {
	Type      string    `json:"type"`
	UserID    int       `json:"user_id"`
	Email     string    `json:"email"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a rendered email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	From string
}

func NewLogMailer(from string) *LogMailer {
	return &LogMailer{From: from}
}

func (m *LogMailer) Send(ctx context.Context, email Email) error {
	logrus.WithFields(logrus.Fields{
		"from":    m.From,
		"to":      email.To,
		"subject": email.Subject,
	}).Info(email.Body)
	return nil
}

// RenderPasswordReset builds the email sent for msg.
func RenderPasswordReset(appName string, msg *PasswordResetMessage) Email {
	body := fmt.Sprintf(
		"Someone asked to reset the password for your %s account.\n\n"+
			"Open this link to choose a new password:\n%s\n\n"+
			"The link expires at %s. If you did not ask for this, ignore this email.",
		appName, msg.ResetURL, msg.ExpiresAt.Format(time.RFC1123),
	)
	return Email{
		To:      msg.Email,
		Subject: appName + " password reset",
		Body:    body,
	}
}
